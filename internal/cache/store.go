// Package cache provides the local on-device store for reviews and user
// profiles, backed by embedded SQLite with WAL mode for concurrent access.
//
// The cache is the only on-device copy of the data; the remote document
// store remains the source of truth. All mutations are serialized through
// the store and become immediately visible to live queries (see live.go).
// Readers observe either the pre- or post-mutation state, never a partial
// record: multi-statement mutations such as ReplaceAllReviews run inside a
// single transaction.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when a review or profile is not in the cache.
var ErrNotFound = errors.New("not found")

// Store wraps the SQLite connection holding the reviews and user_profiles
// tables. All engines and live queries share one Store; construct it once
// at startup and pass it explicitly.
type Store struct {
	conn *sql.DB
	path string

	// writeMu serializes mutations. SQLite already allows only one writer,
	// but serializing here keeps the change notification ordered with the
	// write it announces.
	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   map[*Subscription]struct{}
}

// Open creates a Store at the specified path, creating the parent directory
// and the schema if needed.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{
		conn: conn,
		path: path,
		subs: make(map[*Subscription]struct{}),
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}

	s.conn = nil
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// initSchema creates the tables and indexes. Idempotent.
//
// The seq column records insertion order and is never changed by an upsert,
// so timestamp ties sort stably. There are deliberately no foreign keys:
// the author fields on reviews are denormalized snapshots, not references.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		movie_title TEXT NOT NULL,
		movie_banner_url TEXT NOT NULL DEFAULT '',
		movie_genre TEXT NOT NULL DEFAULT '',
		movie_tmdb_id INTEGER NOT NULL DEFAULT 0,
		rating REAL NOT NULL,
		review_text TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_full_name TEXT NOT NULL DEFAULT '',
		user_profile_picture_url TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL,
		seq INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_profiles (
		uid TEXT PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reviews_user ON reviews(user_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_feed ON reviews(timestamp DESC, seq ASC);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return nil
}

// Subscription delivers a coalesced change signal whenever any cache table
// mutates. The channel has capacity one; a signal that arrives while a
// previous one is pending is dropped, so a slow consumer re-queries once.
type Subscription struct {
	C     chan struct{}
	store *Store
}

// Subscribe registers a change listener. Close the subscription to detach;
// detaching has no side effects on the store.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{
		C:     make(chan struct{}, 1),
		store: s,
	}

	s.subsMu.Lock()
	s.subs[sub] = struct{}{}
	s.subsMu.Unlock()

	return sub
}

// Close detaches the subscription from the store.
func (sub *Subscription) Close() {
	sub.store.subsMu.Lock()
	delete(sub.store.subs, sub)
	sub.store.subsMu.Unlock()
}

// notifyChanged signals all subscribers that a mutation committed.
func (s *Store) notifyChanged() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for sub := range s.subs {
		select {
		case sub.C <- struct{}{}:
		default:
			// Signal already pending; the subscriber will re-query anyway.
		}
	}
}
