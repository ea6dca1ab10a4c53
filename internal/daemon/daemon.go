// Package daemon provides the background process that keeps the local review
// cache warm and imports dropped review files.
//
// The daemon:
// 1. Refreshes the full review feed from the remote store on an interval
// 2. Watches a drop directory for review JSON files and submits them
// 3. Handles graceful shutdown
package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/sync"
)

// Config holds configuration for the daemon.
type Config struct {
	// RefreshInterval is how often the full feed is refreshed from remote.
	RefreshInterval time.Duration

	// DebounceInterval is how long to wait before importing a dropped file.
	// This batches rapid writes to the same file together.
	DebounceInterval time.Duration

	// OnRefresh, if set, is called after every successful remote refresh
	// with the time the refresh took.
	OnRefresh func(duration time.Duration)

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RefreshInterval:  30 * time.Second,
		DebounceInterval: 100 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates periodic feed refreshes and drop-directory imports.
type Daemon struct {
	reviews sync.ReviewSyncer
	dropDir string
	config  *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> queued at
	changeQueueMu stdsync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     stdsync.WaitGroup
}

// New creates a daemon. dropDir may be empty to disable file imports.
// Use Start() to begin refreshing and watching.
func New(reviews sync.ReviewSyncer, dropDir string, config *Config) (*Daemon, error) {
	if reviews == nil {
		return nil, fmt.Errorf("review syncer cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		reviews:     reviews,
		dropDir:     dropDir,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation.
//
// The daemon will:
// 1. Perform an initial full refresh
// 2. Start watching the drop directory for review files
// 3. Refresh the feed on the configured interval
// 4. Import dropped files with debouncing
//
// This blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting daemon")

	// A failed initial refresh is not fatal: the cache keeps serving the
	// last good data and the next tick retries.
	if err := d.refresh(); err != nil {
		d.config.Logger.Printf("Warning: initial refresh failed: %v", err)
	}

	if d.dropDir != "" {
		if err := d.watcher.Add(d.dropDir); err != nil {
			return fmt.Errorf("failed to watch drop directory: %w", err)
		}
		d.config.Logger.Printf("Watching: %s", d.dropDir)
	}

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.refreshLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			// Only care about Create and Write; deletes need no import.
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange adds a file to the change queue with debouncing.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue imports queued files once they have settled.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges imports files that have been quiet long enough.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}

		if err := d.importReviewFile(path); err != nil {
			d.config.Logger.Printf("Error importing %s: %v", path, err)
		}
		delete(d.changeQueue, path)
	}
}

// importReviewFile submits a dropped review file and removes it on success.
// A file that vanished before import is skipped.
func (d *Daemon) importReviewFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read review file: %w", err)
	}

	var r model.Review
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("failed to parse review file: %w", err)
	}

	added, err := d.reviews.AddReview(d.ctx, &r)
	if err != nil {
		return fmt.Errorf("failed to submit review: %w", err)
	}
	d.config.Logger.Printf("Imported review %s (%s)", added.ID, added.MovieTitle)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.config.Logger.Printf("Warning: imported but could not remove %s: %v", path, err)
	}
	return nil
}

// refreshLoop refreshes the full feed on the configured interval.
func (d *Daemon) refreshLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if err := d.refresh(); err != nil {
				d.config.Logger.Printf("Error refreshing feed: %v", err)
			}
		}
	}
}

// refresh runs one full feed refresh and reports it to OnRefresh.
func (d *Daemon) refresh() error {
	start := time.Now()
	if err := d.reviews.RefreshAll(d.ctx); err != nil {
		return err
	}
	if d.config.OnRefresh != nil {
		d.config.OnRefresh(time.Since(start))
	}
	return nil
}
