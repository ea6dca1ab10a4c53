package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/movierate/movierate/internal/model"
)

// UpsertProfile inserts or replaces a profile by uid.
func (s *Store) UpsertProfile(ctx context.Context, p *model.UserProfile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	query := `
	INSERT INTO user_profiles (uid, full_name, photo_url, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(uid) DO UPDATE SET
		full_name = excluded.full_name,
		photo_url = excluded.photo_url,
		updated_at = excluded.updated_at
	`

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, query, p.UID, p.FullName, p.PhotoURL, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert profile %s: %w", p.UID, err)
	}

	s.notifyChanged()
	return nil
}

// GetProfile retrieves a profile by uid.
// Returns ErrNotFound if the profile is not cached.
func (s *Store) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	query := `SELECT uid, full_name, photo_url, updated_at FROM user_profiles WHERE uid = ?`
	row := s.conn.QueryRowContext(ctx, query, uid)

	var p model.UserProfile
	err := row.Scan(&p.UID, &p.FullName, &p.PhotoURL, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", uid, err)
	}

	return &p, nil
}

// DeleteProfile removes a profile by uid. Returns nil if the profile doesn't
// exist (idempotent).
func (s *Store) DeleteProfile(ctx context.Context, uid string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, "DELETE FROM user_profiles WHERE uid = ?", uid); err != nil {
		return fmt.Errorf("failed to delete profile %s: %w", uid, err)
	}

	s.notifyChanged()
	return nil
}
