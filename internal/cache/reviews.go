package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/movierate/movierate/internal/model"
)

// reviewColumns is the column list shared by all review queries, in scan order.
const reviewColumns = `id, movie_title, movie_banner_url, movie_genre, movie_tmdb_id,
       rating, review_text, user_id, user_full_name, user_profile_picture_url, timestamp`

// upsertReviewSQL inserts a review or replaces it by id. The seq column is
// assigned once at first insert and kept on conflict, so replacing a review
// does not move it within a timestamp tie.
const upsertReviewSQL = `
INSERT INTO reviews (
	id, movie_title, movie_banner_url, movie_genre, movie_tmdb_id,
	rating, review_text, user_id, user_full_name, user_profile_picture_url,
	timestamp, seq
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
	(SELECT COALESCE(MAX(seq), 0) + 1 FROM reviews))
ON CONFLICT(id) DO UPDATE SET
	movie_title = excluded.movie_title,
	movie_banner_url = excluded.movie_banner_url,
	movie_genre = excluded.movie_genre,
	movie_tmdb_id = excluded.movie_tmdb_id,
	rating = excluded.rating,
	review_text = excluded.review_text,
	user_id = excluded.user_id,
	user_full_name = excluded.user_full_name,
	user_profile_picture_url = excluded.user_profile_picture_url,
	timestamp = excluded.timestamp
`

// ReviewPatch carries the fields UpdateReviewFields may change. Nil fields
// are left untouched.
type ReviewPatch struct {
	Rating     *float64
	ReviewText *string
	BannerURL  *string
}

// AuthorPatch carries the denormalized author fields UpdateAuthorFields may
// change on every review owned by a user. Nil fields are left untouched.
type AuthorPatch struct {
	FullName *string
	PhotoURL *string
}

func reviewArgs(r *model.Review) []interface{} {
	return []interface{}{
		r.ID,
		r.MovieTitle,
		r.MovieBannerURL,
		r.MovieGenre,
		r.MovieTmdbID,
		r.Rating,
		r.ReviewText,
		r.UserID,
		r.UserFullName,
		r.UserProfilePictureURL,
		r.Timestamp,
	}
}

// UpsertReview inserts or replaces a single review by id.
func (s *Store) UpsertReview(ctx context.Context, r *model.Review) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid review: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, upsertReviewSQL, reviewArgs(r)...); err != nil {
		return fmt.Errorf("failed to upsert review %s: %w", r.ID, err)
	}

	s.notifyChanged()
	return nil
}

// UpsertReviews inserts or replaces a batch of reviews in one transaction.
func (s *Store) UpsertReviews(ctx context.Context, reviews []*model.Review) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range reviews {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("invalid review: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertReviewSQL, reviewArgs(r)...); err != nil {
			return fmt.Errorf("failed to upsert review %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review batch: %w", err)
	}

	s.notifyChanged()
	return nil
}

// ReplaceAllReviews atomically swaps the entire review table for the given
// set. The delete and the re-insert run in one transaction, so no reader or
// live query ever observes the empty intermediate state.
func (s *Store) ReplaceAllReviews(ctx context.Context, reviews []*model.Review) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews"); err != nil {
		return fmt.Errorf("failed to clear reviews: %w", err)
	}

	for _, r := range reviews {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("invalid review: %w", err)
		}
		if _, err := tx.ExecContext(ctx, upsertReviewSQL, reviewArgs(r)...); err != nil {
			return fmt.Errorf("failed to insert review %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review replace: %w", err)
	}

	s.notifyChanged()
	return nil
}

// DeleteAllReviews removes every cached review.
func (s *Store) DeleteAllReviews(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, "DELETE FROM reviews"); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}

	s.notifyChanged()
	return nil
}

// DeleteReview removes one review by id. Returns nil if the review doesn't
// exist (idempotent).
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.conn.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}

	s.notifyChanged()
	return nil
}

// UpdateReviewFields applies a partial update to one review. Only the
// non-nil patch fields change.
func (s *Store) UpdateReviewFields(ctx context.Context, id string, patch ReviewPatch) error {
	sets, args := patchClauses(patch)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := "UPDATE reviews SET " + joinClauses(sets) + " WHERE id = ?"
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update review %s: %w", id, err)
	}

	s.notifyChanged()
	return nil
}

// UpdateAuthorFields applies the denormalized author fields to every review
// owned by userID. Only the non-nil patch fields change. Reviews owned by
// other users are untouched.
func (s *Store) UpdateAuthorFields(ctx context.Context, userID string, patch AuthorPatch) error {
	var sets []string
	var args []interface{}

	if patch.FullName != nil {
		sets = append(sets, "user_full_name = ?")
		args = append(args, *patch.FullName)
	}
	if patch.PhotoURL != nil {
		sets = append(sets, "user_profile_picture_url = ?")
		args = append(args, *patch.PhotoURL)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, userID)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	query := "UPDATE reviews SET " + joinClauses(sets) + " WHERE user_id = ?"
	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update author fields for %s: %w", userID, err)
	}

	s.notifyChanged()
	return nil
}

// GetReview retrieves a single review by id.
// Returns ErrNotFound if the review is not cached.
func (s *Store) GetReview(ctx context.Context, id string) (*model.Review, error) {
	query := "SELECT " + reviewColumns + " FROM reviews WHERE id = ?"
	row := s.conn.QueryRowContext(ctx, query, id)

	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review %s: %w", id, err)
	}
	return r, nil
}

// AllReviews returns every cached review, newest first. Timestamp ties keep
// insertion order.
func (s *Store) AllReviews(ctx context.Context) ([]*model.Review, error) {
	query := "SELECT " + reviewColumns + " FROM reviews ORDER BY timestamp DESC, seq ASC"

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// ReviewsByUser returns the cached reviews owned by userID, newest first.
func (s *Store) ReviewsByUser(ctx context.Context, userID string) ([]*model.Review, error) {
	query := "SELECT " + reviewColumns + " FROM reviews WHERE user_id = ? ORDER BY timestamp DESC, seq ASC"

	rows, err := s.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews for %s: %w", userID, err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// CountReviews returns the number of cached reviews.
func (s *Store) CountReviews(ctx context.Context) (int, error) {
	var count int
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM reviews").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(row rowScanner) (*model.Review, error) {
	var r model.Review
	err := row.Scan(
		&r.ID,
		&r.MovieTitle,
		&r.MovieBannerURL,
		&r.MovieGenre,
		&r.MovieTmdbID,
		&r.Rating,
		&r.ReviewText,
		&r.UserID,
		&r.UserFullName,
		&r.UserProfilePictureURL,
		&r.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func scanReviews(rows *sql.Rows) ([]*model.Review, error) {
	var reviews []*model.Review

	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

func patchClauses(patch ReviewPatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}

	if patch.Rating != nil {
		sets = append(sets, "rating = ?")
		args = append(args, *patch.Rating)
	}
	if patch.ReviewText != nil {
		sets = append(sets, "review_text = ?")
		args = append(args, *patch.ReviewText)
	}
	if patch.BannerURL != nil {
		sets = append(sets, "movie_banner_url = ?")
		args = append(args, *patch.BannerURL)
	}

	return sets, args
}

func joinClauses(sets []string) string {
	out := sets[0]
	for _, s := range sets[1:] {
		out += ", " + s
	}
	return out
}
