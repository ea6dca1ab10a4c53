package sync

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/movierate/movierate/internal/blob"
	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/remote"
)

// reviewSyncer is the concrete ReviewSyncer over a cache, a document store,
// and an object storage uploader.
type reviewSyncer struct {
	store  *cache.Store
	docs   remote.DocStore
	blobs  blob.Uploader
	logger *log.Logger
}

// NewReviewSyncer creates a review engine. blobs may be nil if image upload
// is not needed (e.g. in the daemon); logger must not be nil.
func NewReviewSyncer(store *cache.Store, docs remote.DocStore, blobs blob.Uploader, logger *log.Logger) ReviewSyncer {
	return &reviewSyncer{store: store, docs: docs, blobs: blobs, logger: logger}
}

func (s *reviewSyncer) RefreshAll(ctx context.Context) error {
	reviews, err := s.docs.ListReviews(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch reviews: %w", err)
	}

	reviews = s.dropInvalid(reviews)
	if err := s.store.ReplaceAllReviews(ctx, reviews); err != nil {
		return fmt.Errorf("failed to replace cached reviews: %w", err)
	}

	s.logger.Printf("[sync] refreshed all reviews (%d cached)", len(reviews))
	return nil
}

func (s *reviewSyncer) RefreshForUser(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	reviews, err := s.docs.ListReviewsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to fetch reviews for %s: %w", userID, err)
	}

	reviews = s.dropInvalid(reviews)
	if err := s.store.UpsertReviews(ctx, reviews); err != nil {
		return fmt.Errorf("failed to merge cached reviews: %w", err)
	}

	s.logger.Printf("[sync] refreshed %d reviews for user %s", len(reviews), userID)
	return nil
}

// dropInvalid filters out remote documents that fail validation. A single
// malformed document must not poison a refresh.
func (s *reviewSyncer) dropInvalid(reviews []*model.Review) []*model.Review {
	kept := reviews[:0]
	for _, r := range reviews {
		if err := r.Validate(); err != nil {
			s.logger.Printf("[sync] warning: skipping malformed review %q: %v", r.ID, err)
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func (s *reviewSyncer) AddReview(ctx context.Context, r *model.Review) (*model.Review, error) {
	r.SetDefaults()
	if err := r.ValidateForSubmit(); err != nil {
		return nil, err
	}
	if r.UserID == "" {
		return nil, fmt.Errorf("review owner is required")
	}

	id, err := s.docs.CreateReview(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	r.ID = id

	if err := s.store.UpsertReview(ctx, r); err != nil {
		return nil, fmt.Errorf("review %s created but not cached: %w", id, err)
	}

	s.logger.Printf("[sync] added review %s (%s)", id, r.MovieTitle)
	return r, nil
}

func (s *reviewSyncer) UpdateReview(ctx context.Context, id string, rating float64, text string, bannerURL *string) error {
	if id == "" {
		return fmt.Errorf("review id is required")
	}
	if err := model.ValidateEdit(rating, text); err != nil {
		return err
	}

	fields := remote.ReviewFields{Rating: &rating, ReviewText: &text, BannerURL: bannerURL}
	if err := s.docs.UpdateReviewFields(ctx, id, fields); err != nil {
		return fmt.Errorf("failed to update review %s: %w", id, err)
	}

	patch := cache.ReviewPatch{Rating: &rating, ReviewText: &text, BannerURL: bannerURL}
	if err := s.store.UpdateReviewFields(ctx, id, patch); err != nil {
		return fmt.Errorf("review %s updated but cache is stale: %w", id, err)
	}

	s.logger.Printf("[sync] updated review %s", id)
	return nil
}

func (s *reviewSyncer) DeleteReview(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("review id is required")
	}

	if err := s.docs.DeleteReview(ctx, id); err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	if err := s.store.DeleteReview(ctx, id); err != nil {
		return fmt.Errorf("review %s deleted but still cached: %w", id, err)
	}

	s.logger.Printf("[sync] deleted review %s", id)
	return nil
}

func (s *reviewSyncer) PropagateAuthorFields(ctx context.Context, userID string, fullName, photoURL *string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}
	if fullName == nil && photoURL == nil {
		return 0, nil
	}

	fields := remote.AuthorFields{FullName: fullName, PhotoURL: photoURL}

	// Walk the user's reviews in cursor order, committing one bounded batch
	// per page. A short page means the collection is exhausted.
	var cursor *remote.Cursor
	updated := 0
	for {
		page, err := s.docs.ListReviewPage(ctx, userID, cursor, remote.MaxBatchSize)
		if err != nil {
			return updated, fmt.Errorf("failed to list reviews for fan-out: %w", err)
		}
		if len(page) == 0 {
			break
		}

		ids := make([]string, len(page))
		for i, r := range page {
			ids[i] = r.ID
		}
		if err := s.docs.BatchUpdateAuthorFields(ctx, ids, fields); err != nil {
			return updated, fmt.Errorf("failed to update author fields batch: %w", err)
		}
		updated += len(page)

		if len(page) < remote.MaxBatchSize {
			break
		}
		last := page[len(page)-1]
		cursor = &remote.Cursor{Timestamp: last.Timestamp, ID: last.ID}
	}

	patch := cache.AuthorPatch{FullName: fullName, PhotoURL: photoURL}
	if err := s.store.UpdateAuthorFields(ctx, userID, patch); err != nil {
		return updated, fmt.Errorf("author fields propagated but cache is stale: %w", err)
	}

	s.logger.Printf("[sync] propagated author fields to %d reviews for user %s", updated, userID)
	return updated, nil
}

func (s *reviewSyncer) UploadReviewImage(ctx context.Context, userID string, img io.Reader) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	key := blob.ReviewImageKey(userID, model.NowMillis())
	url, err := s.blobs.Upload(ctx, img, key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload review image: %w", err)
	}
	return url, nil
}
