// Package remote defines the contract for the remote document store that
// holds the authoritative review and user-profile collections, plus two
// implementations: an HTTP/JSON client (Client) and an in-memory store
// (MemStore) for tests and local development.
//
// Every operation may fail for transient reasons (network, auth, quota);
// callers treat any error as recoverable and decide themselves whether to
// retry. Nothing in this package retries automatically.
package remote

import (
	"context"
	"errors"

	"github.com/movierate/movierate/internal/model"
)

// MaxBatchSize is the largest number of documents one atomic remote batch
// may touch. This is a platform ceiling, not a tuning knob; the fan-out in
// the sync engine pages with exactly this bound.
const MaxBatchSize = 500

// ErrNotFound is returned when a requested document does not exist remotely.
var ErrNotFound = errors.New("document not found")

// Cursor identifies the last document of a page for cursor-based
// pagination. The next page starts strictly after this document in
// (timestamp descending, id ascending) order.
type Cursor struct {
	Timestamp int64
	ID        string
}

// AuthorFields is the partial update applied during an author fan-out.
// Nil fields are left untouched on the documents.
type AuthorFields struct {
	FullName *string
	PhotoURL *string
}

// ReviewFields is the partial update for a single review document.
// Nil fields are left untouched.
type ReviewFields struct {
	Rating     *float64
	ReviewText *string
	BannerURL  *string
}

// DocStore is the remote document store surface consumed by the sync
// engines. Implementations must order list results by timestamp descending
// and assign document ids on create.
type DocStore interface {
	// ListReviews returns every review document, newest first.
	ListReviews(ctx context.Context) ([]*model.Review, error)

	// ListReviewsByUser returns the reviews owned by userID, newest first.
	ListReviewsByUser(ctx context.Context, userID string) ([]*model.Review, error)

	// ListReviewPage returns up to limit reviews owned by userID, starting
	// strictly after the cursor (nil cursor starts at the newest document).
	// A page shorter than limit means there are no further documents.
	ListReviewPage(ctx context.Context, userID string, after *Cursor, limit int) ([]*model.Review, error)

	// GetReview fetches one review document.
	// Returns ErrNotFound if the document does not exist.
	GetReview(ctx context.Context, id string) (*model.Review, error)

	// CreateReview stores a new review document and returns the id the
	// store assigned to it. The id field of the input is ignored.
	CreateReview(ctx context.Context, r *model.Review) (string, error)

	// SetReview fully replaces the document with the given id.
	SetReview(ctx context.Context, id string, r *model.Review) error

	// UpdateReviewFields applies a partial update to one review document.
	UpdateReviewFields(ctx context.Context, id string, fields ReviewFields) error

	// DeleteReview removes one review document.
	// Deleting an absent document is not an error (idempotent).
	DeleteReview(ctx context.Context, id string) error

	// BatchUpdateAuthorFields applies the author fields to every listed
	// document in one atomic remote batch. The batch either applies to all
	// ids or to none. Returns an error if len(ids) exceeds MaxBatchSize.
	BatchUpdateAuthorFields(ctx context.Context, ids []string, fields AuthorFields) error

	// GetProfile fetches one user profile document.
	// Returns ErrNotFound if the profile does not exist.
	GetProfile(ctx context.Context, uid string) (*model.UserProfile, error)

	// SetProfile fully replaces (or creates) the profile document for uid.
	SetProfile(ctx context.Context, uid string, p *model.UserProfile) error
}
