// Package sync provides the engines that reconcile the remote document
// store with the local cache: the review engine and the profile engine.
//
// The engines are write-through: a mutation goes to the remote store first,
// and the cache is updated only after the remote confirms. A failed remote
// write therefore never leaves a cache entry with no remote backing. Reads
// degrade the other way: a failed refresh leaves the cache untouched and the
// last good data remains visible.
//
// No operation retries on its own. Every failure is reported as an error and
// retrying is the caller's decision (e.g. a user-triggered refresh).
package sync

import (
	"context"
	"io"

	"github.com/movierate/movierate/internal/model"
)

// ReviewSyncer reconciles the remote review collection with the local cache.
type ReviewSyncer interface {
	// RefreshAll fetches every remote review and atomically replaces the
	// entire local review set with the result. On failure the cache is left
	// untouched, so the feed keeps showing the last good data.
	RefreshAll(ctx context.Context) error

	// RefreshForUser fetches the remote reviews owned by userID and merges
	// them into the cache. Reviews owned by other users are not evicted.
	RefreshForUser(ctx context.Context, userID string) error

	// AddReview validates the review, creates it remotely, and caches the
	// stored copy. The returned review carries the remotely assigned id.
	// Validation failures are reported before any remote call is made.
	AddReview(ctx context.Context, r *model.Review) (*model.Review, error)

	// UpdateReview changes the rating and text (and optionally the banner
	// URL) of an existing review, remotely first, then in the cache.
	UpdateReview(ctx context.Context, id string, rating float64, text string, bannerURL *string) error

	// DeleteReview removes the review remotely, then from the cache. If the
	// remote delete fails the cached copy stays visible, which is correct:
	// the review still exists remotely.
	DeleteReview(ctx context.Context, id string) error

	// PropagateAuthorFields updates the denormalized author fields on every
	// review owned by userID, remotely in cursor-ordered pages of at most
	// remote.MaxBatchSize documents (one atomic batch per page), then in
	// the cache. Nil fields are left untouched. Returns the number of
	// remote documents updated.
	//
	// The operation is idempotent: re-running after a partial failure
	// re-applies the same values with no observable difference.
	PropagateAuthorFields(ctx context.Context, userID string, fullName, photoURL *string) (int, error)

	// UploadReviewImage stores a review image under a time-unique key for
	// the user and returns its public URL. The caller attaches the URL to a
	// review; nothing is cached here.
	UploadReviewImage(ctx context.Context, userID string, img io.Reader) (string, error)
}

// ProfileSyncer reconciles a single user's profile document.
type ProfileSyncer interface {
	// RefreshProfile reads the remote profile for uid and caches it. If no
	// profile exists remotely, a default one is synthesized from the
	// authenticated identity, persisted remotely, and then cached; a
	// profile exists as a side effect of its first read.
	RefreshProfile(ctx context.Context, uid string) (*model.UserProfile, error)

	// UpdateProfile validates the name, replaces the remote profile, caches
	// it, and then fans the new author fields out across the user's
	// reviews. A fan-out failure is logged but does not roll back the
	// profile save; the denormalized copies catch up on the next run.
	UpdateProfile(ctx context.Context, uid, fullName string, photoURL *string) (*model.UserProfile, error)

	// UploadProfilePicture stores the picture under the user's
	// deterministic key and returns its URL. It does not update the
	// profile; the caller follows up with UpdateProfile, keeping upload
	// and commit independently retryable.
	UploadProfilePicture(ctx context.Context, uid string, img io.Reader) (string, error)
}

// Identity is the authenticated account on whose behalf the engines run.
// It seeds default profiles; it is injected explicitly rather than read
// from any ambient global.
type Identity struct {
	UID      string
	FullName string
	PhotoURL string
}
