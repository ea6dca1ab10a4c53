package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/movierate/movierate/internal/blob"
	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/remote"
)

// profileSyncer is the concrete ProfileSyncer. It delegates author-field
// fan-out to the review engine after a successful profile save.
type profileSyncer struct {
	store    *cache.Store
	docs     remote.DocStore
	blobs    blob.Uploader
	reviews  ReviewSyncer
	identity Identity
	logger   *log.Logger
}

// NewProfileSyncer creates a profile engine. identity seeds the default
// profile created on first read for the authenticated account.
func NewProfileSyncer(store *cache.Store, docs remote.DocStore, blobs blob.Uploader, reviews ReviewSyncer, identity Identity, logger *log.Logger) ProfileSyncer {
	return &profileSyncer{
		store:    store,
		docs:     docs,
		blobs:    blobs,
		reviews:  reviews,
		identity: identity,
		logger:   logger,
	}
}

func (s *profileSyncer) RefreshProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	if uid == "" {
		return nil, fmt.Errorf("uid is required")
	}

	p, err := s.docs.GetProfile(ctx, uid)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		p = s.defaultProfile(uid)
		if err := s.docs.SetProfile(ctx, uid, p); err != nil {
			return nil, fmt.Errorf("failed to create default profile for %s: %w", uid, err)
		}
		s.logger.Printf("[sync] created default profile for %s", uid)
	case err != nil:
		return nil, fmt.Errorf("failed to fetch profile %s: %w", uid, err)
	default:
		p.UID = uid
	}

	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to cache profile %s: %w", uid, err)
	}
	return p, nil
}

// defaultProfile synthesizes the profile persisted on first read. Identity
// fields apply only to the authenticated account itself.
func (s *profileSyncer) defaultProfile(uid string) *model.UserProfile {
	p := &model.UserProfile{UID: uid, UpdatedAt: model.NowMillis()}
	if uid == s.identity.UID {
		p.FullName = s.identity.FullName
		p.PhotoURL = s.identity.PhotoURL
	}
	return p
}

func (s *profileSyncer) UpdateProfile(ctx context.Context, uid, fullName string, photoURL *string) (*model.UserProfile, error) {
	if uid == "" {
		return nil, fmt.Errorf("uid is required")
	}
	if err := model.ValidateName(fullName); err != nil {
		return nil, err
	}

	photo, err := s.resolvePhoto(ctx, uid, photoURL)
	if err != nil {
		return nil, err
	}

	p := &model.UserProfile{
		UID:       uid,
		FullName:  fullName,
		PhotoURL:  photo,
		UpdatedAt: model.NowMillis(),
	}
	if err := s.docs.SetProfile(ctx, uid, p); err != nil {
		return nil, fmt.Errorf("failed to save profile %s: %w", uid, err)
	}
	if err := s.store.UpsertProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("profile %s saved but not cached: %w", uid, err)
	}

	// The profile save is committed. Fan-out failure leaves stale
	// denormalized copies behind; the next successful update repairs them.
	if _, err := s.reviews.PropagateAuthorFields(ctx, uid, &fullName, &photo); err != nil {
		s.logger.Printf("[sync] warning: author fan-out for %s failed: %v", uid, err)
	}

	return p, nil
}

// resolvePhoto returns the photo URL to persist: the caller's value when
// supplied, otherwise the current one, so a name-only edit never clears the
// picture.
func (s *profileSyncer) resolvePhoto(ctx context.Context, uid string, photoURL *string) (string, error) {
	if photoURL != nil {
		return *photoURL, nil
	}

	cur, err := s.docs.GetProfile(ctx, uid)
	switch {
	case errors.Is(err, remote.ErrNotFound):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("failed to fetch current profile %s: %w", uid, err)
	}
	return cur.PhotoURL, nil
}

func (s *profileSyncer) UploadProfilePicture(ctx context.Context, uid string, img io.Reader) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	if uid == "" {
		return "", fmt.Errorf("uid is required")
	}

	key := blob.ProfilePictureKey(uid)
	url, err := s.blobs.Upload(ctx, img, key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload profile picture: %w", err)
	}
	return url, nil
}
