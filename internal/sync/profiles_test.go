package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/remote"
)

func newProfileSyncer(t *testing.T, mem remote.DocStore, identity Identity) (ProfileSyncer, *cache.Store) {
	t.Helper()
	store := testStore(t)
	logger := testLogger(t)
	reviews := NewReviewSyncer(store, mem, nil, logger)
	return NewProfileSyncer(store, mem, nil, reviews, identity, logger), store
}

func TestRefreshProfile_CachesRemoteCopy(t *testing.T) {
	mem := remote.NewMemStore()
	ctx := context.Background()

	want := &model.UserProfile{UID: "u1", FullName: "Emily Johnson", PhotoURL: "https://cdn.example.com/p/u1.jpg", UpdatedAt: 7}
	if err := mem.SetProfile(ctx, "u1", want); err != nil {
		t.Fatalf("SetProfile() failed: %v", err)
	}

	syncer, store := newProfileSyncer(t, mem, Identity{UID: "u1"})
	got, err := syncer.RefreshProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("RefreshProfile() failed: %v", err)
	}
	if got.FullName != "Emily Johnson" {
		t.Errorf("FullName = %q", got.FullName)
	}

	cached, err := store.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("cache GetProfile() failed: %v", err)
	}
	if cached.FullName != "Emily Johnson" || cached.PhotoURL != want.PhotoURL {
		t.Errorf("cached profile = %+v", cached)
	}
}

func TestRefreshProfile_CreatesDefaultFromIdentity(t *testing.T) {
	mem := remote.NewMemStore()
	ctx := context.Background()

	identity := Identity{UID: "u1", FullName: "Sarah Davis", PhotoURL: "https://cdn.example.com/p/sarah.jpg"}
	syncer, store := newProfileSyncer(t, mem, identity)

	got, err := syncer.RefreshProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("RefreshProfile() failed: %v", err)
	}
	if got.FullName != "Sarah Davis" || got.PhotoURL != identity.PhotoURL {
		t.Errorf("default profile = %+v", got)
	}
	if got.UpdatedAt == 0 {
		t.Error("default profile has zero UpdatedAt")
	}

	// The default must exist remotely, not just in the cache.
	rem, err := mem.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("remote GetProfile() after first read failed: %v", err)
	}
	if rem.FullName != "Sarah Davis" {
		t.Errorf("remote default profile = %+v", rem)
	}
	if _, err := store.GetProfile(ctx, "u1"); err != nil {
		t.Errorf("default profile not cached: %v", err)
	}
}

func TestRefreshProfile_ForeignUserGetsEmptyDefault(t *testing.T) {
	mem := remote.NewMemStore()
	ctx := context.Background()

	syncer, _ := newProfileSyncer(t, mem, Identity{UID: "me", FullName: "Sarah Davis"})
	got, err := syncer.RefreshProfile(ctx, "someone-else")
	if err != nil {
		t.Fatalf("RefreshProfile() failed: %v", err)
	}
	if got.FullName != "" || got.PhotoURL != "" {
		t.Errorf("foreign default carries identity fields: %+v", got)
	}
}

func TestUpdateProfile_SavesAndFansOut(t *testing.T) {
	mem := remote.NewMemStore()
	ctx := context.Background()

	seedRemote(t, mem, "u1", 3)
	seedRemote(t, mem, "u2", 1)

	syncer, store := newProfileSyncer(t, mem, Identity{UID: "u1"})
	photo := "https://cdn.example.com/p/new.jpg"
	got, err := syncer.UpdateProfile(ctx, "u1", "Renamed User", &photo)
	if err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	if got.FullName != "Renamed User" || got.PhotoURL != photo {
		t.Errorf("saved profile = %+v", got)
	}

	rem, err := mem.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("remote GetProfile() failed: %v", err)
	}
	if rem.FullName != "Renamed User" {
		t.Errorf("remote profile = %+v", rem)
	}
	if cached, err := store.GetProfile(ctx, "u1"); err != nil || cached.FullName != "Renamed User" {
		t.Errorf("cached profile = %+v, err = %v", cached, err)
	}

	// Denormalized copies on the user's reviews follow the save.
	mine, _ := mem.ListReviewsByUser(ctx, "u1")
	for _, r := range mine {
		if r.UserFullName != "Renamed User" || r.UserProfilePictureURL != photo {
			t.Errorf("review %s not fanned out: %+v", r.ID, r)
		}
	}
	theirs, _ := mem.ListReviewsByUser(ctx, "u2")
	for _, r := range theirs {
		if r.UserFullName != "Original Name" {
			t.Errorf("foreign review mutated: %+v", r)
		}
	}
}

func TestUpdateProfile_RejectsBlankName(t *testing.T) {
	mem := remote.NewMemStore()
	syncer, _ := newProfileSyncer(t, mem, Identity{UID: "u1"})

	if _, err := syncer.UpdateProfile(context.Background(), "u1", "   ", nil); err == nil {
		t.Error("blank name accepted")
	}
	if _, err := mem.GetProfile(context.Background(), "u1"); err == nil {
		t.Error("rejected update reached the remote store")
	}
}

func TestUpdateProfile_NilPhotoKeepsExisting(t *testing.T) {
	mem := remote.NewMemStore()
	ctx := context.Background()

	existing := &model.UserProfile{UID: "u1", FullName: "Old Name", PhotoURL: "https://cdn.example.com/p/keep.jpg", UpdatedAt: 1}
	if err := mem.SetProfile(ctx, "u1", existing); err != nil {
		t.Fatalf("SetProfile() failed: %v", err)
	}

	syncer, _ := newProfileSyncer(t, mem, Identity{UID: "u1"})
	got, err := syncer.UpdateProfile(ctx, "u1", "New Name", nil)
	if err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	if got.PhotoURL != existing.PhotoURL {
		t.Errorf("name-only edit changed photo: %q", got.PhotoURL)
	}
}

func TestUpdateProfile_FanOutFailureDoesNotRollBack(t *testing.T) {
	mem := remote.NewMemStore()
	flaky := &failingStore{MemStore: mem}
	ctx := context.Background()

	seedRemote(t, mem, "u1", 2)

	store := testStore(t)
	logger := testLogger(t)
	reviews := NewReviewSyncer(store, flaky, nil, logger)
	syncer := NewProfileSyncer(store, flaky, nil, reviews, Identity{UID: "u1"}, logger)

	flaky.failBatch = true
	got, err := syncer.UpdateProfile(ctx, "u1", "Renamed User", nil)
	if err != nil {
		t.Fatalf("UpdateProfile() failed despite fan-out-only failure: %v", err)
	}
	if got.FullName != "Renamed User" {
		t.Errorf("saved profile = %+v", got)
	}

	// The profile save held even though the fan-out did not.
	rem, err := mem.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("remote GetProfile() failed: %v", err)
	}
	if rem.FullName != "Renamed User" {
		t.Errorf("remote profile rolled back: %+v", rem)
	}
	mine, _ := mem.ListReviewsByUser(ctx, "u1")
	for _, r := range mine {
		if r.UserFullName != "Original Name" {
			t.Errorf("review %s changed despite failed batch: %+v", r.ID, r)
		}
	}
}

func TestUploadProfilePicture_DeterministicKey(t *testing.T) {
	store := testStore(t)
	up := &fakeUploader{}
	logger := testLogger(t)
	mem := remote.NewMemStore()
	reviews := NewReviewSyncer(store, mem, nil, logger)
	syncer := NewProfileSyncer(store, mem, up, reviews, Identity{UID: "u1"}, logger)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := syncer.UploadProfilePicture(ctx, "u1", strings.NewReader("jpeg-bytes")); err != nil {
			t.Fatalf("UploadProfilePicture() failed: %v", err)
		}
	}
	if len(up.keys) != 2 || up.keys[0] != "profile_pictures/u1.jpg" || up.keys[0] != up.keys[1] {
		t.Errorf("upload keys = %v, want the same deterministic key twice", up.keys)
	}
}
