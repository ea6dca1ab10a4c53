package remote

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/movierate/movierate/internal/model"
)

func seedMemStore(t *testing.T, m *MemStore, userID string, n int) []string {
	t.Helper()
	ctx := context.Background()

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := m.CreateReview(ctx, &model.Review{
			MovieTitle:   fmt.Sprintf("Movie %d", i),
			Rating:       3.5,
			ReviewText:   "text",
			UserID:       userID,
			UserFullName: "Original Name",
			Timestamp:    int64(1000 + i),
		})
		if err != nil {
			t.Fatalf("CreateReview() failed: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestMemStore_CreateAssignsID(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	id, err := m.CreateReview(ctx, &model.Review{MovieTitle: "Inception", Rating: 4.5, ReviewText: "t", UserID: "u1", Timestamp: 1})
	if err != nil {
		t.Fatalf("CreateReview() failed: %v", err)
	}
	if id == "" {
		t.Fatal("CreateReview() assigned empty id")
	}

	got, err := m.GetReview(ctx, id)
	if err != nil {
		t.Fatalf("GetReview() failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("stored id = %q, want %q", got.ID, id)
	}
}

func TestMemStore_ListOrdering(t *testing.T) {
	m := NewMemStore()
	seedMemStore(t, m, "u1", 5)

	all, err := m.ListReviews(context.Background())
	if err != nil {
		t.Fatalf("ListReviews() failed: %v", err)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Timestamp < all[i].Timestamp {
			t.Fatalf("not sorted newest first at %d: %d < %d", i, all[i-1].Timestamp, all[i].Timestamp)
		}
	}
}

func TestMemStore_ListByUserFilters(t *testing.T) {
	m := NewMemStore()
	seedMemStore(t, m, "u1", 3)
	seedMemStore(t, m, "u2", 2)

	mine, err := m.ListReviewsByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListReviewsByUser() failed: %v", err)
	}
	if len(mine) != 3 {
		t.Errorf("len = %d, want 3", len(mine))
	}
	for _, r := range mine {
		if r.UserID != "u1" {
			t.Errorf("foreign review in result: %+v", r)
		}
	}
}

func TestMemStore_PaginationWalksAllDocuments(t *testing.T) {
	m := NewMemStore()
	seedMemStore(t, m, "u1", 23)
	ctx := context.Background()

	seen := make(map[string]bool)
	var cursor *Cursor
	pages := 0
	for {
		page, err := m.ListReviewPage(ctx, "u1", cursor, 10)
		if err != nil {
			t.Fatalf("ListReviewPage() failed: %v", err)
		}
		pages++
		for _, r := range page {
			if seen[r.ID] {
				t.Fatalf("document %s returned twice", r.ID)
			}
			seen[r.ID] = true
		}
		if len(page) < 10 {
			break
		}
		last := page[len(page)-1]
		cursor = &Cursor{Timestamp: last.Timestamp, ID: last.ID}
	}

	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
	if len(seen) != 23 {
		t.Errorf("documents walked = %d, want 23", len(seen))
	}
}

func TestMemStore_PaginationWithTimestampTies(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	// All documents share one timestamp; pagination must still terminate
	// and visit each exactly once via the id tiebreak.
	for i := 0; i < 7; i++ {
		_, err := m.CreateReview(ctx, &model.Review{
			MovieTitle: "Same Instant", Rating: 3, ReviewText: "t",
			UserID: "u1", Timestamp: 42,
		})
		if err != nil {
			t.Fatalf("CreateReview() failed: %v", err)
		}
	}

	seen := make(map[string]bool)
	var cursor *Cursor
	for {
		page, err := m.ListReviewPage(ctx, "u1", cursor, 3)
		if err != nil {
			t.Fatalf("ListReviewPage() failed: %v", err)
		}
		for _, r := range page {
			if seen[r.ID] {
				t.Fatalf("document %s returned twice", r.ID)
			}
			seen[r.ID] = true
		}
		if len(page) < 3 {
			break
		}
		last := page[len(page)-1]
		cursor = &Cursor{Timestamp: last.Timestamp, ID: last.ID}
	}

	if len(seen) != 7 {
		t.Errorf("documents walked = %d, want 7", len(seen))
	}
}

func TestMemStore_BatchUpdateAuthorFields(t *testing.T) {
	m := NewMemStore()
	ids := seedMemStore(t, m, "u1", 4)
	ctx := context.Background()

	name := "New Name"
	if err := m.BatchUpdateAuthorFields(ctx, ids, AuthorFields{FullName: &name}); err != nil {
		t.Fatalf("BatchUpdateAuthorFields() failed: %v", err)
	}

	for _, id := range ids {
		r, err := m.GetReview(ctx, id)
		if err != nil {
			t.Fatalf("GetReview() failed: %v", err)
		}
		if r.UserFullName != "New Name" {
			t.Errorf("review %s name = %q, want %q", id, r.UserFullName, "New Name")
		}
	}
}

func TestMemStore_BatchRejectsOversize(t *testing.T) {
	m := NewMemStore()
	ids := make([]string, MaxBatchSize+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}

	name := "n"
	if err := m.BatchUpdateAuthorFields(context.Background(), ids, AuthorFields{FullName: &name}); err == nil {
		t.Error("batch over the document limit accepted")
	}
}

func TestMemStore_BatchIsAtomic(t *testing.T) {
	m := NewMemStore()
	ids := seedMemStore(t, m, "u1", 3)
	ctx := context.Background()

	name := "New Name"
	bad := append(append([]string{}, ids...), "missing-id")
	if err := m.BatchUpdateAuthorFields(ctx, bad, AuthorFields{FullName: &name}); err == nil {
		t.Fatal("batch with unknown id accepted")
	}

	// No document may have changed.
	for _, id := range ids {
		r, _ := m.GetReview(ctx, id)
		if r.UserFullName != "Original Name" {
			t.Errorf("review %s mutated by failed batch: %q", id, r.UserFullName)
		}
	}
}

func TestMemStore_DeleteIdempotent(t *testing.T) {
	m := NewMemStore()
	ids := seedMemStore(t, m, "u1", 1)
	ctx := context.Background()

	if err := m.DeleteReview(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteReview() failed: %v", err)
	}
	if err := m.DeleteReview(ctx, ids[0]); err != nil {
		t.Errorf("second DeleteReview() failed: %v", err)
	}
	if _, err := m.GetReview(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReview() after delete = %v, want ErrNotFound", err)
	}
}

func TestMemStore_Profiles(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	if _, err := m.GetProfile(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetProfile() on empty store = %v, want ErrNotFound", err)
	}

	p := &model.UserProfile{UID: "u1", FullName: "Emily Johnson", UpdatedAt: 7}
	if err := m.SetProfile(ctx, "u1", p); err != nil {
		t.Fatalf("SetProfile() failed: %v", err)
	}

	got, err := m.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if got.FullName != "Emily Johnson" {
		t.Errorf("FullName = %q, want Emily Johnson", got.FullName)
	}
}
