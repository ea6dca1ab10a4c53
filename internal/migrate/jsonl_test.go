package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/remote"
)

func testStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open cache: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func cachedReview(i int, userID string) *model.Review {
	return &model.Review{
		ID:         fmt.Sprintf("rev-%d", i),
		MovieTitle: fmt.Sprintf("Movie %d", i),
		Rating:     3.5,
		ReviewText: "text",
		UserID:     userID,
		Timestamp:  int64(1000 + i),
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.UpsertReview(ctx, cachedReview(i, "u1")); err != nil {
			t.Fatalf("UpsertReview() failed: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "reviews.jsonl")
	exported, err := Export(ctx, store, ExportOptions{ToJSONL: path})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if exported.ReviewsWritten != 5 {
		t.Errorf("ReviewsWritten = %d, want 5", exported.ReviewsWritten)
	}

	mem := remote.NewMemStore()
	imported, err := Import(ctx, mem, ImportOptions{FromJSONL: path})
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if imported.ReviewsImported != 5 || imported.Skipped != 0 {
		t.Errorf("result = %+v", imported)
	}

	// Document ids survive the round trip.
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("rev-%d", i)
		r, err := mem.GetReview(ctx, id)
		if err != nil {
			t.Fatalf("GetReview(%s) failed: %v", id, err)
		}
		if r.MovieTitle != fmt.Sprintf("Movie %d", i) {
			t.Errorf("review %s = %+v", id, r)
		}
	}
}

func TestExport_FiltersByUser(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.UpsertReview(ctx, cachedReview(1, "u1")); err != nil {
		t.Fatalf("UpsertReview() failed: %v", err)
	}
	if err := store.UpsertReview(ctx, cachedReview(2, "u2")); err != nil {
		t.Fatalf("UpsertReview() failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "mine.jsonl")
	result, err := Export(ctx, store, ExportOptions{ToJSONL: path, UserID: "u1"})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if result.ReviewsWritten != 1 {
		t.Errorf("ReviewsWritten = %d, want 1", result.ReviewsWritten)
	}

	reviews, err := FromJSONL(path)
	if err != nil {
		t.Fatalf("FromJSONL() failed: %v", err)
	}
	if len(reviews) != 1 || reviews[0].UserID != "u1" {
		t.Errorf("exported reviews = %+v", reviews)
	}
}

func TestImport_SkipsInvalidAndDuplicates(t *testing.T) {
	lines := []string{
		`{"id":"rev-1","movieTitle":"Good","rating":4,"reviewText":"t","userId":"u1","timestamp":1}`,
		`{"id":"","movieTitle":"No ID","rating":4,"reviewText":"t","userId":"u1","timestamp":2}`,
		`{"id":"rev-1","movieTitle":"Duplicate","rating":4,"reviewText":"t","userId":"u1","timestamp":3}`,
		`{"id":"rev-2","movieTitle":"Bad Rating","rating":9,"reviewText":"t","userId":"u1","timestamp":4}`,
	}
	path := filepath.Join(t.TempDir(), "mixed.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	mem := remote.NewMemStore()
	result, err := Import(context.Background(), mem, ImportOptions{FromJSONL: path})
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if result.ReviewsImported != 1 {
		t.Errorf("ReviewsImported = %d, want 1", result.ReviewsImported)
	}
	if result.Skipped != 3 || len(result.Errors) != 3 {
		t.Errorf("Skipped = %d, Errors = %v", result.Skipped, result.Errors)
	}
	if mem.ReviewCount() != 1 {
		t.Errorf("remote reviews = %d, want 1", mem.ReviewCount())
	}
}

func TestImport_DryRunWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.jsonl")
	line := `{"id":"rev-1","movieTitle":"Good","rating":4,"reviewText":"t","userId":"u1","timestamp":1}`
	if err := os.WriteFile(path, []byte(line+"\n"), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	mem := remote.NewMemStore()
	result, err := Import(context.Background(), mem, ImportOptions{FromJSONL: path, DryRun: true})
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if result.ReviewsImported != 1 {
		t.Errorf("ReviewsImported = %d, want 1 (counted, not written)", result.ReviewsImported)
	}
	if mem.ReviewCount() != 0 {
		t.Errorf("remote reviews = %d, want 0 on dry run", mem.ReviewCount())
	}
}

func TestImport_BackupCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.jsonl")
	line := `{"id":"rev-1","movieTitle":"Good","rating":4,"reviewText":"t","userId":"u1","timestamp":1}`
	if err := os.WriteFile(path, []byte(line+"\n"), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	result, err := Import(context.Background(), remote.NewMemStore(), ImportOptions{FromJSONL: path, Backup: true})
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if result.BackupCreated == "" {
		t.Fatal("no backup path recorded")
	}
	if _, err := os.Stat(result.BackupCreated); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestExport_EmptyCacheWritesEmptyFile(t *testing.T) {
	store := testStore(t)
	path := filepath.Join(t.TempDir(), "empty.jsonl")

	result, err := Export(context.Background(), store, ExportOptions{ToJSONL: path})
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if result.ReviewsWritten != 0 {
		t.Errorf("ReviewsWritten = %d, want 0", result.ReviewsWritten)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("file contents = %q, want empty", data)
	}
}
