package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/remote"
)

func TestSampleReviews_AllValid(t *testing.T) {
	samples := SampleReviews()
	if len(samples) != 8 {
		t.Fatalf("samples = %d, want 8", len(samples))
	}

	for _, r := range samples {
		if err := r.ValidateForSubmit(); err != nil {
			t.Errorf("sample %q invalid: %v", r.MovieTitle, err)
		}
		if r.UserID == "" || r.UserFullName == "" {
			t.Errorf("sample %q missing author fields", r.MovieTitle)
		}
	}
}

func TestRun_CreatesAllSamples(t *testing.T) {
	mem := remote.NewMemStore()
	samples := SampleReviews()

	result, err := Run(context.Background(), mem, samples)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if result.Created != len(samples) || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
	if mem.ReviewCount() != len(samples) {
		t.Errorf("remote reviews = %d, want %d", mem.ReviewCount(), len(samples))
	}

	// Every seed got a remote id assigned.
	for _, r := range samples {
		if r.ID == "" {
			t.Errorf("seed %q has no id", r.MovieTitle)
		}
	}
}

func TestRun_SkipsInvalidSeeds(t *testing.T) {
	mem := remote.NewMemStore()
	reviews := []*model.Review{
		{MovieTitle: "Good", Rating: 4, ReviewText: "t", UserID: "u1"},
		{MovieTitle: "", Rating: 4, ReviewText: "t", UserID: "u1"},
		{MovieTitle: "No Owner", Rating: 4, ReviewText: "t"},
	}

	result, err := Run(context.Background(), mem, reviews)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if result.Created != 1 || result.Skipped != 2 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Errorf("Errors = %v", result.Errors)
	}
}

func TestFromYAML(t *testing.T) {
	doc := `reviews:
  - movieTitle: "Blade Runner"
    movieGenre: "Sci-Fi"
    rating: 4.5
    reviewText: "Atmosphere over everything."
    userId: "user1"
    userFullName: "John Smith"
  - movieTitle: "Casablanca"
    rating: 5
    reviewText: "Here's looking at you, kid."
    userId: "user2"
    userFullName: "Emily Johnson"
`
	path := filepath.Join(t.TempDir(), "seeds.yaml")
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	reviews, err := FromYAML(path)
	if err != nil {
		t.Fatalf("FromYAML() failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("reviews = %d, want 2", len(reviews))
	}
	if reviews[0].MovieTitle != "Blade Runner" || reviews[0].Rating != 4.5 {
		t.Errorf("first review = %+v", reviews[0])
	}
}

func TestFromYAML_EmptyFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("reviews: []\n"), 0600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if _, err := FromYAML(path); err == nil {
		t.Error("empty seed file accepted")
	}
}
