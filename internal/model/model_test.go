package model

import (
	"strings"
	"testing"
)

func validReview() *Review {
	return &Review{
		ID:           "rev-1",
		MovieTitle:   "The Matrix",
		MovieGenre:   "Science Fiction",
		Rating:       4.5,
		ReviewText:   "Revolutionary in every sense.",
		UserID:       "user-1",
		UserFullName: "Jessica Martinez",
		Timestamp:    1700000000000,
	}
}

func TestValidateForSubmit_Valid(t *testing.T) {
	r := validReview()
	if err := r.ValidateForSubmit(); err != nil {
		t.Fatalf("ValidateForSubmit() failed: %v", err)
	}
}

func TestValidateForSubmit_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Review)
		want   string
	}{
		{"blank title", func(r *Review) { r.MovieTitle = "  " }, "movie title"},
		{"blank text", func(r *Review) { r.ReviewText = "" }, "review text"},
		{"zero rating", func(r *Review) { r.Rating = 0 }, "rating"},
		{"negative rating", func(r *Review) { r.Rating = -1 }, "rating"},
		{"rating above five", func(r *Review) { r.Rating = 5.5 }, "invalid review"},
		{"off-step rating", func(r *Review) { r.Rating = 3.7 }, "0.5 steps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReview()
			tt.mutate(r)
			err := r.ValidateForSubmit()
			if err == nil {
				t.Fatal("ValidateForSubmit() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestValidate_RequiresIDAndOwner(t *testing.T) {
	r := validReview()
	r.ID = ""
	if err := r.Validate(); err == nil {
		t.Error("Validate() accepted empty id")
	}

	r = validReview()
	r.UserID = ""
	if err := r.Validate(); err == nil {
		t.Error("Validate() accepted empty userId")
	}
}

func TestSetDefaults_Timestamp(t *testing.T) {
	r := &Review{}
	r.SetDefaults()
	if r.Timestamp == 0 {
		t.Error("SetDefaults() left timestamp zero")
	}

	r = &Review{Timestamp: 42}
	r.SetDefaults()
	if r.Timestamp != 42 {
		t.Errorf("SetDefaults() overwrote timestamp: got %d, want 42", r.Timestamp)
	}
}

func TestHalfStepRatings(t *testing.T) {
	for _, v := range []float64{0.5, 1, 2.5, 5} {
		r := validReview()
		r.Rating = v
		if err := r.ValidateForSubmit(); err != nil {
			t.Errorf("rating %v rejected: %v", v, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("  "); err == nil {
		t.Error("ValidateName accepted blank name")
	}
	if err := ValidateName("Amanda White"); err != nil {
		t.Errorf("ValidateName rejected valid name: %v", err)
	}
}
