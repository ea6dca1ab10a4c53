// Package model provides the data records shared by the cache, the remote
// document store client, and the sync engines.
//
// Review and UserProfile are flat, JSON-tagged records persisted verbatim on
// the wire. The author fields on Review (userFullName, userProfilePictureUrl)
// are denormalized snapshots of the author's profile taken at write time;
// they drift from the canonical UserProfile until a fan-out update runs.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for struct-tag checks.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Review represents one movie review document.
//
// ID is assigned by the remote store on creation and is empty only for a
// review that has not been persisted yet. Timestamp is the creation instant
// in epoch milliseconds.
type Review struct {
	ID                    string  `json:"id" yaml:"id"`
	MovieTitle            string  `json:"movieTitle" yaml:"movieTitle" validate:"required"`
	MovieBannerURL        string  `json:"movieBannerUrl" yaml:"movieBannerUrl"`
	MovieGenre            string  `json:"movieGenre" yaml:"movieGenre"`
	MovieTmdbID           int64   `json:"movieTmdbId,omitempty" yaml:"movieTmdbId,omitempty"`
	Rating                float64 `json:"rating" yaml:"rating" validate:"gt=0,lte=5"`
	ReviewText            string  `json:"reviewText" yaml:"reviewText" validate:"required"`
	UserID                string  `json:"userId" yaml:"userId"`
	UserFullName          string  `json:"userFullName" yaml:"userFullName"`
	UserProfilePictureURL string  `json:"userProfilePictureUrl" yaml:"userProfilePictureUrl"`
	Timestamp             int64   `json:"timestamp" yaml:"timestamp"`
}

// UserProfile represents one user profile document, keyed by the owning
// account id. Exactly one profile exists per account.
type UserProfile struct {
	UID       string `json:"uid" validate:"required"`
	FullName  string `json:"fullName"`
	PhotoURL  string `json:"photoUrl"`
	UpdatedAt int64  `json:"updatedAt"`
}

// NowMillis returns the current time in epoch milliseconds, the unit used
// for Review.Timestamp and UserProfile.UpdatedAt.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// MillisToTime converts an epoch-milliseconds timestamp back to time.Time.
func MillisToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// ValidateForSubmit checks the fields a user supplies before any remote call
// is made. A zero rating, blank review text, or blank movie title must never
// reach the remote store.
func (r *Review) ValidateForSubmit() error {
	if strings.TrimSpace(r.MovieTitle) == "" {
		return fmt.Errorf("movie title is required")
	}
	if strings.TrimSpace(r.ReviewText) == "" {
		return fmt.Errorf("review text is required")
	}
	if r.Rating <= 0 {
		return fmt.Errorf("rating is required")
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid review: %w", err)
	}
	if !validHalfStep(r.Rating) {
		return fmt.Errorf("rating must be in 0.5 steps (got %v)", r.Rating)
	}
	return nil
}

// Validate checks a fully persisted review record. In addition to the
// submission rules, a persisted record must carry its remote document id
// and its owner.
func (r *Review) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.UserID == "" {
		return fmt.Errorf("userId is required")
	}
	return r.ValidateForSubmit()
}

// SetDefaults fills optional fields that may be omitted on submission.
func (r *Review) SetDefaults() {
	if r.Timestamp == 0 {
		r.Timestamp = NowMillis()
	}
}

// ValidateEdit checks the fields a user may change on an existing review.
func ValidateEdit(rating float64, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("review text is required")
	}
	if rating <= 0 || rating > 5 {
		return fmt.Errorf("rating must be between 0.5 and 5 (got %v)", rating)
	}
	if !validHalfStep(rating) {
		return fmt.Errorf("rating must be in 0.5 steps (got %v)", rating)
	}
	return nil
}

// Validate checks a profile record.
func (p *UserProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

// ValidateName checks the user-supplied full name before a profile save.
func ValidateName(fullName string) error {
	if strings.TrimSpace(fullName) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// validHalfStep reports whether v lands exactly on a 0.5 increment.
func validHalfStep(v float64) bool {
	scaled := v * 2
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
}
