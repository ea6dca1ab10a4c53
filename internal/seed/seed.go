// Package seed populates the remote review collection with sample data for
// demos and development. Seeds come from a built-in sample set or from a
// YAML file.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/movierate/movierate/internal/model"
	"github.com/movierate/movierate/internal/remote"
)

const day = int64(24 * 60 * 60 * 1000)
const hour = int64(60 * 60 * 1000)

// SampleReviews returns the built-in demo review set. Timestamps are spread
// over the week before now so the feed looks lived-in.
func SampleReviews() []*model.Review {
	now := model.NowMillis()
	return []*model.Review{
		{
			MovieTitle:     "The Shawshank Redemption",
			MovieBannerURL: "https://image.tmdb.org/t/p/w780/kXfqcdQKsToO0OUXHcrrNCHDBzO.jpg",
			MovieGenre:     "Drama",
			Rating:         5,
			ReviewText:     "A timeless masterpiece about hope and perseverance. The performances by Tim Robbins and Morgan Freeman are absolutely incredible.",
			UserID:         "user1",
			UserFullName:   "John Smith",
			Timestamp:      now - 7*day,
		},
		{
			MovieTitle:     "The Dark Knight",
			MovieBannerURL: "https://image.tmdb.org/t/p/w780/nMKdUUepR0i5zn0y1T4CsSB5chy.jpg",
			MovieGenre:     "Action",
			Rating:         4.5,
			ReviewText:     "Heath Ledger's Joker is legendary. Christopher Nolan crafted the perfect superhero film that transcends the genre.",
			UserID:         "user2",
			UserFullName:   "Emily Johnson",
			Timestamp:      now - 5*day,
		},
		{
			MovieTitle:     "Inception",
			MovieBannerURL: "https://image.tmdb.org/t/p/w780/8ZTVqvKDQ8emSGUEMjsS4yHAwrp.jpg",
			MovieGenre:     "Sci-Fi",
			Rating:         4.5,
			ReviewText:     "Mind-bending and visually stunning. Nolan outdid himself with this complex yet accessible thriller.",
			UserID:         "user3",
			UserFullName:   "Michael Brown",
			Timestamp:      now - 3*day,
		},
		{
			MovieTitle:     "Pulp Fiction",
			MovieBannerURL: "https://image.tmdb.org/t/p/w780/suaEOtk1N1sgg2MTM7oZd2cfVp3.jpg",
			MovieGenre:     "Crime",
			Rating:         4,
			ReviewText:     "Tarantino's dialogue is unmatched. The non-linear storytelling keeps you engaged throughout.",
			UserID:         "user4",
			UserFullName:   "Sarah Davis",
			Timestamp:      now - 2*day,
		},
		{
			MovieTitle:     "Interstellar",
			MovieBannerURL: "https://image.tmdb.org/t/p/w780/xJHokMbljvjADYdit5fK5VQsXEG.jpg",
			MovieGenre:     "Sci-Fi",
			Rating:         5,
			ReviewText:     "An emotional journey through space and time. The docking scene still gives me chills. Hans Zimmer's score is phenomenal.",
			UserID:         "user5",
			UserFullName:   "David Wilson",
			Timestamp:      now - day,
		},
		{
			MovieTitle:     "The Matrix",
			MovieBannerURL: "https://image.tmdb.org/t/p/w780/fNG7i7RqMErkcqhohV2a6cV1Ehy.jpg",
			MovieGenre:     "Sci-Fi",
			Rating:         4.5,
			ReviewText:     "Revolutionary in every sense. The action sequences and philosophical themes still hold up after all these years.",
			UserID:         "user6",
			UserFullName:   "Jessica Martinez",
			Timestamp:      now - 12*hour,
		},
		{
			MovieTitle:     "Forrest Gump",
			MovieBannerURL: "https://image.tmdb.org/t/p/w780/7c9UVPPiTPltouxRVY6N9uugaVA.jpg",
			MovieGenre:     "Drama",
			Rating:         4,
			ReviewText:     "Tom Hanks delivers one of his best performances. A heartwarming story that spans decades of American history.",
			UserID:         "user7",
			UserFullName:   "Robert Taylor",
			Timestamp:      now - 6*hour,
		},
		{
			MovieTitle:     "Gladiator",
			MovieBannerURL: "https://image.tmdb.org/t/p/w780/hND7xAwpEhEXnWjFHGS1VY80Rh8.jpg",
			MovieGenre:     "Action",
			Rating:         4.5,
			ReviewText:     "Russell Crowe is magnificent as Maximus. The battle scenes are epic and the story is deeply moving.",
			UserID:         "user8",
			UserFullName:   "Amanda White",
			Timestamp:      now - 3*hour,
		},
	}
}

// FromYAML reads a YAML seed file holding a list of reviews.
func FromYAML(path string) ([]*model.Review, error) {
	// #nosec G304 - controlled path from CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var doc struct {
		Reviews []*model.Review `yaml:"reviews"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(doc.Reviews) == 0 {
		return nil, fmt.Errorf("seed file contains no reviews")
	}
	return doc.Reviews, nil
}

// Result contains statistics about a seeding run.
type Result struct {
	Created int
	Skipped int
	Errors  []string
}

// Run creates the given reviews in the remote store. Each review gets a
// remotely assigned id; invalid reviews are skipped and reported.
func Run(ctx context.Context, docs remote.DocStore, reviews []*model.Review) (*Result, error) {
	result := &Result{}

	for i, r := range reviews {
		r.SetDefaults()
		if err := r.ValidateForSubmit(); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("skipping seed %d: %v", i, err))
			continue
		}
		if r.UserID == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("skipping seed %d: owner is required", i))
			continue
		}

		id, err := docs.CreateReview(ctx, r)
		if err != nil {
			return result, fmt.Errorf("failed to create seed review %q: %w", r.MovieTitle, err)
		}
		r.ID = id
		result.Created++
	}

	return result, nil
}
