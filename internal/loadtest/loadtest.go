// Package loadtest provides load testing utilities for the review cache.
//
// This package simulates concurrent feed readers to validate that the cache
// can serve many simultaneous feed queries with low latency while writes
// are in flight.
package loadtest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/model"
)

// TestCache represents a populated review cache for load testing.
type TestCache struct {
	Store        *cache.Store
	ReviewIDs    []string
	UserIDs      []string
	TotalReviews int
}

// LatencyStats captures performance metrics from load tests.
type LatencyStats struct {
	Min          time.Duration
	Max          time.Duration
	Mean         time.Duration
	P50          time.Duration // Median
	P95          time.Duration
	P99          time.Duration
	TotalQueries int
	Errors       int
	Durations    []time.Duration
}

// CreateTestCache creates a cache populated with numReviews reviews spread
// across numUsers authors, with staggered timestamps so the feed ordering
// is exercised.
func CreateTestCache(dbPath string, numReviews, numUsers int) (*TestCache, error) {
	store, err := cache.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	tc := &TestCache{
		Store:        store,
		ReviewIDs:    make([]string, 0, numReviews),
		UserIDs:      make([]string, 0, numUsers),
		TotalReviews: numReviews,
	}
	for u := 0; u < numUsers; u++ {
		tc.UserIDs = append(tc.UserIDs, fmt.Sprintf("user-%03d", u))
	}

	reviews := generateReviews(numReviews, tc.UserIDs)
	if err := store.UpsertReviews(context.Background(), reviews); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to populate cache: %w", err)
	}
	for _, r := range reviews {
		tc.ReviewIDs = append(tc.ReviewIDs, r.ID)
	}

	return tc, nil
}

// Close closes the test cache.
func (tc *TestCache) Close() error {
	if tc.Store != nil {
		return tc.Store.Close()
	}
	return nil
}

// RunConcurrentQueries simulates N concurrent readers querying the feed.
//
// Each reader performs queriesPerReader queries, alternating between the
// full feed and a per-user feed, recording latency for each. Returns
// aggregated latency statistics.
func (tc *TestCache) RunConcurrentQueries(numReaders, queriesPerReader int) (*LatencyStats, error) {
	var wg sync.WaitGroup

	resultsChan := make(chan []time.Duration, numReaders)
	errorsChan := make(chan error, numReaders)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			durations := make([]time.Duration, 0, queriesPerReader)
			ctx := context.Background()
			userID := tc.UserIDs[readerID%len(tc.UserIDs)]

			for j := 0; j < queriesPerReader; j++ {
				start := time.Now()

				var err error
				if j%2 == 0 {
					_, err = tc.Store.AllReviews(ctx)
				} else {
					_, err = tc.Store.ReviewsByUser(ctx, userID)
				}
				elapsed := time.Since(start)

				durations = append(durations, elapsed)

				if err != nil {
					errorsChan <- fmt.Errorf("reader %d query %d failed: %w", readerID, j, err)
					return
				}
			}

			resultsChan <- durations
		}(i)
	}

	wg.Wait()
	close(resultsChan)
	close(errorsChan)

	errorCount := 0
	for err := range errorsChan {
		if err != nil {
			errorCount++
			fmt.Printf("Error: %v\n", err)
		}
	}

	var allDurations []time.Duration
	for durations := range resultsChan {
		allDurations = append(allDurations, durations...)
	}

	if len(allDurations) == 0 {
		return nil, fmt.Errorf("no successful queries completed")
	}

	stats := computeLatencyStats(allDurations)
	stats.Errors = errorCount

	return stats, nil
}

// VerifyConcurrentReadsAndWrites runs readers against the feed while a
// writer keeps upserting, checking that every snapshot stays consistent:
// no empty ids and timestamps ordered newest first.
func (tc *TestCache) VerifyConcurrentReadsAndWrites(numReaders int, duration time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var wg sync.WaitGroup
	errorsChan := make(chan error, numReaders+1)

	for i := 0; i < numReaders; i++ {
		wg.Add(1)
		go func(readerID int) {
			defer wg.Done()

			for {
				select {
				case <-ctx.Done():
					return
				default:
					reviews, err := tc.Store.AllReviews(ctx)
					if err != nil && ctx.Err() == nil {
						errorsChan <- fmt.Errorf("reader %d read failed: %w", readerID, err)
						return
					}

					for k, r := range reviews {
						if r.ID == "" {
							errorsChan <- fmt.Errorf("reader %d found review with empty id", readerID)
							return
						}
						if k > 0 && reviews[k-1].Timestamp < r.Timestamp {
							errorsChan <- fmt.Errorf("reader %d found out-of-order feed at index %d", readerID, k)
							return
						}
					}

					time.Sleep(1 * time.Millisecond)
				}
			}
		}(i)
	}

	// One writer upserting fresh reviews throughout the run.
	wg.Add(1)
	go func() {
		defer wg.Done()

		seq := 0
		for {
			select {
			case <-ctx.Done():
				return
			default:
				r := &model.Review{
					ID:         fmt.Sprintf("hot-%06d", seq),
					MovieTitle: fmt.Sprintf("Hot Write %d", seq),
					Rating:     3.5,
					ReviewText: "written during load",
					UserID:     tc.UserIDs[seq%len(tc.UserIDs)],
					Timestamp:  model.NowMillis(),
				}
				if err := tc.Store.UpsertReview(ctx, r); err != nil && ctx.Err() == nil {
					errorsChan <- fmt.Errorf("writer upsert failed: %w", err)
					return
				}
				seq++
				time.Sleep(2 * time.Millisecond)
			}
		}
	}()

	wg.Wait()
	close(errorsChan)

	for err := range errorsChan {
		if err != nil {
			return err
		}
	}

	return nil
}

// generateReviews creates test reviews with a realistic rating spread and
// staggered timestamps.
func generateReviews(count int, userIDs []string) []*model.Review {
	reviews := make([]*model.Review, count)
	genres := []string{"Drama", "Action", "Sci-Fi", "Comedy", "Horror"}

	// Rating distribution weighted toward the upper half, in 0.5 steps.
	ratings := []float64{2, 2.5, 3, 3.5, 3.5, 4, 4, 4.5, 4.5, 5}

	rng := rand.New(rand.NewSource(42))
	base := time.Now().Add(-30 * 24 * time.Hour).UnixMilli()

	for i := 0; i < count; i++ {
		userID := userIDs[rng.Intn(len(userIDs))]
		reviews[i] = &model.Review{
			ID:           fmt.Sprintf("load-%06d", i),
			MovieTitle:   fmt.Sprintf("Movie %d", i),
			MovieGenre:   genres[i%len(genres)],
			Rating:       ratings[i%len(ratings)],
			ReviewText:   fmt.Sprintf("Load test review %d", i),
			UserID:       userID,
			UserFullName: "Load Tester",
			Timestamp:    base + int64(i)*60_000,
		}
	}

	return reviews
}

// computeLatencyStats calculates statistics from a slice of durations.
func computeLatencyStats(durations []time.Duration) *LatencyStats {
	if len(durations) == 0 {
		return &LatencyStats{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	mean := sum / time.Duration(len(durations))

	p50 := sorted[len(sorted)*50/100]
	p95 := sorted[len(sorted)*95/100]
	p99 := sorted[len(sorted)*99/100]

	return &LatencyStats{
		Min:          sorted[0],
		Max:          sorted[len(sorted)-1],
		Mean:         mean,
		P50:          p50,
		P95:          p95,
		P99:          p99,
		TotalQueries: len(durations),
		Durations:    sorted,
	}
}

// PrintStats formats and prints latency statistics.
func (s *LatencyStats) PrintStats() {
	fmt.Printf("Latency Statistics:\n")
	fmt.Printf("  Total Queries: %d\n", s.TotalQueries)
	fmt.Printf("  Errors:        %d\n", s.Errors)
	fmt.Printf("  Min:           %v\n", s.Min)
	fmt.Printf("  P50 (Median):  %v\n", s.P50)
	fmt.Printf("  Mean:          %v\n", s.Mean)
	fmt.Printf("  P95:           %v\n", s.P95)
	fmt.Printf("  P99:           %v\n", s.P99)
	fmt.Printf("  Max:           %v\n", s.Max)
}
