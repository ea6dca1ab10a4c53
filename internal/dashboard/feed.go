package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/movierate/movierate/internal/cache"
	"github.com/movierate/movierate/internal/model"
)

// Feed consumes live feed updates from the cache and broadcasts them as
// dashboard messages. It bridges between the cache's reactive queries and
// the WebSocket server.
type Feed struct {
	server *Server
	live   *cache.Live[[]*model.Review]
	logger *log.Logger

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewFeed creates a feed bridge over a running dashboard server. The bridge
// owns the live query and stops it when Stop is called.
func NewFeed(server *Server, store *cache.Store, logger *log.Logger) *Feed {
	if logger == nil {
		logger = log.Default()
	}

	f := &Feed{
		server: server,
		live:   cache.LiveAllReviews(store),
		logger: logger,
		stop:   make(chan struct{}),
	}

	f.wg.Add(1)
	go f.run()
	return f
}

// Stop ends the bridge and its live query. Safe to call more than once.
func (f *Feed) Stop() {
	f.once.Do(func() {
		close(f.stop)
		f.live.Stop()
	})
	f.wg.Wait()
}

// run forwards every live emission as a feed snapshot plus updated stats.
func (f *Feed) run() {
	defer f.wg.Done()

	for {
		select {
		case <-f.stop:
			return

		case reviews, ok := <-f.live.Updates():
			if !ok {
				return
			}
			f.broadcastFeed(reviews)
			f.broadcastStats(reviews)
		}
	}
}

// OnRefreshComplete reports a finished remote refresh to connected clients.
func (f *Feed) OnRefreshComplete(fetched int, duration time.Duration) {
	f.logger.Printf("Refresh complete: %d reviews in %v", fetched, duration)

	data, err := json.Marshal(RefreshData{ReviewsFetched: fetched, Duration: duration})
	if err != nil {
		f.logger.Printf("Failed to marshal refresh data: %v", err)
		return
	}

	f.server.Broadcast(Message{
		Type:      MessageTypeRefresh,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (f *Feed) broadcastFeed(reviews []*model.Review) {
	data, err := json.Marshal(FeedData{Count: len(reviews), Reviews: reviews})
	if err != nil {
		f.logger.Printf("Failed to marshal feed data: %v", err)
		return
	}

	f.server.Broadcast(Message{
		Type:      MessageTypeFeedUpdate,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (f *Feed) broadcastStats(reviews []*model.Review) {
	data, err := json.Marshal(ComputeStats(reviews))
	if err != nil {
		f.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	f.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      data,
	})
}

// ComputeStats aggregates feed-level statistics from a review snapshot.
func ComputeStats(reviews []*model.Review) StatsData {
	stats := StatsData{
		Total:   len(reviews),
		ByGenre: make(map[string]int),
	}

	authors := make(map[string]bool)
	var ratingSum float64
	for _, r := range reviews {
		authors[r.UserID] = true
		ratingSum += r.Rating
		if r.MovieGenre != "" {
			stats.ByGenre[r.MovieGenre]++
		}
	}
	stats.Authors = len(authors)
	if len(reviews) > 0 {
		stats.AverageRating = ratingSum / float64(len(reviews))
	}

	return stats
}
