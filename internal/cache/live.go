package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/movierate/movierate/internal/model"
)

// Live is an observable query result over the cache. It emits the current
// result immediately on construction, then re-evaluates and re-emits every
// time the cache mutates, until Stop is called.
//
// The push model is cooperative single-consumer: if the consumer falls
// behind, intermediate results are dropped and the next emission reflects
// the latest cache state.
type Live[T any] struct {
	updates chan T
	sub     *Subscription
	cancel  context.CancelFunc
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// Updates returns the emission channel. It is closed after Stop.
func (l *Live[T]) Updates() <-chan T {
	return l.updates
}

// Stop cancels the live query and detaches it from the store. Stopping has
// no side effects on the store and is safe to call more than once.
func (l *Live[T]) Stop() {
	l.once.Do(func() {
		close(l.stop)
		l.cancel()
		l.sub.Close()
		l.wg.Wait()
		close(l.updates)
	})
}

// newLive starts the re-query loop for a query function.
func newLive[T any](s *Store, query func(ctx context.Context) (T, error)) *Live[T] {
	ctx, cancel := context.WithCancel(context.Background())

	l := &Live[T]{
		updates: make(chan T, 1),
		sub:     s.Subscribe(),
		cancel:  cancel,
		stop:    make(chan struct{}),
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		l.emit(ctx, query)
		for {
			select {
			case <-l.stop:
				return
			case <-l.sub.C:
				l.emit(ctx, query)
			}
		}
	}()

	return l
}

// emit runs the query and pushes the result, replacing any emission the
// consumer has not yet received.
func (l *Live[T]) emit(ctx context.Context, query func(ctx context.Context) (T, error)) {
	result, err := query(ctx)
	if err != nil {
		// Query failures (e.g. a cancelled context during Stop) produce no
		// emission; the previous result stands.
		return
	}

	for {
		select {
		case l.updates <- result:
			return
		case <-l.stop:
			return
		default:
		}

		// Channel full: drop the stale pending emission and retry.
		select {
		case <-l.updates:
		default:
		}
	}
}

// LiveAllReviews observes every cached review, newest first.
func LiveAllReviews(s *Store) *Live[[]*model.Review] {
	return newLive(s, func(ctx context.Context) ([]*model.Review, error) {
		return s.AllReviews(ctx)
	})
}

// LiveReviewsByUser observes the reviews owned by userID, newest first.
func LiveReviewsByUser(s *Store, userID string) *Live[[]*model.Review] {
	return newLive(s, func(ctx context.Context) ([]*model.Review, error) {
		return s.ReviewsByUser(ctx, userID)
	})
}

// LiveReviewByID observes a single review. Emits nil while the review is
// absent from the cache.
func LiveReviewByID(s *Store, id string) *Live[*model.Review] {
	return newLive(s, func(ctx context.Context) (*model.Review, error) {
		r, err := s.GetReview(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return r, err
	})
}

// LiveProfile observes a single user profile. Emits nil while the profile is
// absent from the cache.
func LiveProfile(s *Store, uid string) *Live[*model.UserProfile] {
	return newLive(s, func(ctx context.Context) (*model.UserProfile, error) {
		p, err := s.GetProfile(ctx, uid)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return p, err
	})
}
