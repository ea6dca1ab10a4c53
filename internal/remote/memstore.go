package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/movierate/movierate/internal/model"
)

// MemStore is an in-memory DocStore with the same ordering, pagination, and
// batch-bound behavior as the hosted store. It backs tests, `mrate seed
// --local`, and the load tester.
type MemStore struct {
	mu       sync.Mutex
	reviews  map[string]model.Review
	profiles map[string]model.UserProfile
}

// NewMemStore returns an empty in-memory document store.
func NewMemStore() *MemStore {
	return &MemStore{
		reviews:  make(map[string]model.Review),
		profiles: make(map[string]model.UserProfile),
	}
}

var _ DocStore = (*MemStore)(nil)

// sortedReviews returns copies of the stored reviews matching the filter,
// ordered by timestamp descending with id ascending as the tiebreak.
func (m *MemStore) sortedReviews(userID string) []*model.Review {
	var out []*model.Review
	for _, r := range m.reviews {
		if userID != "" && r.UserID != userID {
			continue
		}
		cp := r
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})

	return out
}

// ListReviews implements DocStore.ListReviews.
func (m *MemStore) ListReviews(ctx context.Context) ([]*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedReviews(""), nil
}

// ListReviewsByUser implements DocStore.ListReviewsByUser.
func (m *MemStore) ListReviewsByUser(ctx context.Context, userID string) ([]*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedReviews(userID), nil
}

// ListReviewPage implements DocStore.ListReviewPage.
func (m *MemStore) ListReviewPage(ctx context.Context, userID string, after *Cursor, limit int) ([]*model.Review, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("page limit must be positive (got %d)", limit)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.sortedReviews(userID)

	// Resume at the first document sorting strictly after the cursor. This
	// also behaves when the cursor document itself has been deleted.
	start := 0
	if after != nil {
		start = len(all)
		for i, r := range all {
			if r.Timestamp < after.Timestamp ||
				(r.Timestamp == after.Timestamp && r.ID > after.ID) {
				start = i
				break
			}
		}
	}

	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

// GetReview implements DocStore.GetReview.
func (m *MemStore) GetReview(ctx context.Context, id string) (*model.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := r
	return &cp, nil
}

// CreateReview implements DocStore.CreateReview.
func (m *MemStore) CreateReview(ctx context.Context, r *model.Review) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	doc := *r
	doc.ID = id
	m.reviews[id] = doc
	return id, nil
}

// SetReview implements DocStore.SetReview.
func (m *MemStore) SetReview(ctx context.Context, id string, r *model.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := *r
	doc.ID = id
	m.reviews[id] = doc
	return nil
}

// UpdateReviewFields implements DocStore.UpdateReviewFields.
func (m *MemStore) UpdateReviewFields(ctx context.Context, id string, fields ReviewFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.reviews[id]
	if !ok {
		return ErrNotFound
	}

	if fields.Rating != nil {
		doc.Rating = *fields.Rating
	}
	if fields.ReviewText != nil {
		doc.ReviewText = *fields.ReviewText
	}
	if fields.BannerURL != nil {
		doc.MovieBannerURL = *fields.BannerURL
	}

	m.reviews[id] = doc
	return nil
}

// DeleteReview implements DocStore.DeleteReview.
func (m *MemStore) DeleteReview(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.reviews, id)
	return nil
}

// BatchUpdateAuthorFields implements DocStore.BatchUpdateAuthorFields.
// The batch is all-or-nothing: if any id is unknown, no document changes.
func (m *MemStore) BatchUpdateAuthorFields(ctx context.Context, ids []string, fields AuthorFields) error {
	if len(ids) > MaxBatchSize {
		return fmt.Errorf("batch of %d exceeds the %d-document limit", len(ids), MaxBatchSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if _, ok := m.reviews[id]; !ok {
			return fmt.Errorf("batch update: %s: %w", id, ErrNotFound)
		}
	}

	for _, id := range ids {
		doc := m.reviews[id]
		if fields.FullName != nil {
			doc.UserFullName = *fields.FullName
		}
		if fields.PhotoURL != nil {
			doc.UserProfilePictureURL = *fields.PhotoURL
		}
		m.reviews[id] = doc
	}

	return nil
}

// GetProfile implements DocStore.GetProfile.
func (m *MemStore) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[uid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

// SetProfile implements DocStore.SetProfile.
func (m *MemStore) SetProfile(ctx context.Context, uid string, p *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc := *p
	doc.UID = uid
	m.profiles[uid] = doc
	return nil
}

// ReviewCount reports the number of stored review documents.
func (m *MemStore) ReviewCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reviews)
}
