package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/movierate/movierate/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}
	return c
}

func TestClient_ListReviews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/reviews" {
			t.Errorf("path = %q, want /v1/reviews", r.URL.Path)
		}
		if got := r.URL.Query().Get("orderBy"); got != "-timestamp" {
			t.Errorf("orderBy = %q, want -timestamp", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}

		_ = json.NewEncoder(w).Encode([]*model.Review{
			{ID: "r2", MovieTitle: "B", Timestamp: 200},
			{ID: "r1", MovieTitle: "A", Timestamp: 100},
		})
	})

	got, err := c.ListReviews(context.Background())
	if err != nil {
		t.Fatalf("ListReviews() failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "r2" {
		t.Errorf("ListReviews() = %+v", got)
	}
}

func TestClient_ListReviewPage_Cursor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("userId") != "u1" || q.Get("limit") != "500" {
			t.Errorf("query = %v", q)
		}
		if q.Get("afterTimestamp") != "123" || q.Get("afterId") != "last-doc" {
			t.Errorf("cursor params = %v", q)
		}
		_ = json.NewEncoder(w).Encode([]*model.Review{})
	})

	_, err := c.ListReviewPage(context.Background(), "u1", &Cursor{Timestamp: 123, ID: "last-doc"}, 500)
	if err != nil {
		t.Fatalf("ListReviewPage() failed: %v", err)
	}
}

func TestClient_CreateReview_ReturnsAssignedID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body model.Review
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if body.MovieTitle != "Gladiator" {
			t.Errorf("movieTitle = %q", body.MovieTitle)
		}

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "assigned-1"})
	})

	id, err := c.CreateReview(context.Background(), &model.Review{MovieTitle: "Gladiator", Rating: 4.5, ReviewText: "t", UserID: "u1"})
	if err != nil {
		t.Fatalf("CreateReview() failed: %v", err)
	}
	if id != "assigned-1" {
		t.Errorf("id = %q, want assigned-1", id)
	}
}

func TestClient_GetReview_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.GetReview(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReview() error = %v, want ErrNotFound", err)
	}
}

func TestClient_DeleteReview_AbsentIsNil(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	if err := c.DeleteReview(context.Background(), "missing"); err != nil {
		t.Errorf("DeleteReview() on absent doc = %v, want nil", err)
	}
}

func TestClient_UpdateReviewFields_PatchBody(t *testing.T) {
	var got map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	})

	rating := 2.5
	text := "updated"
	err := c.UpdateReviewFields(context.Background(), "r1", ReviewFields{Rating: &rating, ReviewText: &text})
	if err != nil {
		t.Fatalf("UpdateReviewFields() failed: %v", err)
	}

	if got["rating"] != 2.5 || got["reviewText"] != "updated" {
		t.Errorf("patch body = %v", got)
	}
	if _, ok := got["movieBannerUrl"]; ok {
		t.Error("nil field was included in patch")
	}
}

func TestClient_BatchUpdate_Payload(t *testing.T) {
	var got struct {
		IDs    []string               `json:"ids"`
		Fields map[string]interface{} `json:"fields"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/reviews:batchUpdate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	})

	name := "New Name"
	err := c.BatchUpdateAuthorFields(context.Background(), []string{"a", "b"}, AuthorFields{FullName: &name})
	if err != nil {
		t.Fatalf("BatchUpdateAuthorFields() failed: %v", err)
	}
	if len(got.IDs) != 2 || got.Fields["userFullName"] != "New Name" {
		t.Errorf("batch payload = %+v", got)
	}
}

func TestClient_BatchRejectsOversize(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("oversize batch reached the server")
	})

	ids := make([]string, MaxBatchSize+1)
	name := "n"
	if err := c.BatchUpdateAuthorFields(context.Background(), ids, AuthorFields{FullName: &name}); err == nil {
		t.Error("batch over the document limit accepted")
	}
}

func TestClient_ServerErrorSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := c.ListReviews(context.Background())
	if err == nil {
		t.Fatal("ListReviews() succeeded against failing server")
	}
}

func TestClient_Profiles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			var p model.UserProfile
			_ = json.NewDecoder(r.Body).Decode(&p)
			if p.FullName != "Sarah Davis" {
				t.Errorf("fullName = %q", p.FullName)
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(&model.UserProfile{UID: "u1", FullName: "Sarah Davis"})
		}
	})

	ctx := context.Background()
	if err := c.SetProfile(ctx, "u1", &model.UserProfile{UID: "u1", FullName: "Sarah Davis"}); err != nil {
		t.Fatalf("SetProfile() failed: %v", err)
	}
	got, err := c.GetProfile(ctx, "u1")
	if err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
	if got.FullName != "Sarah Davis" {
		t.Errorf("FullName = %q", got.FullName)
	}
}
