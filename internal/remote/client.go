package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/movierate/movierate/internal/model"
)

// Client is a DocStore over the hosted document-store REST API. Reviews live
// in the "reviews" collection, profiles in "users". Requests carry a bearer
// token and a bounded timeout; the client never retries on its own.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// ClientConfig configures the HTTP document store client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://api.example.com
	BaseURL string

	// Token is the bearer token attached to every request.
	Token string

	// Timeout bounds each request (default 15s).
	Timeout time.Duration
}

// NewClient creates a document store client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("remote base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

var _ DocStore = (*Client)(nil)

// do issues a request and decodes the JSON response into out (if non-nil).
// 404 maps to ErrNotFound; any other non-2xx status becomes an error
// carrying the status and a snippet of the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) listReviews(ctx context.Context, query url.Values) ([]*model.Review, error) {
	var out []*model.Review
	if err := c.do(ctx, http.MethodGet, "/v1/reviews", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListReviews implements DocStore.ListReviews.
func (c *Client) ListReviews(ctx context.Context) ([]*model.Review, error) {
	q := url.Values{"orderBy": {"-timestamp"}}
	return c.listReviews(ctx, q)
}

// ListReviewsByUser implements DocStore.ListReviewsByUser.
func (c *Client) ListReviewsByUser(ctx context.Context, userID string) ([]*model.Review, error) {
	q := url.Values{
		"orderBy": {"-timestamp"},
		"userId":  {userID},
	}
	return c.listReviews(ctx, q)
}

// ListReviewPage implements DocStore.ListReviewPage.
func (c *Client) ListReviewPage(ctx context.Context, userID string, after *Cursor, limit int) ([]*model.Review, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("page limit must be positive (got %d)", limit)
	}

	q := url.Values{
		"orderBy": {"-timestamp"},
		"userId":  {userID},
		"limit":   {strconv.Itoa(limit)},
	}
	if after != nil {
		q.Set("afterTimestamp", strconv.FormatInt(after.Timestamp, 10))
		q.Set("afterId", after.ID)
	}
	return c.listReviews(ctx, q)
}

// GetReview implements DocStore.GetReview.
func (c *Client) GetReview(ctx context.Context, id string) (*model.Review, error) {
	var out model.Review
	if err := c.do(ctx, http.MethodGet, "/v1/reviews/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateReview implements DocStore.CreateReview.
func (c *Client) CreateReview(ctx context.Context, r *model.Review) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/reviews", nil, r, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("store assigned no document id")
	}
	return out.ID, nil
}

// SetReview implements DocStore.SetReview.
func (c *Client) SetReview(ctx context.Context, id string, r *model.Review) error {
	return c.do(ctx, http.MethodPut, "/v1/reviews/"+url.PathEscape(id), nil, r, nil)
}

// UpdateReviewFields implements DocStore.UpdateReviewFields.
func (c *Client) UpdateReviewFields(ctx context.Context, id string, fields ReviewFields) error {
	patch := map[string]interface{}{}
	if fields.Rating != nil {
		patch["rating"] = *fields.Rating
	}
	if fields.ReviewText != nil {
		patch["reviewText"] = *fields.ReviewText
	}
	if fields.BannerURL != nil {
		patch["movieBannerUrl"] = *fields.BannerURL
	}
	if len(patch) == 0 {
		return nil
	}

	return c.do(ctx, http.MethodPatch, "/v1/reviews/"+url.PathEscape(id), nil, patch, nil)
}

// DeleteReview implements DocStore.DeleteReview.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/v1/reviews/"+url.PathEscape(id), nil, nil, nil)
	if err == ErrNotFound {
		return nil
	}
	return err
}

// BatchUpdateAuthorFields implements DocStore.BatchUpdateAuthorFields.
func (c *Client) BatchUpdateAuthorFields(ctx context.Context, ids []string, fields AuthorFields) error {
	if len(ids) > MaxBatchSize {
		return fmt.Errorf("batch of %d exceeds the %d-document limit", len(ids), MaxBatchSize)
	}
	if len(ids) == 0 {
		return nil
	}

	patch := map[string]interface{}{}
	if fields.FullName != nil {
		patch["userFullName"] = *fields.FullName
	}
	if fields.PhotoURL != nil {
		patch["userProfilePictureUrl"] = *fields.PhotoURL
	}

	body := map[string]interface{}{
		"ids":    ids,
		"fields": patch,
	}
	return c.do(ctx, http.MethodPost, "/v1/reviews:batchUpdate", nil, body, nil)
}

// GetProfile implements DocStore.GetProfile.
func (c *Client) GetProfile(ctx context.Context, uid string) (*model.UserProfile, error) {
	var out model.UserProfile
	if err := c.do(ctx, http.MethodGet, "/v1/users/"+url.PathEscape(uid), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetProfile implements DocStore.SetProfile.
func (c *Client) SetProfile(ctx context.Context, uid string, p *model.UserProfile) error {
	return c.do(ctx, http.MethodPut, "/v1/users/"+url.PathEscape(uid), nil, p, nil)
}
