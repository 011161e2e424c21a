// Package publish is the boundary to the external blog-publishing API.
//
// The scheduler performs no retries of its own; transient publishing
// failures (network errors, timeouts, 429, 5xx) are retried here with
// exponential backoff, up to 3 attempts total.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Post is the article handed to the publishing API.
type Post struct {
	Title    string   `json:"title"`
	BodyHTML string   `json:"body_html"`
	Summary  string   `json:"summary"`
	Slug     string   `json:"slug"`
	Tags     []string `json:"tags"`
	Author   string   `json:"author,omitempty"`
}

// Receipt identifies a published article.
type Receipt struct {
	BlogID    string `json:"blog_id"`
	ArticleID string `json:"article_id"`
	URL       string `json:"url"`
}

// Publisher publishes an article to the tenant's storefront blog.
type Publisher interface {
	Publish(ctx context.Context, tenant string, post *Post) (*Receipt, error)
}

// APIError is a failure reported by the publishing API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("publish: API status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure class is worth retrying:
// rate limiting (429) and server-side errors (5xx).
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// IsRetryable classifies an error as transient: retryable API statuses,
// timeouts, and network-level failures.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}
