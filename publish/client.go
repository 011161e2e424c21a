package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/microcosm-cc/bluemonday"
)

// ClientConfig configures the HTTP publishing client.
type ClientConfig struct {
	// BaseURL is the blog API root, e.g. https://api.example-blogs.com.
	BaseURL string
	// Token authenticates requests (bearer).
	Token string
	// Timeout bounds a single publish attempt. Default: 30 seconds.
	Timeout time.Duration
	// MaxAttempts is the total number of tries for retryable failures.
	// Default: 3.
	MaxAttempts int
}

func (c *ClientConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
}

// Client publishes posts over HTTP with backoff retry on transient failures.
// Outbound HTML is sanitized before it leaves the process.
type Client struct {
	config ClientConfig
	http   *http.Client
	policy *bluemonday.Policy
	logger *slog.Logger
}

// NewClient creates a publishing client.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		policy: bluemonday.UGCPolicy(),
		logger: logger,
	}
}

type publishRequest struct {
	Tenant string `json:"tenant"`
	Post   *Post  `json:"post"`
}

// Publish sends the post to the blog API. Network errors, timeouts, 429 and
// 5xx responses are retried with exponential backoff up to MaxAttempts;
// everything else fails immediately.
func (c *Client) Publish(ctx context.Context, tenant string, post *Post) (*Receipt, error) {
	clean := *post
	clean.BodyHTML = c.policy.Sanitize(post.BodyHTML)
	clean.Summary = c.policy.Sanitize(post.Summary)

	body, err := json.Marshal(publishRequest{Tenant: tenant, Post: &clean})
	if err != nil {
		return nil, fmt.Errorf("publish: encode request: %w", err)
	}

	var receipt *Receipt
	attempt := 0
	operation := func() error {
		attempt++
		r, err := c.publishOnce(ctx, body)
		if err != nil {
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			c.logger.Warn("publish: transient failure, will retry",
				"tenant", tenant, "attempt", attempt, "error", err)
			return err
		}
		receipt = r
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.config.MaxAttempts-1)),
		ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (c *Client) publishOnce(ctx context.Context, body []byte) (*Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/v1/articles", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("publish: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(msg)}
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return nil, fmt.Errorf("publish: decode receipt: %w", err)
	}
	return &receipt, nil
}
