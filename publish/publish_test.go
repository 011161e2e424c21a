package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(url string) *Client {
	return NewClient(ClientConfig{BaseURL: url, Token: "tok", Timeout: 5 * time.Second}, nil)
}

func TestPublish_Success(t *testing.T) {
	// WHAT: A 2xx response yields the decoded receipt.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing auth header")
		}
		json.NewEncoder(w).Encode(Receipt{BlogID: "b1", ArticleID: "a1", URL: "https://shop/blog/a1"})
	}))
	defer srv.Close()

	receipt, err := testClient(srv.URL).Publish(context.Background(), "shop-1",
		&Post{Title: "T", BodyHTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if receipt.ArticleID != "a1" {
		t.Errorf("receipt: %+v", receipt)
	}
}

func TestPublish_RetriesTransient(t *testing.T) {
	// WHAT: 5xx responses are retried up to 3 attempts total.
	// WHY: The scheduler does no retries itself; this boundary owns them.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(Receipt{ArticleID: "a1"})
	}))
	defer srv.Close()

	receipt, err := testClient(srv.URL).Publish(context.Background(), "shop-1",
		&Post{Title: "T", BodyHTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("publish after retries: %v", err)
	}
	if receipt.ArticleID != "a1" || calls.Load() != 3 {
		t.Errorf("calls=%d receipt=%+v", calls.Load(), receipt)
	}
}

func TestPublish_NoRetryOnClientError(t *testing.T) {
	// WHAT: A 4xx (other than 429) fails immediately.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Publish(context.Background(), "shop-1",
		&Post{Title: "T", BodyHTML: "<p>hi</p>"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("calls: got %d, want 1 (no retry)", calls.Load())
	}
}

func TestPublish_GivesUpAfterMaxAttempts(t *testing.T) {
	// WHAT: Persistent 5xx exhausts the 3-attempt budget and fails.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Publish(context.Background(), "shop-1",
		&Post{Title: "T", BodyHTML: "<p>hi</p>"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 3 {
		t.Errorf("calls: got %d, want 3", calls.Load())
	}
}

func TestPublish_SanitizesOutboundHTML(t *testing.T) {
	// WHAT: Scripts and event handlers are stripped before the post leaves.
	// WHY: Generated HTML goes onto a customer storefront verbatim.
	var got publishRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(Receipt{ArticleID: "a1"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Publish(context.Background(), "shop-1", &Post{
		Title:    "T",
		BodyHTML: `<p onclick="x()">fine</p><script>alert(1)</script>`,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if strings.Contains(got.Post.BodyHTML, "script") || strings.Contains(got.Post.BodyHTML, "onclick") {
		t.Errorf("unsanitized body reached the wire: %q", got.Post.BodyHTML)
	}
}

func TestIsRetryable(t *testing.T) {
	// WHAT: Classification of the retryable failure classes.
	cases := []struct {
		err  error
		want bool
	}{
		{&APIError{StatusCode: 429}, true},
		{&APIError{StatusCode: 503}, true},
		{&APIError{StatusCode: 404}, false},
		{&APIError{StatusCode: 422}, false},
		{context.DeadlineExceeded, true},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Errorf("IsRetryable(%v): got %v, want %v", c.err, got, c.want)
		}
	}
}
