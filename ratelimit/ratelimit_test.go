package ratelimit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLimiter(limit int, now *time.Time) *Limiter {
	return New(Config{Limit: limit, Window: time.Hour}, nil,
		WithClock(func() time.Time { return *now }))
}

func TestCheck_DeniesOverLimit(t *testing.T) {
	// WHAT: With limit N, the (N+1)th check inside the window is denied.
	// WHY: This is the whole contract of the budget.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := testLimiter(3, &now)

	for i := 1; i <= 3; i++ {
		res := l.Check("shop-1")
		if !res.Allowed {
			t.Fatalf("check %d should be allowed", i)
		}
		if res.Count != i {
			t.Errorf("check %d count: got %d", i, res.Count)
		}
	}
	res := l.Check("shop-1")
	if res.Allowed {
		t.Fatal("4th check should be denied")
	}
	if res.ResetIn <= 0 || res.ResetIn > time.Hour {
		t.Errorf("reset_in out of range: %v", res.ResetIn)
	}
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	// WHAT: Exhausting one tenant's budget leaves others untouched.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := testLimiter(1, &now)

	l.Check("shop-1")
	if res := l.Check("shop-1"); res.Allowed {
		t.Error("shop-1 should be exhausted")
	}
	if res := l.Check("shop-2"); !res.Allowed {
		t.Error("shop-2 should be unaffected")
	}
}

func TestRollback_RefundsWithoutWaiting(t *testing.T) {
	// WHAT: After a rollback the next check succeeds inside the same window.
	// WHY: Failed downstream operations must not be charged.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := testLimiter(2, &now)

	l.Check("shop-1")
	l.Check("shop-1")
	if res := l.Check("shop-1"); res.Allowed {
		t.Fatal("budget should be exhausted")
	}

	l.Rollback("shop-1")
	if res := l.Check("shop-1"); !res.Allowed {
		t.Error("check after rollback should be allowed")
	}
}

func TestRollback_FloorsAtZero(t *testing.T) {
	// WHAT: Rolling back an untouched key never goes negative.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := testLimiter(2, &now)

	l.Rollback("shop-1")
	res := l.Check("shop-1")
	if res.Count != 1 {
		t.Errorf("count after rollback on fresh key: got %d, want 1", res.Count)
	}
}

func TestCheck_WindowExpiryResets(t *testing.T) {
	// WHAT: An expired window restarts the count.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := testLimiter(1, &now)

	l.Check("shop-1")
	if res := l.Check("shop-1"); res.Allowed {
		t.Fatal("should be exhausted")
	}
	now = now.Add(61 * time.Minute)
	res := l.Check("shop-1")
	if !res.Allowed || res.Count != 1 {
		t.Errorf("after expiry: %+v", res)
	}
}

func TestSweep_RemovesExpiredOnly(t *testing.T) {
	// WHAT: Sweep drops expired windows and keeps live ones.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := testLimiter(5, &now)

	l.Check("old-shop")
	now = now.Add(2 * time.Hour)
	l.Check("live-shop")

	if removed := l.Sweep(); removed != 1 {
		t.Errorf("swept: got %d, want 1", removed)
	}
	if _, ok := l.store.Get("old-shop"); ok {
		t.Error("expired window survived sweep")
	}
	if _, ok := l.store.Get("live-shop"); !ok {
		t.Error("live window removed by sweep")
	}
}

func TestMiddleware_DeniesWith429(t *testing.T) {
	// WHAT: Denied requests get 429 JSON and Retry-After.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := testLimiter(1, &now)
	handler := l.Middleware(func(r *http.Request) string { return "shop-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/generate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/generate", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != ErrRateLimited.Error() {
		t.Errorf("body: %v", body)
	}
}

func TestMiddleware_RefundsServerErrors(t *testing.T) {
	// WHAT: A 5xx response from the wrapped handler refunds the unit.
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := testLimiter(1, &now)
	handler := l.Middleware(func(r *http.Request) string { return "shop-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/generate", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("got %d", rec.Code)
	}
	if res := l.Check("shop-1"); !res.Allowed {
		t.Error("failed request should have been refunded")
	}
}
