package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Middleware guards an HTTP route with the limiter, keyed by keyFn. Denied
// requests get a 429 JSON body with a Retry-After header. A 5xx from the
// wrapped handler refunds the unit so server-side failures are not charged.
func (l *Limiter) Middleware(keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			res := l.Check(key)
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.ResetIn.Seconds())+1))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]any{
					"error":    ErrRateLimited.Error(),
					"reset_ms": res.ResetIn.Milliseconds(),
				})
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status >= 500 {
				l.Rollback(key)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
