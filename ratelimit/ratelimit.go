// Package ratelimit enforces a per-tenant sliding-window request budget on
// the synchronous, user-triggered generation path.
//
// The limiter never errors; it only answers allow or deny. A request that
// was allowed but whose downstream work failed can be refunded with
// Rollback so failed attempts are not charged against the budget.
package ratelimit

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrRateLimited is returned by callers that surface a denied Check as an
// error. The limiter itself only reports Result.Allowed.
var ErrRateLimited = errors.New("ratelimit: budget exhausted")

// Config defines the budget for one key.
type Config struct {
	// Limit is the number of allowed requests per window. Default: 20.
	Limit int
	// Window is the sliding window duration. Default: 1 hour.
	Window time.Duration
	// SweepInterval is how often expired windows are garbage collected by
	// StartSweeper. Default: 5 minutes.
	SweepInterval time.Duration
}

func (c *Config) defaults() {
	if c.Limit <= 0 {
		c.Limit = 20
	}
	if c.Window <= 0 {
		c.Window = time.Hour
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
}

// Window is the request count for one key inside the current window.
type Window struct {
	Count   int
	ResetAt time.Time
}

// WindowStore holds per-key windows. Injected so single-instance deployments
// use the in-process map while horizontally scaled deployments plug in a
// shared backend; per-key atomicity then moves into that backend.
type WindowStore interface {
	Get(key string) (*Window, bool)
	Set(key string, w *Window)
	Delete(key string)
	Range(fn func(key string, w *Window) bool)
}

// MemoryWindows is the in-process WindowStore.
type MemoryWindows struct {
	mu      sync.Mutex
	windows map[string]*Window
}

// NewMemoryWindows creates an empty in-process window store.
func NewMemoryWindows() *MemoryWindows {
	return &MemoryWindows{windows: make(map[string]*Window)}
}

func (m *MemoryWindows) Get(key string) (*Window, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[key]
	return w, ok
}

func (m *MemoryWindows) Set(key string, w *Window) {
	m.mu.Lock()
	m.windows[key] = w
	m.mu.Unlock()
}

func (m *MemoryWindows) Delete(key string) {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
}

func (m *MemoryWindows) Range(fn func(key string, w *Window) bool) {
	m.mu.Lock()
	keys := make([]string, 0, len(m.windows))
	for k := range m.windows {
		keys = append(keys, k)
	}
	m.mu.Unlock()
	for _, k := range keys {
		if w, ok := m.Get(k); ok {
			if !fn(k, w) {
				return
			}
		}
	}
}

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed bool          `json:"allowed"`
	Count   int           `json:"count"`
	Limit   int           `json:"limit"`
	ResetIn time.Duration `json:"reset_in,omitempty"`
}

// Limiter enforces the sliding-window budget.
type Limiter struct {
	store  WindowStore
	config Config
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex // serializes check/rollback across the injected store
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithWindowStore replaces the default in-process store.
func WithWindowStore(s WindowStore) Option {
	return func(l *Limiter) { l.store = s }
}

// WithClock overrides the time source. Test use.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Limiter {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	l := &Limiter{
		store:  NewMemoryWindows(),
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Check consumes one unit of budget for key if available. A fresh window is
// started when none exists or the stored one has expired.
func (l *Limiter) Check(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.store.Get(key)
	if !ok || !now.Before(w.ResetAt) {
		w = &Window{Count: 0, ResetAt: now.Add(l.config.Window)}
	}

	if w.Count >= l.config.Limit {
		l.logger.Warn("ratelimit: budget exhausted", "key", key, "count", w.Count)
		return Result{
			Allowed: false,
			Count:   w.Count,
			Limit:   l.config.Limit,
			ResetIn: w.ResetAt.Sub(now),
		}
	}

	w.Count++
	l.store.Set(key, w)
	return Result{Allowed: true, Count: w.Count, Limit: l.config.Limit}
}

// Rollback refunds one unit for key, floored at zero. Call it when an
// allowed request's downstream operation failed.
func (l *Limiter) Rollback(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.store.Get(key)
	if !ok || w.Count == 0 {
		return
	}
	w.Count--
	l.store.Set(key, w)
}

// Sweep removes windows whose reset instant has passed. Memory hygiene only;
// Check already treats expired windows as fresh.
func (l *Limiter) Sweep() int {
	now := l.now()
	removed := 0
	l.store.Range(func(key string, w *Window) bool {
		if now.After(w.ResetAt) {
			l.store.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// StartSweeper runs Sweep periodically until done is closed.
func (l *Limiter) StartSweeper(done <-chan struct{}) {
	tick := time.NewTicker(l.config.SweepInterval)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				l.Sweep()
			}
		}
	}()
}
