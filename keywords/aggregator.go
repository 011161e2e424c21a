package keywords

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Config configures the Aggregator.
type Config struct {
	// TTL is how long an aggregated corpus stays cached. Default: 5 minutes.
	TTL time.Duration
}

func (c *Config) defaults() {
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
}

// Aggregator builds and caches per-tenant keyword corpora.
type Aggregator struct {
	source Source
	cache  CacheStore
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCacheStore replaces the default in-process cache.
func WithCacheStore(cs CacheStore) Option {
	return func(a *Aggregator) { a.cache = cs }
}

// WithClock overrides the time source. Test use.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithRandSource seeds subset shuffling for reproducible output.
func WithRandSource(src rand.Source) Option {
	return func(a *Aggregator) { a.rnd = rand.New(src) }
}

// NewAggregator creates an Aggregator reading analyses from source.
func NewAggregator(source Source, cfg Config, logger *slog.Logger, opts ...Option) *Aggregator {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{
		source: source,
		cache:  NewMemoryCache(),
		config: cfg,
		logger: logger,
		now:    time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Keywords returns the tenant's corpus, served from cache when unexpired.
// A tenant with no stored analysis gets an all-empty corpus, not an error.
func (a *Aggregator) Keywords(ctx context.Context, tenant string) (*Corpus, error) {
	now := a.now()
	if c, expiresAt, ok := a.cache.Get(tenant); ok && now.Before(expiresAt) {
		return c, nil
	}
	return a.recompute(ctx, tenant)
}

// Refresh invalidates the tenant's cache entry and recomputes immediately.
func (a *Aggregator) Refresh(ctx context.Context, tenant string) (*Corpus, error) {
	a.cache.Delete(tenant)
	return a.recompute(ctx, tenant)
}

func (a *Aggregator) recompute(ctx context.Context, tenant string) (*Corpus, error) {
	analysis, err := a.source.LatestAnalysis(ctx, tenant)
	if err != nil {
		return nil, err
	}
	c := build(analysis)
	if analysis == nil {
		a.logger.Debug("keywords: no analysis for tenant", "tenant", tenant)
	}
	a.cache.Set(tenant, c, a.now().Add(a.config.TTL))
	return c, nil
}

// RandomSubset returns up to maxPerCategory shuffled keywords from each
// category. The cached corpus is never mutated; shuffling happens on copies.
func (a *Aggregator) RandomSubset(ctx context.Context, tenant string, maxPerCategory int) (*Corpus, error) {
	c, err := a.Keywords(ctx, tenant)
	if err != nil {
		return nil, err
	}
	sub := &Corpus{
		MainProducts:     a.shuffleCap(c.MainProducts, maxPerCategory),
		ProblemsSolved:   a.shuffleCap(c.ProblemsSolved, maxPerCategory),
		CustomerSearches: a.shuffleCap(c.CustomerSearches, maxPerCategory),
		LastUpdated:      c.LastUpdated,
	}
	sub.All = unionDedup(sub.MainProducts, sub.ProblemsSolved, sub.CustomerSearches)
	return sub, nil
}

// shuffleCap Fisher-Yates shuffles a copy of list and caps its length.
func (a *Aggregator) shuffleCap(list []string, max int) []string {
	if len(list) == 0 || max <= 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	a.mu.Lock()
	a.rnd.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	a.mu.Unlock()
	if len(out) > max {
		out = out[:max]
	}
	return out
}

// HasEnough reports whether the tenant's union has at least minTotal keywords.
func (a *Aggregator) HasEnough(ctx context.Context, tenant string, minTotal int) (bool, error) {
	c, err := a.Keywords(ctx, tenant)
	if err != nil {
		return false, err
	}
	return c.Total() >= minTotal, nil
}

// ClearCache drops every cached corpus. Operational and test use.
func (a *Aggregator) ClearCache() {
	a.cache.Clear()
}
