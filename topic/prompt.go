package topic

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/veltaire/plume/keywords"
)

// maxAttempts is how many deterministic variations are tried before the
// generator degrades to the flagged fallback prompt.
const maxAttempts = 10

// Constraints bound what counts as a duplicate topic.
type Constraints struct {
	// MaxKeywordOverlap is the highest tolerated Jaccard overlap between the
	// new prompt's keywords and any recent post's keywords. Default: 0.60.
	MaxKeywordOverlap float64
	// MinDaysBetween is the lookback window in days. Default: 30.
	MinDaysBetween int
	// MaxSimilarity is the highest tolerated word-level Jaccard similarity
	// between topic strings. Default: 0.70.
	MaxSimilarity float64
}

func (c *Constraints) defaults() {
	if c.MaxKeywordOverlap <= 0 {
		c.MaxKeywordOverlap = 0.60
	}
	if c.MinDaysBetween <= 0 {
		c.MinDaysBetween = 30
	}
	if c.MaxSimilarity <= 0 {
		c.MaxSimilarity = 0.70
	}
}

// RecentPosts lists a tenant's published posts newer than a given instant.
type RecentPosts interface {
	PostsSince(ctx context.Context, tenant string, since time.Time) ([]*RecentPost, error)
}

// Prompt is one generation attempt's output, handed to the text generator
// when accepted.
type Prompt struct {
	Topic       string   `json:"topic"`
	Keywords    []string `json:"keywords"`
	Angle       Angle    `json:"angle"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Fingerprint string   `json:"fingerprint"`
	IsUnique    bool     `json:"is_unique"`
	Attempt     int      `json:"attempt"`
}

// Generator produces unique blog prompts for tenants.
type Generator struct {
	posts       RecentPosts
	constraints Constraints
	logger      *slog.Logger
	now         func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithClock overrides the time source. Test use.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator reading history from posts.
func NewGenerator(posts RecentPosts, cons Constraints, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	cons.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{
		posts:       posts,
		constraints: cons,
		logger:      logger,
		now:         time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// UniquePrompt generates a prompt that passes all uniqueness checks against
// the tenant's recent posts, using the generator's default constraints.
func (g *Generator) UniquePrompt(ctx context.Context, tenant string, corpus *keywords.Corpus) (*Prompt, error) {
	return g.UniquePromptWith(ctx, tenant, corpus, g.constraints)
}

// UniquePromptWith is UniquePrompt with per-call constraint overrides.
//
// Ten deterministic variations are attempted; the first one with no exact
// fingerprint collision, no excessive keyword overlap and no over-similar
// topic is returned with IsUnique=true. If every attempt collides, a
// fallback prompt is returned with IsUnique=false. Only a history read
// failure is an error.
func (g *Generator) UniquePromptWith(ctx context.Context, tenant string, corpus *keywords.Corpus, cons Constraints) (*Prompt, error) {
	cons.defaults()
	now := g.now()
	since := now.AddDate(0, 0, -cons.MinDaysBetween)
	recent, err := g.posts.PostsSince(ctx, tenant, since)
	if err != nil {
		return nil, fmt.Errorf("topic: load recent posts: %w", err)
	}

	angle := leastUsedAngle(recent)
	tried := make(map[string]bool, maxAttempts)
	for v := 0; v < maxAttempts; v++ {
		p := g.variation(corpus, angle, v, now)
		if p == nil {
			break
		}
		// Small corpora can cycle back to an earlier variation; re-checking
		// an identical fingerprint can only fail identically.
		if tried[p.Fingerprint] {
			continue
		}
		tried[p.Fingerprint] = true
		if len(findConflicts(p, recent, cons)) == 0 {
			p.IsUnique = true
			return p, nil
		}
	}

	g.logger.Warn("topic: no unique variation found, using fallback",
		"tenant", tenant, "angle", angle, "recent_posts", len(recent))
	return g.fallback(corpus, now), nil
}

// variation builds the v'th deterministic prompt candidate. Returns nil when
// the corpus is empty.
func (g *Generator) variation(corpus *keywords.Corpus, angle Angle, v int, now time.Time) *Prompt {
	all := corpus.All
	if len(all) == 0 {
		return nil
	}
	tmpl := TemplateFor(angle)
	subset := SelectWindow(all, v, subsetSize(tmpl.MinKeywords, len(all)))

	product := subset[0]
	if len(corpus.MainProducts) > 0 {
		product = corpus.MainProducts[v%len(corpus.MainProducts)]
	}
	problem := "everyday problems"
	if len(corpus.ProblemsSolved) > 0 {
		problem = corpus.ProblemsSolved[0]
	}
	customer := "shoppers"
	if len(corpus.CustomerSearches) > 0 {
		customer = corpus.CustomerSearches[0] + " shoppers"
	}

	topicText := fill(tmpl.Format, product, problem, customer, now.Year())
	title := tmpl.TitlePrefix + " " + topicText
	return &Prompt{
		Topic:       topicText,
		Keywords:    subset,
		Angle:       angle,
		Title:       title,
		Slug:        Slugify(title, now),
		Fingerprint: Fingerprint(topicText, subset, angle),
		Attempt:     v,
	}
}

// subsetSize is max(minKeywords, min(5, n)), capped at n.
func subsetSize(minKeywords, n int) int {
	size := min(5, n)
	if minKeywords > size {
		size = minKeywords
	}
	return min(size, n)
}

// SelectWindow returns the deterministic keyword window for attempt v:
// start = (v*2) mod max(1, n-size+1). Pure so variations are reproducible.
func SelectWindow(all []string, v, size int) []string {
	n := len(all)
	if n == 0 || size <= 0 {
		return nil
	}
	if size > n {
		size = n
	}
	start := (v * 2) % max(1, n-size+1)
	return all[start : start+size]
}

func fill(format, product, problem, customer string, year int) string {
	r := strings.NewReplacer(
		"{product}", product,
		"{problem}", problem,
		"{customer}", customer,
		"{year}", strconv.Itoa(year),
	)
	return r.Replace(format)
}

// fallback synthesizes the deterministic last-resort prompt: timestamped
// topic, first three main products, angle fixed to how-to.
func (g *Generator) fallback(corpus *keywords.Corpus, now time.Time) *Prompt {
	kws := corpus.MainProducts
	if len(kws) > 3 {
		kws = kws[:3]
	}
	topicText := fmt.Sprintf("Fresh Ideas for Your Store: %s", now.Format("January 2, 2006"))
	title := "Store Spotlight: " + topicText
	return &Prompt{
		Topic:       topicText,
		Keywords:    kws,
		Angle:       AngleHowTo,
		Title:       title,
		Slug:        Slugify(title, now),
		Fingerprint: Fingerprint(topicText, kws, AngleHowTo),
		IsUnique:    false,
		Attempt:     maxAttempts,
	}
}

// findConflicts returns the recent posts a candidate collides with.
func findConflicts(p *Prompt, recent []*RecentPost, cons Constraints) []*RecentPost {
	return collideWith(p.Topic, p.Keywords, map[string]bool{p.Fingerprint: true}, recent, cons)
}

func collideWith(topicText string, kws []string, prints map[string]bool, recent []*RecentPost, cons Constraints) []*RecentPost {
	var conflicts []*RecentPost
	for _, post := range recent {
		switch {
		case post.ContentHash != "" && prints[post.ContentHash]:
			conflicts = append(conflicts, post)
		case KeywordOverlap(kws, post.KeywordsFocused) > cons.MaxKeywordOverlap:
			conflicts = append(conflicts, post)
		case TopicSimilarity(topicText, post.PrimaryTopic) > cons.MaxSimilarity:
			conflicts = append(conflicts, post)
		}
	}
	return conflicts
}

// CheckUniqueness runs the duplicate checks for an externally supplied topic
// and keyword set, returning the offending posts. An empty result means the
// topic would be accepted. Stored hashes were computed with a concrete angle,
// so the candidate is fingerprinted under every angle before comparing.
func (g *Generator) CheckUniqueness(ctx context.Context, tenant, topicText string, kws []string) ([]*RecentPost, error) {
	cons := g.constraints
	since := g.now().AddDate(0, 0, -cons.MinDaysBetween)
	recent, err := g.posts.PostsSince(ctx, tenant, since)
	if err != nil {
		return nil, fmt.Errorf("topic: load recent posts: %w", err)
	}
	prints := make(map[string]bool, len(Angles()))
	for _, a := range Angles() {
		prints[Fingerprint(topicText, kws, a)] = true
	}
	return collideWith(topicText, kws, prints, recent, cons), nil
}
