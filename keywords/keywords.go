// Package keywords aggregates per-tenant keyword analyses into a cleaned,
// deduplicated corpus used by topic generation.
//
// The corpus is a read-only view over the latest stored analysis for a
// tenant: three categorized sets (main products, problems solved, customer
// searches) plus a derived union. Nothing in this package writes back to
// storage; the only mutable state is the short-TTL cache.
package keywords

import (
	"context"
	"strings"
	"time"
)

// Analysis is the latest stored keyword-analysis row for a tenant.
// Either the three categorized fields or the legacy flat list is populated.
type Analysis struct {
	MainProducts     []string
	ProblemsSolved   []string
	CustomerSearches []string
	LegacyKeywords   []string
	UpdatedAt        time.Time
}

// Source provides the latest stored analysis for a tenant.
// Returns (nil, nil) when no analysis exists.
type Source interface {
	LatestAnalysis(ctx context.Context, tenant string) (*Analysis, error)
}

// Corpus is the aggregated keyword corpus for one tenant.
type Corpus struct {
	MainProducts     []string   `json:"main_products"`
	ProblemsSolved   []string   `json:"problems_solved"`
	CustomerSearches []string   `json:"customer_searches"`
	All              []string   `json:"all"`
	LastUpdated      *time.Time `json:"last_updated,omitempty"`
}

// Total returns the size of the deduplicated union.
func (c *Corpus) Total() int { return len(c.All) }

// Empty reports whether the corpus has no keywords at all.
func (c *Corpus) Empty() bool { return len(c.All) == 0 }

// Clean trims, filters and deduplicates a keyword list.
// Dropped: empty strings, entries of 2 runes or fewer, stop-words, and
// case-insensitive duplicates. The first-seen original casing is kept.
func Clean(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, kw := range list {
		kw = strings.TrimSpace(kw)
		if len([]rune(kw)) <= 2 {
			continue
		}
		folded := strings.ToLower(kw)
		if stopWords[folded] || seen[folded] {
			continue
		}
		seen[folded] = true
		out = append(out, kw)
	}
	return out
}

// unionDedup concatenates the categories, dropping case-insensitive
// duplicates. A keyword listed under two categories appears once.
func unionDedup(cats ...[]string) []string {
	seen := make(map[string]bool)
	var all []string
	for _, cat := range cats {
		for _, kw := range cat {
			folded := strings.ToLower(kw)
			if seen[folded] {
				continue
			}
			seen[folded] = true
			all = append(all, kw)
		}
	}
	return all
}

// splitLegacy splits a flat keyword list into three contiguous thirds,
// assigned in order to main products, problems solved, customer searches.
// Thirds are ceil-division sized so earlier categories absorb the remainder.
func splitLegacy(flat []string) (main, problems, searches []string) {
	n := len(flat)
	if n == 0 {
		return nil, nil, nil
	}
	third := (n + 2) / 3
	main = flat[:min(third, n)]
	if n > third {
		problems = flat[third:min(2*third, n)]
	}
	if n > 2*third {
		searches = flat[2*third:]
	}
	return main, problems, searches
}

// build assembles a Corpus from an analysis row. A nil analysis yields an
// all-empty corpus with a nil LastUpdated.
func build(a *Analysis) *Corpus {
	c := &Corpus{}
	if a == nil {
		return c
	}
	main, problems, searches := a.MainProducts, a.ProblemsSolved, a.CustomerSearches
	if len(main) == 0 && len(problems) == 0 && len(searches) == 0 {
		main, problems, searches = splitLegacy(a.LegacyKeywords)
	}
	c.MainProducts = Clean(main)
	c.ProblemsSolved = Clean(problems)
	c.CustomerSearches = Clean(searches)

	c.All = unionDedup(c.MainProducts, c.ProblemsSolved, c.CustomerSearches)
	if !a.UpdatedAt.IsZero() {
		ts := a.UpdatedAt
		c.LastUpdated = &ts
	}
	return c
}
