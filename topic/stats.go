package topic

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// AngleUsage is one angle's usage inside the lookback window.
type AngleUsage struct {
	Angle    Angle      `json:"angle"`
	Count    int        `json:"count"`
	LastUsed *time.Time `json:"last_used,omitempty"`
}

// AngleStats summarizes angle rotation for a tenant.
type AngleStats struct {
	DaysBack int          `json:"days_back"`
	Usage    []AngleUsage `json:"usage"`
	// Recommended ranks angles from least to most used, ties broken by the
	// fixed enumeration order. The first entry is the next pick.
	Recommended []Angle `json:"recommended"`
}

// AngleStats reports per-angle usage counts, last-used dates, and a ranked
// recommendation of the least-used angles over the past daysBack days.
func (g *Generator) AngleStats(ctx context.Context, tenant string, daysBack int) (*AngleStats, error) {
	if daysBack <= 0 {
		daysBack = g.constraints.MinDaysBetween
	}
	since := g.now().AddDate(0, 0, -daysBack)
	recent, err := g.posts.PostsSince(ctx, tenant, since)
	if err != nil {
		return nil, fmt.Errorf("topic: load recent posts: %w", err)
	}

	counts := make(map[Angle]int, 5)
	last := make(map[Angle]time.Time, 5)
	for _, p := range recent {
		counts[p.ContentAngle]++
		if p.CreatedAt.After(last[p.ContentAngle]) {
			last[p.ContentAngle] = p.CreatedAt
		}
	}

	stats := &AngleStats{DaysBack: daysBack}
	order := make(map[Angle]int, 5)
	for i, a := range Angles() {
		order[a] = i
		u := AngleUsage{Angle: a, Count: counts[a]}
		if ts, ok := last[a]; ok {
			u.LastUsed = &ts
		}
		stats.Usage = append(stats.Usage, u)
		stats.Recommended = append(stats.Recommended, a)
	}
	sort.SliceStable(stats.Recommended, func(i, j int) bool {
		a, b := stats.Recommended[i], stats.Recommended[j]
		if counts[a] != counts[b] {
			return counts[a] < counts[b]
		}
		return order[a] < order[b]
	})
	return stats, nil
}
