// Package topic generates blog topics that are provably non-duplicate
// against a tenant's recent posting history.
//
// Generation rotates through five fixed content angles, fills an angle
// template from the tenant's keyword corpus, and iterates deterministic
// variations until one passes fingerprint, keyword-overlap and
// topic-similarity checks. Failure to find a unique topic is not an error;
// it degrades to a flagged fallback prompt.
package topic

import "time"

// Angle is a thematic lens for a generated topic.
type Angle string

// The five content angles, in fixed tie-break order.
const (
	AngleHowTo      Angle = "how-to"
	AngleBenefits   Angle = "benefits"
	AngleProblems   Angle = "problems"
	AngleComparison Angle = "comparison"
	AngleTrend      Angle = "trend"
)

// Angles returns all angles in their fixed enumeration order.
// Tie-breaks during angle selection follow this order.
func Angles() []Angle {
	return []Angle{AngleHowTo, AngleBenefits, AngleProblems, AngleComparison, AngleTrend}
}

// Valid reports whether a is one of the five defined angles.
func (a Angle) Valid() bool {
	switch a {
	case AngleHowTo, AngleBenefits, AngleProblems, AngleComparison, AngleTrend:
		return true
	}
	return false
}

// Template is the static topic pattern for one angle.
type Template struct {
	// Format contains {product}, {problem}, {customer} and {year} placeholders.
	Format string
	// MinKeywords is the smallest focused keyword subset this angle needs.
	MinKeywords int
	// TitlePrefix leads the human title derived from the topic.
	TitlePrefix string
}

var templates = map[Angle]Template{
	AngleHowTo: {
		Format:      "How to Choose the Right {product} for {problem}",
		MinKeywords: 3,
		TitlePrefix: "The Complete Guide:",
	},
	AngleBenefits: {
		Format:      "Key Benefits of {product} Every {customer} Should Know",
		MinKeywords: 2,
		TitlePrefix: "Why It Matters:",
	},
	AngleProblems: {
		Format:      "Common Mistakes With {problem} and How {product} Fixes Them",
		MinKeywords: 3,
		TitlePrefix: "Problem Solved:",
	},
	AngleComparison: {
		Format:      "{product} vs the Alternatives: What {customer} Look For in {year}",
		MinKeywords: 4,
		TitlePrefix: "Head to Head:",
	},
	AngleTrend: {
		Format:      "{year} Trends: Where {product} Is Heading for {customer}",
		MinKeywords: 2,
		TitlePrefix: "Trending Now:",
	},
}

// TemplateFor returns the static template for an angle.
func TemplateFor(a Angle) Template {
	return templates[a]
}

// RecentPost is one published post inside the lookback window.
type RecentPost struct {
	PrimaryTopic    string
	KeywordsFocused []string
	ContentAngle    Angle
	ContentHash     string
	CreatedAt       time.Time
}

// leastUsedAngle picks the angle with the lowest usage count among posts,
// breaking ties by enumeration order.
func leastUsedAngle(posts []*RecentPost) Angle {
	counts := make(map[Angle]int, 5)
	for _, p := range posts {
		counts[p.ContentAngle]++
	}
	best := AngleHowTo
	bestCount := counts[AngleHowTo]
	for _, a := range Angles() {
		if counts[a] < bestCount {
			best = a
			bestCount = counts[a]
		}
	}
	return best
}
