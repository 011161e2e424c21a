package topic

import (
	"context"
	"testing"
	"time"

	"github.com/veltaire/plume/keywords"
)

// fakePosts serves a canned post history.
type fakePosts struct {
	posts []*RecentPost
}

func (f *fakePosts) PostsSince(ctx context.Context, tenant string, since time.Time) ([]*RecentPost, error) {
	var out []*RecentPost
	for _, p := range f.posts {
		if p.CreatedAt.After(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func testCorpus() *keywords.Corpus {
	return &keywords.Corpus{
		MainProducts:     []string{"soy candles", "wick trimmers", "wax melts"},
		ProblemsSolved:   []string{"stale air", "stress"},
		CustomerSearches: []string{"home fragrance"},
		All: []string{
			"soy candles", "wick trimmers", "wax melts",
			"stale air", "stress", "home fragrance",
		},
	}
}

func testGenerator(posts []*RecentPost) *Generator {
	return NewGenerator(&fakePosts{posts: posts}, Constraints{}, nil,
		WithClock(func() time.Time { return testNow }))
}

func TestUniquePrompt_EmptyHistory(t *testing.T) {
	// WHAT: With no recent posts the very first variation is accepted.
	g := testGenerator(nil)
	p, err := g.UniquePrompt(context.Background(), "shop-1", testCorpus())
	if err != nil {
		t.Fatalf("unique prompt: %v", err)
	}
	if !p.IsUnique {
		t.Error("prompt should be unique")
	}
	if p.Attempt != 0 {
		t.Errorf("attempt: got %d, want 0", p.Attempt)
	}
	if p.Angle != AngleHowTo {
		t.Errorf("angle: got %s, want how-to (tie-break order)", p.Angle)
	}
	if p.Topic == "" || p.Title == "" || p.Slug == "" || len(p.Fingerprint) != 16 {
		t.Errorf("incomplete prompt: %+v", p)
	}
}

func TestUniquePrompt_PicksLeastUsedAngle(t *testing.T) {
	// WHAT: The angle with the lowest usage in the lookback window wins.
	// WHY: This is what guarantees long-run rotation across the five angles.
	history := []*RecentPost{
		{PrimaryTopic: "t1", ContentAngle: AngleHowTo, CreatedAt: testNow.AddDate(0, 0, -1)},
		{PrimaryTopic: "t2", ContentAngle: AngleBenefits, CreatedAt: testNow.AddDate(0, 0, -2)},
		{PrimaryTopic: "t3", ContentAngle: AngleProblems, CreatedAt: testNow.AddDate(0, 0, -3)},
		{PrimaryTopic: "t4", ContentAngle: AngleComparison, CreatedAt: testNow.AddDate(0, 0, -4)},
	}
	g := testGenerator(history)
	p, err := g.UniquePrompt(context.Background(), "shop-1", testCorpus())
	if err != nil {
		t.Fatalf("unique prompt: %v", err)
	}
	if p.Angle != AngleTrend {
		t.Errorf("angle: got %s, want trend (only unused angle)", p.Angle)
	}
}

func TestUniquePrompt_OldPostsOutsideWindow(t *testing.T) {
	// WHAT: Posts older than the lookback window do not influence selection.
	history := []*RecentPost{
		{PrimaryTopic: "ancient", ContentAngle: AngleHowTo, CreatedAt: testNow.AddDate(0, 0, -45)},
	}
	g := testGenerator(history)
	p, _ := g.UniquePrompt(context.Background(), "shop-1", testCorpus())
	if p.Angle != AngleHowTo {
		t.Errorf("angle: got %s, want how-to (history outside window)", p.Angle)
	}
}

func TestUniquePrompt_DistinctFingerprintsAcrossAttempts(t *testing.T) {
	// WHAT: On a realistically sized corpus the 10 variation attempts all
	// carry distinct fingerprints.
	// WHY: Identical attempts would waste the variation budget.
	g := testGenerator(nil)
	c := &keywords.Corpus{
		MainProducts: []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6"},
		All: []string{
			"kw0", "kw1", "kw2", "kw3", "kw4", "kw5", "kw6",
			"kw7", "kw8", "kw9", "kw10", "kw11", "kw12",
		},
	}
	seen := map[string]int{}
	for v := 0; v < maxAttempts; v++ {
		p := g.variation(c, AngleHowTo, v, testNow)
		if p == nil {
			t.Fatalf("attempt %d: nil variation", v)
		}
		if prev, dup := seen[p.Fingerprint]; dup {
			t.Errorf("attempts %d and %d share fingerprint %s", prev, v, p.Fingerprint)
		}
		seen[p.Fingerprint] = v
	}
}

func TestUniquePrompt_RejectsKeywordOverlap(t *testing.T) {
	// WHAT: A recent post sharing too many keywords forces another attempt.
	c := testCorpus()
	first := testGenerator(nil)
	p0, _ := first.UniquePrompt(context.Background(), "shop-1", c)

	history := []*RecentPost{{
		PrimaryTopic:    "something unrelated entirely",
		KeywordsFocused: p0.Keywords,
		ContentAngle:    AngleBenefits,
		CreatedAt:       testNow.AddDate(0, 0, -5),
	}}
	g := testGenerator(history)
	p, err := g.UniquePrompt(context.Background(), "shop-1", c)
	if err != nil {
		t.Fatalf("unique prompt: %v", err)
	}
	if p.IsUnique && KeywordOverlap(p.Keywords, p0.Keywords) > 0.60 {
		t.Errorf("accepted prompt overlaps history: %v", p.Keywords)
	}
}

func TestUniquePrompt_FallbackAfterExhaustion(t *testing.T) {
	// WHAT: When every attempt collides, the fallback is returned flagged
	// non-unique instead of an error.
	// WHY: Unattended generation must always produce something publishable.
	c := testCorpus()
	g := testGenerator(nil)

	// Poison history with every variation of every angle.
	var history []*RecentPost
	for _, a := range Angles() {
		for v := 0; v < maxAttempts; v++ {
			if p := g.variation(c, a, v, testNow); p != nil {
				history = append(history, &RecentPost{
					PrimaryTopic:    p.Topic,
					KeywordsFocused: p.Keywords,
					ContentAngle:    a,
					ContentHash:     p.Fingerprint,
					CreatedAt:       testNow.AddDate(0, 0, -2),
				})
			}
		}
	}
	g2 := testGenerator(history)
	p, err := g2.UniquePrompt(context.Background(), "shop-1", c)
	if err != nil {
		t.Fatalf("fallback should not error: %v", err)
	}
	if p.IsUnique {
		t.Error("fallback must be flagged non-unique")
	}
	if p.Angle != AngleHowTo {
		t.Errorf("fallback angle: got %s, want how-to", p.Angle)
	}
	if len(p.Keywords) > 3 {
		t.Errorf("fallback keywords: got %d, want at most 3", len(p.Keywords))
	}
}

func TestUniquePrompt_EmptyCorpusFallsBack(t *testing.T) {
	// WHAT: An empty corpus cannot produce variations; fallback applies.
	g := testGenerator(nil)
	p, err := g.UniquePrompt(context.Background(), "shop-1", &keywords.Corpus{})
	if err != nil {
		t.Fatalf("unique prompt: %v", err)
	}
	if p.IsUnique {
		t.Error("empty-corpus prompt must be flagged non-unique")
	}
}

func TestCheckUniqueness_ReportsOffenders(t *testing.T) {
	// WHAT: The read-only check returns the colliding posts.
	history := []*RecentPost{
		{
			PrimaryTopic:    "how to choose soy candles for stale air",
			KeywordsFocused: []string{"soy candles", "stale air"},
			ContentAngle:    AngleHowTo,
			CreatedAt:       testNow.AddDate(0, 0, -3),
		},
		{
			PrimaryTopic:    "winter boot care basics",
			KeywordsFocused: []string{"winter boots"},
			ContentAngle:    AngleTrend,
			CreatedAt:       testNow.AddDate(0, 0, -4),
		},
	}
	g := testGenerator(history)
	offenders, err := g.CheckUniqueness(context.Background(), "shop-1",
		"How to choose soy candles for stale air", []string{"soy candles", "stale air"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(offenders) != 1 {
		t.Fatalf("offenders: got %d, want 1", len(offenders))
	}
	if offenders[0].PrimaryTopic != history[0].PrimaryTopic {
		t.Errorf("wrong offender: %q", offenders[0].PrimaryTopic)
	}
}

func TestCheckUniqueness_MatchesStoredAngleHash(t *testing.T) {
	// WHAT: A stored content hash catches a resubmitted topic even when the
	// post's topic text and focus keywords are unrecognizable on their own.
	// WHY: Hashes are computed with a concrete angle at publish time; the
	// check has no angle of its own and must compare across all of them.
	topicText := "Candle Care Rituals for Long Winter Evenings"
	kws := []string{"candle care", "winter evenings"}
	history := []*RecentPost{
		{
			PrimaryTopic:    "entirely unrelated archive entry",
			KeywordsFocused: []string{"garden hoses"},
			ContentHash:     Fingerprint(topicText, kws, AngleTrend),
			ContentAngle:    AngleTrend,
			CreatedAt:       testNow.AddDate(0, 0, -2),
		},
	}
	g := testGenerator(history)
	offenders, err := g.CheckUniqueness(context.Background(), "shop-1", topicText, kws)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(offenders) != 1 {
		t.Fatalf("offenders: got %d, want 1", len(offenders))
	}
	if offenders[0].ContentHash != history[0].ContentHash {
		t.Errorf("wrong offender: %q", offenders[0].PrimaryTopic)
	}
}

func TestAngleStats_RankedRecommendation(t *testing.T) {
	// WHAT: Recommendation ranks least-used first, ties by enum order.
	history := []*RecentPost{
		{ContentAngle: AngleHowTo, CreatedAt: testNow.AddDate(0, 0, -1)},
		{ContentAngle: AngleHowTo, CreatedAt: testNow.AddDate(0, 0, -2)},
		{ContentAngle: AngleTrend, CreatedAt: testNow.AddDate(0, 0, -3)},
	}
	g := testGenerator(history)
	stats, err := g.AngleStats(context.Background(), "shop-1", 30)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := []Angle{AngleBenefits, AngleProblems, AngleComparison, AngleTrend, AngleHowTo}
	for i, a := range want {
		if stats.Recommended[i] != a {
			t.Fatalf("recommended: got %v, want %v", stats.Recommended, want)
		}
	}
	for _, u := range stats.Usage {
		if u.Angle == AngleHowTo {
			if u.Count != 2 || u.LastUsed == nil {
				t.Errorf("how-to usage: %+v", u)
			}
		}
	}
}
