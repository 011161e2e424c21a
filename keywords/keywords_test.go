package keywords

import (
	"strings"
	"testing"
	"time"
)

func TestClean_DropsShortAndStopWords(t *testing.T) {
	// WHAT: Cleaning removes entries of 2 chars or fewer and stop-words.
	// WHY: Short tokens and stop-words pollute topic templates.
	in := []string{"ab", "x", "", "the", "And", "leather boots", "yoga mat"}
	out := Clean(in)
	want := []string{"leather boots", "yoga mat"}
	if len(out) != len(want) {
		t.Fatalf("got %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, out[i], want[i])
		}
	}
}

func TestClean_DedupCaseInsensitive(t *testing.T) {
	// WHAT: Duplicates under case folding collapse to the first-seen casing.
	// WHY: "Yoga Mat" and "yoga mat" are the same keyword to a shopper.
	out := Clean([]string{"Yoga Mat", "yoga mat", "YOGA MAT", "candles"})
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %v", out)
	}
	if out[0] != "Yoga Mat" {
		t.Errorf("first-seen casing lost: got %q", out[0])
	}
}

func TestClean_NeverYieldsInvalidEntries(t *testing.T) {
	// WHAT: Post-clean lists contain no dup, no short entry, no stop-word.
	// WHY: Downstream uniqueness math assumes these invariants hold.
	in := []string{"candles", "Candles", "it", "with", "soy wax", "  soy wax  ", "wick trimmer"}
	out := Clean(in)
	seen := map[string]bool{}
	for _, kw := range out {
		folded := strings.ToLower(kw)
		if seen[folded] {
			t.Errorf("duplicate after clean: %q", kw)
		}
		seen[folded] = true
		if len(kw) <= 2 {
			t.Errorf("short entry after clean: %q", kw)
		}
		if IsStopWord(kw) {
			t.Errorf("stop-word after clean: %q", kw)
		}
	}
}

func TestSplitLegacy_NineIntoThirds(t *testing.T) {
	// WHAT: A 9-entry legacy flat list splits into 3/3/3 preserving order.
	// WHY: Old analyses only carried one flat list; the split is the documented
	// migration behavior.
	flat := []string{"a1", "a2", "a3", "b1", "b2", "b3", "c1", "c2", "c3"}
	main, problems, searches := splitLegacy(flat)
	if len(main) != 3 || len(problems) != 3 || len(searches) != 3 {
		t.Fatalf("split sizes: %d/%d/%d", len(main), len(problems), len(searches))
	}
	if main[0] != "a1" || problems[0] != "b1" || searches[0] != "c1" {
		t.Errorf("order not preserved: %v %v %v", main, problems, searches)
	}
}

func TestSplitLegacy_CeilDivision(t *testing.T) {
	// WHAT: Uneven lists give earlier categories the remainder (ceil-division).
	main, problems, searches := splitLegacy([]string{"k1", "k2", "k3", "k4", "k5"})
	if len(main) != 2 || len(problems) != 2 || len(searches) != 1 {
		t.Errorf("split sizes: %d/%d/%d, want 2/2/1", len(main), len(problems), len(searches))
	}
}

func TestBuild_UnionDedupAcrossCategories(t *testing.T) {
	// WHAT: The All union dedups across categories, not just within one.
	a := &Analysis{
		MainProducts:   []string{"soy candles", "wick trimmer"},
		ProblemsSolved: []string{"Soy Candles", "dry air"},
		UpdatedAt:      time.Now(),
	}
	c := build(a)
	if c.Total() != 3 {
		t.Fatalf("union size: got %d (%v), want 3", c.Total(), c.All)
	}
}

func TestBuild_NilAnalysis(t *testing.T) {
	// WHAT: No stored analysis yields an empty corpus, nil LastUpdated.
	// WHY: A tenant without keywords is a normal state, not an error.
	c := build(nil)
	if !c.Empty() {
		t.Error("corpus should be empty")
	}
	if c.LastUpdated != nil {
		t.Error("LastUpdated should be nil")
	}
}
