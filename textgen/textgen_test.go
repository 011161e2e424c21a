package textgen

import (
	"strings"
	"testing"
)

func TestParseArticle_PlainJSON(t *testing.T) {
	// WHAT: A well-formed JSON reply decodes with a derived word count.
	raw := `{"title":"T","body_html":"<p>one two three</p>","summary":"s","tags":["a"]}`
	c, err := parseArticle(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Title != "T" || c.WordCount != 3 {
		t.Errorf("got %+v", c)
	}
}

func TestParseArticle_CodeFenced(t *testing.T) {
	// WHAT: Models often wrap JSON in markdown fences; we tolerate that.
	raw := "```json\n{\"title\":\"T\",\"body_html\":\"<p>hello world</p>\"}\n```"
	c, err := parseArticle(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.WordCount != 2 {
		t.Errorf("word count: got %d, want 2", c.WordCount)
	}
}

func TestParseArticle_MissingBody(t *testing.T) {
	// WHAT: A reply without body_html is rejected.
	// WHY: Publishing an empty article is worse than failing the run.
	if _, err := parseArticle(`{"title":"T"}`); err == nil {
		t.Error("expected error for missing body")
	}
}

func TestParseArticle_Garbage(t *testing.T) {
	if _, err := parseArticle("not json at all"); err == nil {
		t.Error("expected error for non-JSON reply")
	}
}

func TestStripTags(t *testing.T) {
	// WHAT: Tag stripping leaves only visible words for counting.
	got := strings.Fields(stripTags("<h2>Title</h2><p>body text</p>"))
	if len(got) != 3 {
		t.Errorf("got %v, want 3 words", got)
	}
}
