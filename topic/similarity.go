package topic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Fingerprint hashes a (topic, keyword set, angle) combination into a short
// identifier for exact-duplicate detection. Keywords are case-folded and
// sorted so ordering never changes the hash.
func Fingerprint(topicText string, kws []string, angle Angle) string {
	sorted := make([]string, len(kws))
	for i, kw := range kws {
		sorted[i] = strings.ToLower(kw)
	}
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(topicText + "|" + strings.Join(sorted, ",") + "|" + string(angle)))
	return hex.EncodeToString(sum[:])[:16]
}

// KeywordOverlap is the Jaccard similarity of two keyword sets under case
// folding: |intersection| / |union|. Two empty sets overlap fully.
func KeywordOverlap(a, b []string) float64 {
	setA := foldSet(a)
	setB := foldSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	inter := 0
	for kw := range setA {
		if setB[kw] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// TopicSimilarity is the word-level Jaccard similarity of two topic strings.
func TopicSimilarity(a, b string) float64 {
	return KeywordOverlap(words(a), words(b))
}

func foldSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = true
		}
	}
	return set
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Slugify derives a URL-safe slug from a title: lowercase, restricted to
// [a-z0-9- ], whitespace collapsed to single hyphens, trimmed to 50 chars,
// plus a 6-digit time-derived suffix for collision avoidance.
func Slugify(title string, at time.Time) string {
	lower := strings.ToLower(title)
	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	slug := strings.Join(strings.Fields(b.String()), "-")
	if len(slug) > 50 {
		slug = strings.TrimRight(slug[:50], "-")
	}
	return fmt.Sprintf("%s-%06d", slug, at.Unix()%1000000)
}
