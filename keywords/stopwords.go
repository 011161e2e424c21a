package keywords

import "strings"

// stopWords are filtered from every category during cleaning. Lowercase.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "your": true, "you": true, "are": true, "was": true,
	"has": true, "have": true, "had": true, "but": true, "not": true,
	"all": true, "can": true, "get": true, "our": true, "out": true,
	"how": true, "what": true, "when": true, "where": true, "why": true,
	"who": true, "will": true, "from": true, "they": true, "them": true,
	"their": true, "its": true, "about": true, "more": true, "other": true,
	"some": true, "into": true, "than": true, "then": true, "only": true,
	"over": true, "just": true, "also": true, "very": true, "such": true,
	"best": true, "top": true, "new": true,
}

// IsStopWord reports whether w (any casing) is on the stop list.
func IsStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}
