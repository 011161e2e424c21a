// Package textgen is the boundary to the external large-language-model
// text generator.
package textgen

import (
	"context"

	"github.com/veltaire/plume/topic"
)

// Request carries one generation job to the model.
type Request struct {
	Prompt *topic.Prompt
	// KeywordContext is the broader tenant keyword union, beyond the
	// prompt's focused subset.
	KeywordContext []string
	// StoreURL lets the model link back to the storefront.
	StoreURL string
}

// Content is the generated article.
type Content struct {
	Title     string   `json:"title"`
	BodyHTML  string   `json:"body_html"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	WordCount int      `json:"word_count"`
}

// Generator produces article content from an accepted prompt. Implementations
// own their network timeouts; callers impose none.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Content, error)
}
