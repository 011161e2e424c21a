package textgen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures the OpenAI-backed generator.
type OpenAIConfig struct {
	APIKey string
	// Model defaults to gpt-4o-mini.
	Model string
	// Timeout bounds one generation call. Default: 120 seconds.
	Timeout time.Duration
}

func (c *OpenAIConfig) defaults() {
	if c.Model == "" {
		c.Model = openai.ChatModelGPT4oMini
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
}

// OpenAIGenerator implements Generator against the OpenAI chat API.
type OpenAIGenerator struct {
	client openai.Client
	config OpenAIConfig
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI-backed generator.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) *OpenAIGenerator {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIGenerator{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		config: cfg,
		logger: logger,
	}
}

const systemPrompt = `You write blog articles for small e-commerce storefronts.
Respond with a single JSON object: {"title": string, "body_html": string,
"summary": string, "tags": [string]}. body_html is clean article HTML
(h2/h3/p/ul only), 700-1100 words, no inline styles, no scripts.`

// Generate asks the model for an article built around the prompt's topic and
// focused keywords.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Content, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	user := fmt.Sprintf(
		"Topic: %s\nAngle: %s\nFocus keywords: %s\nStore keyword context: %s\nStore URL: %s\nProposed title: %s",
		req.Prompt.Topic, req.Prompt.Angle,
		strings.Join(req.Prompt.Keywords, ", "),
		strings.Join(req.KeywordContext, ", "),
		req.StoreURL, req.Prompt.Title,
	)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.config.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("textgen: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("textgen: empty completion")
	}

	content, err := parseArticle(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if content.Title == "" {
		content.Title = req.Prompt.Title
	}
	g.logger.Debug("textgen: article generated",
		"model", g.config.Model, "words", content.WordCount)
	return content, nil
}

// parseArticle decodes the model's JSON reply, tolerating code fences.
func parseArticle(raw string) (*Content, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var c Content
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return nil, fmt.Errorf("textgen: malformed model reply: %w", err)
	}
	if c.BodyHTML == "" {
		return nil, fmt.Errorf("textgen: model reply missing body")
	}
	c.WordCount = len(strings.Fields(stripTags(c.BodyHTML)))
	return &c, nil
}

// stripTags removes markup for word counting only; sanitization for
// publication happens at the publisher boundary.
func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
