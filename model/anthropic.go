package model

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGenerator serves generation requests through the Anthropic
// Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	models ModelNames
}

// NewAnthropic builds an Anthropic-backed generator.
func NewAnthropic(cfg Config) *AnthropicGenerator {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	models := cfg.Models
	if models.Small == "" {
		models.Small = "claude-3-5-haiku-latest"
	}
	if models.Large == "" {
		models.Large = "claude-sonnet-4-20250514"
	}

	return &AnthropicGenerator{
		client: anthropic.NewClient(opts...),
		models: models,
	}
}

// Generate sends the context as a single user message and concatenates the
// text blocks of the reply.
func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.models.For(req.Class)),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Context)),
		},
	}
	if len(req.Stop) > 0 {
		params.StopSequences = req.Stop
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
