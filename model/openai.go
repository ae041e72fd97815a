package model

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator serves generation requests through the OpenAI chat
// completion API. Endpoint overrides allow OpenAI-compatible servers.
type OpenAIGenerator struct {
	client *openai.Client
	models ModelNames
}

// NewOpenAI builds an OpenAI-backed generator.
func NewOpenAI(cfg Config) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}

	models := cfg.Models
	if models.Small == "" {
		models.Small = openai.GPT4oMini
	}
	if models.Large == "" {
		models.Large = openai.GPT4o
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		models: models,
	}
}

// Generate sends the context as a single user message.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.models.For(req.Class),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Context},
		},
		Stop:        req.Stop,
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai generate: empty choice list")
	}
	return resp.Choices[0].Message.Content, nil
}
