// Package model wraps text-generation providers behind a single Generator
// interface and supplies the retry-and-parse helpers the runtime builds
// its secondary model calls from.
package model

import (
	"context"
	"errors"

	"github.com/cipherwebllc/eliza/core"
)

// ErrUnknownProvider is returned by New for provider names the registry
// does not recognize. The runtime treats it as fatal at construction.
var ErrUnknownProvider = errors.New("unknown model provider")

// ErrNoAnswer marks a completion that could not be parsed into the shape
// the caller asked for. It is retryable: the generation helpers treat it
// exactly like a transient provider failure.
var ErrNoAnswer = errors.New("model output not parseable")

// Request describes one generation call.
type Request struct {
	Context     string
	Class       core.ModelClass
	Stop        []string
	MaxTokens   int
	Temperature float64
}

// Generator produces a raw textual completion. Implementations must return
// provider errors as failures; retry policy lives with the caller.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ModelNames maps each class tier to a provider-specific model identifier.
type ModelNames struct {
	Small  string
	Medium string
	Large  string
}

// For returns the model name for a class, falling back tier by tier.
func (m ModelNames) For(class core.ModelClass) string {
	switch class {
	case core.ModelClassLarge:
		if m.Large != "" {
			return m.Large
		}
		fallthrough
	case core.ModelClassMedium:
		if m.Medium != "" {
			return m.Medium
		}
		fallthrough
	default:
		return m.Small
	}
}

// Config configures a provider adapter.
type Config struct {
	APIKey   string
	Endpoint string // optional endpoint override
	Models   ModelNames
}

// New builds a Generator for the named provider.
func New(provider string, cfg Config) (Generator, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(cfg), nil
	case "openai":
		return NewOpenAI(cfg), nil
	default:
		return nil, ErrUnknownProvider
	}
}
