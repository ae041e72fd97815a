// Package config holds the process-level settings struct and the resolved
// per-runtime configuration map. The runtime never reads ambient globals:
// everything it needs arrives through an explicit Settings value, and
// character-level secrets/settings are folded into one precedence map at
// construction time.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Settings is the environment-derived configuration. Variables use the
// ELIZA_ prefix (ELIZA_MODEL_PROVIDER, ELIZA_MODEL_API_KEY, ...).
type Settings struct {
	// ModelProvider selects the text-generation backend ("anthropic" or
	// "openai"). An unrecognized name is fatal at runtime construction.
	ModelProvider string `envconfig:"MODEL_PROVIDER" default:"anthropic"`

	// ModelAPIKey authenticates against the selected provider.
	ModelAPIKey string `envconfig:"MODEL_API_KEY" default:""`

	// ModelEndpoint overrides the provider's default endpoint when set.
	ModelEndpoint string `envconfig:"MODEL_ENDPOINT" default:""`

	// ConversationLength is the number of recent messages held in the
	// per-turn state window.
	ConversationLength int `envconfig:"CONVERSATION_LENGTH" default:"32"`

	// EmbeddingDimensions is the configured embedding vector size.
	EmbeddingDimensions int `envconfig:"EMBEDDING_DIMENSIONS" default:"384"`

	// KnowledgeChunkSize and KnowledgeChunkBleed control document
	// fragmentation for the knowledge store.
	KnowledgeChunkSize  int `envconfig:"KNOWLEDGE_CHUNK_SIZE" default:"512"`
	KnowledgeChunkBleed int `envconfig:"KNOWLEDGE_CHUNK_BLEED" default:"20"`

	// Extra carries provider-specific keys (model name overrides and the
	// like) that the resolver exposes through GetSetting.
	Extra map[string]string `envconfig:"EXTRA"`
}

// Load parses Settings from the environment.
func Load() (Settings, error) {
	var s Settings
	if err := envconfig.Process("ELIZA", &s); err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

// Resolved is the flattened per-runtime configuration map. Precedence,
// highest first: character secrets, character settings, process extras.
type Resolved map[string]string

// Resolve builds the precedence map once. Lookups afterwards are plain map
// reads; no layer is probed again.
func Resolve(settings Settings, values, secrets map[string]string) Resolved {
	r := make(Resolved, len(settings.Extra)+len(values)+len(secrets))
	for k, v := range settings.Extra {
		r[k] = v
	}
	for k, v := range values {
		r[k] = v
	}
	for k, v := range secrets {
		r[k] = v
	}
	return r
}

// Get returns the resolved value for key, or empty when unset.
func (r Resolved) Get(key string) string {
	return r[key]
}
