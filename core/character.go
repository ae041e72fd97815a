package core

import "github.com/google/uuid"

// Style holds directions applied to all output, chat replies, and posts.
type Style struct {
	All  []string `json:"all"`
	Chat []string `json:"chat"`
	Post []string `json:"post"`
}

// Templates lets a character override the runtime's built-in prompt
// templates. Empty fields fall back to the defaults.
type Templates struct {
	EvaluationTemplate string `json:"evaluationTemplate,omitempty"`
	MessageTemplate    string `json:"messageTemplate,omitempty"`
	PostTemplate       string `json:"postTemplate,omitempty"`
}

// CharacterSettings carries per-character configuration. Secrets override
// Values; the runtime resolves both into a single precedence map at
// construction and never probes them again.
type CharacterSettings struct {
	Secrets map[string]string `json:"secrets,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
}

// Character defines an agent's identity and flavor material. Bio entries,
// lore, topics, and examples are sampled per turn to keep prompt size
// stable while varying content.
type Character struct {
	ID              uuid.UUID          `json:"id,omitempty"`
	Name            string             `json:"name"`
	Username        string             `json:"username,omitempty"`
	ModelProvider   string             `json:"modelProvider,omitempty"`
	Bio             []string           `json:"bio"`
	Lore            []string           `json:"lore"`
	Topics          []string           `json:"topics"`
	Adjectives      []string           `json:"adjectives"`
	Knowledge       []string           `json:"knowledge"`
	MessageExamples [][]MessageExample `json:"messageExamples"`
	PostExamples    []string           `json:"postExamples"`
	Style           Style              `json:"style"`
	Templates       Templates          `json:"templates"`
	Settings        CharacterSettings  `json:"settings"`
	Plugins         []Plugin           `json:"-"`
}
