package memory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/model"
)

// Preprocess normalization steps, applied in order. Each step strips a
// class of markup or noise that would pollute fragment embeddings.
var preprocessSteps = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile("(?s)```.*?```"), ""},       // fenced code blocks
	{regexp.MustCompile("`.*?`"), ""},               // inline code
	{regexp.MustCompile(`#{1,6}\s*(.*)`), "$1"},     // markdown headers
	{regexp.MustCompile(`!\[(.*?)\]\(.*?\)`), "$1"}, // image links, keep alt text
	{regexp.MustCompile(`\[(.*?)\]\(.*?\)`), "$1"},  // links, keep label
	{regexp.MustCompile(`(https?://)?(www\.)?([^\s]+\.[^\s]+)`), "$3"}, // bare URLs
	{regexp.MustCompile(`<@[!&]?\d+>`), ""},         // chat mentions
	{regexp.MustCompile(`<[^>]*>`), ""},             // HTML tags
	{regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`), ""}, // horizontal rules
	{regexp.MustCompile(`(?s)/\*.*?\*/`), ""},       // block comments
	{regexp.MustCompile(`//.*`), ""},                // line comments
	{regexp.MustCompile(`\s+`), " "},                // collapse whitespace
	{regexp.MustCompile(`\n{3,}`), "\n\n"},          // collapse blank lines
	{regexp.MustCompile(`[^a-zA-Z0-9\s\-_./:?=&]`), ""},
}

// Preprocess normalizes raw text before chunking or querying. The output
// is lowercased plain text with markup, code and URLs stripped down to
// their readable parts. Preprocessing is idempotent.
func Preprocess(content string) string {
	if content == "" {
		return ""
	}
	for _, step := range preprocessSteps {
		content = step.re.ReplaceAllString(content, step.repl)
	}
	return strings.ToLower(strings.TrimSpace(content))
}

// KnowledgeConfig tunes fragment generation and retrieval.
type KnowledgeConfig struct {
	// ChunkSize is the target fragment length in runes.
	ChunkSize int
	// ChunkBleed is the overlap carried between adjacent fragments.
	ChunkBleed int
	// Count is the number of fragments fetched per query.
	Count int
	// MatchThreshold is the minimum similarity for a fragment to count.
	MatchThreshold float64
}

// DefaultKnowledgeConfig returns the standard chunking and retrieval
// parameters.
func DefaultKnowledgeConfig() KnowledgeConfig {
	return KnowledgeConfig{
		ChunkSize:      512,
		ChunkBleed:     20,
		Count:          5,
		MatchThreshold: 0.1,
	}
}

// Knowledge stores documents as a parent record plus embedded fragments,
// and retrieves whole documents by fragment similarity. Fragments live in
// the agent's own room so queries never mix with conversation memories.
type Knowledge struct {
	agentID   uuid.UUID
	documents core.MemoryManager
	fragments core.MemoryManager
	embedder  Embedder
	cfg       KnowledgeConfig
	log       zerolog.Logger
}

// NewKnowledge wires the knowledge subsystem over the documents and
// fragments managers.
func NewKnowledge(agentID uuid.UUID, documents, fragments core.MemoryManager, embedder Embedder, cfg KnowledgeConfig, log zerolog.Logger) *Knowledge {
	if cfg.ChunkSize <= 0 {
		cfg = DefaultKnowledgeConfig()
	}
	return &Knowledge{
		agentID:   agentID,
		documents: documents,
		fragments: fragments,
		embedder:  embedder,
		cfg:       cfg,
		log:       log,
	}
}

// Set ingests a knowledge item: the full document is stored under its own
// ID with a zero embedding, then the preprocessed text is split into
// fragments that each get embedded and stored with a pointer back to the
// document.
func (k *Knowledge) Set(ctx context.Context, item core.KnowledgeItem) error {
	doc := &core.Memory{
		ID:        item.ID,
		AgentID:   k.agentID,
		UserID:    k.agentID,
		RoomID:    k.agentID,
		Content:   item.Content,
		Embedding: ZeroVector(k.embedder.Dimensions()),
	}
	if err := k.documents.CreateMemory(ctx, doc, false); err != nil {
		return fmt.Errorf("store knowledge document: %w", err)
	}

	preprocessed := Preprocess(item.Content.Text)
	if preprocessed == "" {
		return nil
	}
	fragments := model.SplitChunks(preprocessed, k.cfg.ChunkSize, k.cfg.ChunkBleed)
	for _, fragment := range fragments {
		mem := &core.Memory{
			// Deterministic so re-ingesting a document overwrites its
			// old fragments instead of duplicating them.
			ID:      core.StringToUUID(item.ID.String() + fragment),
			AgentID: k.agentID,
			UserID:  k.agentID,
			RoomID:  k.agentID,
			Content: core.Content{
				Text:   fragment,
				Source: item.ID.String(),
			},
		}
		if err := k.fragments.CreateMemory(ctx, mem, false); err != nil {
			return fmt.Errorf("store knowledge fragment: %w", err)
		}
	}
	return nil
}

// Get retrieves the documents most relevant to a message. The message text
// is preprocessed and embedded, matching fragments are resolved back to
// their parent documents, and each document is returned once.
func (k *Knowledge) Get(ctx context.Context, message core.Memory) ([]core.KnowledgeItem, error) {
	processed := Preprocess(message.Content.Text)
	if processed == "" {
		return nil, nil
	}

	embedding, err := k.embedder.Embed(ctx, processed)
	if err != nil {
		return nil, fmt.Errorf("embed knowledge query: %w", err)
	}

	fragments, err := k.fragments.SearchMemoriesByEmbedding(ctx, embedding, core.SearchMemoriesOptions{
		RoomID:         k.agentID,
		Count:          k.cfg.Count,
		MatchThreshold: k.cfg.MatchThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("search knowledge fragments: %w", err)
	}

	seen := make(map[string]bool, len(fragments))
	var sources []string
	for _, fragment := range fragments {
		src := fragment.Content.Source
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		sources = append(sources, src)
	}

	var items []core.KnowledgeItem
	for _, src := range sources {
		id, err := uuid.Parse(src)
		if err != nil {
			k.log.Warn().Str("source", src).Msg("knowledge fragment has malformed source id")
			continue
		}
		doc, err := k.documents.GetMemoryByID(ctx, id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				k.log.Warn().Stringer("document_id", id).Msg("knowledge fragment points at missing document")
				continue
			}
			return nil, fmt.Errorf("resolve knowledge document: %w", err)
		}
		items = append(items, core.KnowledgeItem{ID: doc.ID, Content: doc.Content})
	}
	return items, nil
}
