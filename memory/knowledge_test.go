package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/memory"
	"github.com/cipherwebllc/eliza/memory/embedder/mock"
	"github.com/cipherwebllc/eliza/memory/store/local"
)

func TestPreprocess(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercases and trims", "  Hello World  ", "hello world"},
		{"strips fenced code", "before ```code here``` after", "before after"},
		{"strips inline code", "use `fmt.Println` here", "use here"},
		{"strips html", "hello <b>world</b>", "hello world"},
		{"keeps header text", "## Section Title", "section title"},
		{"keeps link label", "[read this](https://example.com/page)", "read this"},
		{"strips line comments", "value // trailing note", "value"},
		{"collapses whitespace", "a\t\tb\n\nc", "a b c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := memory.Preprocess(tc.in); got != tc.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	in := "# Notes\nSee `the code` at <https://example.com/x> for *details*."
	once := memory.Preprocess(in)
	twice := memory.Preprocess(once)
	if once != twice {
		t.Errorf("preprocess should be idempotent:\nonce:  %q\ntwice: %q", once, twice)
	}
}

func newKnowledge(t *testing.T) (*memory.Knowledge, core.MemoryManager, uuid.UUID) {
	t.Helper()
	agentID := uuid.New()
	db := local.New()
	embedder := mock.New(64)
	log := zerolog.Nop()
	documents := memory.NewManager("documents", agentID, db, embedder, log)
	fragments := memory.NewManager("fragments", agentID, db, embedder, log)
	k := memory.NewKnowledge(agentID, documents, fragments, embedder, memory.KnowledgeConfig{
		ChunkSize:      60,
		ChunkBleed:     10,
		Count:          5,
		MatchThreshold: 0.1,
	}, log)
	return k, fragments, agentID
}

func TestKnowledgeSetCreatesFragments(t *testing.T) {
	ctx := context.Background()
	k, fragments, agentID := newKnowledge(t)

	text := strings.Repeat("the deployment freeze starts in december. ", 8)
	item := core.KnowledgeItem{ID: uuid.New(), Content: core.Content{Text: text}}
	if err := k.Set(ctx, item); err != nil {
		t.Fatalf("set: %v", err)
	}

	n, err := fragments.CountMemories(ctx, agentID, false)
	if err != nil {
		t.Fatalf("count fragments: %v", err)
	}
	if n < 2 {
		t.Errorf("long document should split into multiple fragments, got %d", n)
	}

	stored, err := fragments.GetMemories(ctx, core.GetMemoriesOptions{RoomID: agentID})
	if err != nil {
		t.Fatalf("get fragments: %v", err)
	}
	for _, frag := range stored {
		if frag.Content.Source != item.ID.String() {
			t.Errorf("fragment should reference its document, got source %q", frag.Content.Source)
		}
	}
}

func TestKnowledgeGetResolvesParentDocument(t *testing.T) {
	ctx := context.Background()
	k, _, _ := newKnowledge(t)

	item := core.KnowledgeItem{
		ID:      uuid.New(),
		Content: core.Content{Text: "the support rotation hands over every wednesday"},
	}
	if err := k.Set(ctx, item); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Querying with the exact fragment text guarantees a match under the
	// deterministic mock embedder.
	got, err := k.Get(ctx, core.Memory{
		ID:      uuid.New(),
		Content: core.Content{Text: "the support rotation hands over every wednesday"},
	})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one knowledge item, got %d", len(got))
	}
	if got[0].ID != item.ID {
		t.Errorf("result should resolve to the parent document, got %s", got[0].ID)
	}
	if got[0].Content.Text != item.Content.Text {
		t.Errorf("result should carry the full document text, got %q", got[0].Content.Text)
	}
}

func TestKnowledgeGetEmptyQuery(t *testing.T) {
	ctx := context.Background()
	k, _, _ := newKnowledge(t)

	got, err := k.Get(ctx, core.Memory{ID: uuid.New(), Content: core.Content{Text: "***"}})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("query that preprocesses to empty should return nil, got %v", got)
	}
}
