package memory_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cipherwebllc/eliza/cache"
	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/memory"
	"github.com/cipherwebllc/eliza/memory/embedder/mock"
	"github.com/cipherwebllc/eliza/memory/store/local"
)

func newManager(t *testing.T, table string) (*memory.Manager, uuid.UUID) {
	t.Helper()
	agentID := uuid.New()
	return memory.NewManager(table, agentID, local.New(), mock.New(64), zerolog.Nop()), agentID
}

func TestManagerCreateDefaultsAndRetrieve(t *testing.T) {
	ctx := context.Background()
	m, agentID := newManager(t, "messages")
	roomID := uuid.New()

	mem := &core.Memory{
		UserID:  agentID,
		AgentID: agentID,
		RoomID:  roomID,
		Content: core.Content{Text: "hello world"},
	}
	if err := m.CreateMemory(ctx, mem, false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if mem.ID == uuid.Nil {
		t.Error("create should assign an ID")
	}
	if mem.CreatedAt == 0 {
		t.Error("create should assign a timestamp")
	}
	if len(mem.Embedding) != 64 {
		t.Errorf("create should backfill the embedding, got %d dims", len(mem.Embedding))
	}

	got, err := m.GetMemoryByID(ctx, mem.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content.Text != "hello world" {
		t.Errorf("unexpected content: %q", got.Content.Text)
	}

	if _, err := m.GetMemoryByID(ctx, uuid.New()); err != core.ErrNotFound {
		t.Errorf("missing memory should return ErrNotFound, got %v", err)
	}
}

func TestManagerEmptyTextGetsZeroVector(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, "messages")

	mem := &core.Memory{RoomID: uuid.New(), Content: core.Content{Text: "   "}}
	if err := m.AddEmbeddingToMemory(ctx, mem); err != nil {
		t.Fatalf("add embedding: %v", err)
	}
	for _, v := range mem.Embedding {
		if v != 0 {
			t.Fatal("whitespace-only text should embed as a zero vector")
		}
	}
}

func TestManagerWindowAndCount(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, "messages")
	roomID := uuid.New()

	for i := 0; i < 5; i++ {
		mem := &core.Memory{
			RoomID:    roomID,
			Content:   core.Content{Text: "message"},
			CreatedAt: int64(1000 + i),
		}
		mem.ID = uuid.New()
		if err := m.CreateMemory(ctx, mem, false); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := m.GetMemories(ctx, core.GetMemoriesOptions{RoomID: roomID, Count: 3})
	if err != nil {
		t.Fatalf("get memories: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("count cap ignored: got %d", len(got))
	}
	if got[0].CreatedAt < got[1].CreatedAt {
		t.Error("memories should be newest first")
	}

	n, err := m.CountMemories(ctx, roomID, false)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 memories, got %d", n)
	}
}

func TestManagerSearchFindsSameText(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, "fragments")
	roomID := uuid.New()
	embedder := mock.New(64)

	texts := []string{"apples and oranges", "weather report for tomorrow", "stock market update"}
	for _, text := range texts {
		mem := &core.Memory{ID: uuid.New(), RoomID: roomID, Content: core.Content{Text: text}}
		if err := m.CreateMemory(ctx, mem, false); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	// The mock embedder is deterministic, so the same text embeds to the
	// same vector and must come back as the top match.
	query, err := embedder.Embed(ctx, "weather report for tomorrow")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	got, err := m.SearchMemoriesByEmbedding(ctx, query, core.SearchMemoriesOptions{
		RoomID:         roomID,
		Count:          1,
		MatchThreshold: 0.9,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Content.Text != "weather report for tomorrow" {
		t.Errorf("unexpected search result: %+v", got)
	}
	if got[0].Similarity < 0.9 {
		t.Errorf("identical text should have similarity near 1, got %f", got[0].Similarity)
	}
}

// countingEmbedder wraps the mock embedder and records how often Embed is
// actually called.
type countingEmbedder struct {
	inner memory.Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimensions() int { return c.inner.Dimensions() }

func TestManagerReusesCachedEmbeddings(t *testing.T) {
	ctx := context.Background()
	agentID := uuid.New()
	embedder := &countingEmbedder{inner: mock.New(64)}
	cacheMgr := cache.NewManager(cache.NewMemoryAdapter(), agentID)
	m := memory.NewManager("messages", agentID, local.New(), embedder, zerolog.Nop(), memory.WithCache(cacheMgr))
	roomID := uuid.New()

	first := &core.Memory{ID: uuid.New(), RoomID: roomID, Content: core.Content{Text: "repeated text"}}
	if err := m.CreateMemory(ctx, first, false); err != nil {
		t.Fatalf("create first: %v", err)
	}
	second := &core.Memory{ID: uuid.New(), RoomID: roomID, Content: core.Content{Text: "repeated text"}}
	if err := m.CreateMemory(ctx, second, false); err != nil {
		t.Fatalf("create second: %v", err)
	}

	if embedder.calls != 1 {
		t.Errorf("second identical text should hit the cache, embedder ran %d times", embedder.calls)
	}
	if len(second.Embedding) != 64 {
		t.Fatalf("cached embedding not applied, got %d dims", len(second.Embedding))
	}
	for i := range first.Embedding {
		if first.Embedding[i] != second.Embedding[i] {
			t.Fatal("cached embedding differs from the computed one")
		}
	}

	third := &core.Memory{ID: uuid.New(), RoomID: roomID, Content: core.Content{Text: "different text"}}
	if err := m.CreateMemory(ctx, third, false); err != nil {
		t.Fatalf("create third: %v", err)
	}
	if embedder.calls != 2 {
		t.Errorf("new text should embed, embedder ran %d times", embedder.calls)
	}
}

func TestManagerUniqueSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t, "lore")
	roomID := uuid.New()

	for i := 0; i < 3; i++ {
		mem := &core.Memory{ID: uuid.New(), RoomID: roomID, Content: core.Content{Text: "the same fact"}}
		if err := m.CreateMemory(ctx, mem, true); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	n, err := m.CountMemories(ctx, roomID, false)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("unique create should dedupe, got %d records", n)
	}
}
