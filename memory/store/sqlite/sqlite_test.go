package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/memory/store/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "agent.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryRoundtrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	roomID := uuid.New()

	mem := &core.Memory{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		AgentID:   uuid.New(),
		RoomID:    roomID,
		Content:   core.Content{Text: "persisted message", Action: "NONE"},
		CreatedAt: core.NowMillis(),
		Embedding: []float32{0.1, 0.2, 0.3},
	}
	if err := s.CreateMemory(ctx, "messages", mem, false); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetMemoryByID(ctx, "messages", mem.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content.Text != "persisted message" || got.Content.Action != "NONE" {
		t.Errorf("content did not roundtrip: %+v", got.Content)
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != 0.2 {
		t.Errorf("embedding did not roundtrip: %v", got.Embedding)
	}

	if _, err := s.GetMemoryByID(ctx, "messages", uuid.New()); err != core.ErrNotFound {
		t.Errorf("missing memory should return ErrNotFound, got %v", err)
	}
	if _, err := s.GetMemoryByID(ctx, "other_table", mem.ID); err != core.ErrNotFound {
		t.Errorf("tables should be isolated, got %v", err)
	}
}

func TestUniqueCreateSkipsDuplicateText(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	roomID := uuid.New()

	for i := 0; i < 3; i++ {
		mem := &core.Memory{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			AgentID:   uuid.New(),
			RoomID:    roomID,
			Content:   core.Content{Text: "same fact"},
			CreatedAt: core.NowMillis(),
		}
		if err := s.CreateMemory(ctx, "facts", mem, true); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	n, err := s.CountMemories(ctx, "facts", roomID, true)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("unique create should dedupe, got %d", n)
	}
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	roomID := uuid.New()

	vectors := map[string][]float32{
		"exact":      {1, 0, 0},
		"close":      {0.9, 0.1, 0},
		"orthogonal": {0, 1, 0},
	}
	for text, vec := range vectors {
		mem := &core.Memory{
			ID:        uuid.New(),
			UserID:    uuid.New(),
			AgentID:   uuid.New(),
			RoomID:    roomID,
			Content:   core.Content{Text: text},
			CreatedAt: core.NowMillis(),
			Embedding: vec,
		}
		if err := s.CreateMemory(ctx, "fragments", mem, false); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := s.SearchMemories(ctx, "fragments", []float32{1, 0, 0}, core.SearchMemoriesOptions{
		RoomID:         roomID,
		Count:          2,
		MatchThreshold: 0.5,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results above threshold, got %d", len(got))
	}
	if got[0].Content.Text != "exact" || got[1].Content.Text != "close" {
		t.Errorf("wrong ranking: %q then %q", got[0].Content.Text, got[1].Content.Text)
	}
	if got[0].Similarity < 0.99 {
		t.Errorf("exact match should have similarity ~1, got %f", got[0].Similarity)
	}
}

func TestGoalsAndParticipantsPersist(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	roomID := uuid.New()
	userID := uuid.New()

	if err := s.CreateRoom(ctx, roomID); err != nil {
		t.Fatalf("create room: %v", err)
	}
	if err := s.AddParticipant(ctx, userID, roomID); err != nil {
		t.Fatalf("add participant: %v", err)
	}
	if err := s.AddParticipant(ctx, userID, roomID); err != nil {
		t.Fatalf("re-adding a participant should be a no-op: %v", err)
	}
	participants, err := s.GetParticipantsForRoom(ctx, roomID)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(participants) != 1 {
		t.Errorf("expected 1 participant, got %d", len(participants))
	}

	goal := core.Goal{
		ID:     uuid.New(),
		RoomID: roomID,
		UserID: userID,
		Name:   "write tests",
		Status: core.GoalStatusInProgress,
		Objectives: []core.Objective{
			{Description: "store layer", Completed: true},
		},
	}
	if err := s.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	goals, err := s.GetGoals(ctx, core.GetGoalsOptions{RoomID: roomID, UserID: &userID, OnlyInProgress: true})
	if err != nil {
		t.Fatalf("get goals: %v", err)
	}
	if len(goals) != 1 || len(goals[0].Objectives) != 1 || !goals[0].Objectives[0].Completed {
		t.Errorf("goal did not roundtrip: %+v", goals)
	}
}

func TestCacheAdapter(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "greeting", []byte(`"hello"`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ok, err := s.Get(ctx, "greeting")
	if err != nil || !ok || string(value) != `"hello"` {
		t.Fatalf("get after set: ok=%v value=%q err=%v", ok, value, err)
	}
	if err := s.Set(ctx, "greeting", []byte(`"replaced"`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, _, _ = s.Get(ctx, "greeting")
	if string(value) != `"replaced"` {
		t.Errorf("overwrite not visible, got %q", value)
	}
	if err := s.Delete(ctx, "greeting"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "greeting"); ok {
		t.Error("entry survived delete")
	}
}
