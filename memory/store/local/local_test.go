package local_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/cipherwebllc/eliza/core"
	"github.com/cipherwebllc/eliza/memory/store/local"
)

func TestRoomsAndAccountsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := local.New()
	roomID := uuid.New()
	userID := uuid.New()

	if _, err := s.GetRoom(ctx, roomID); err != core.ErrNotFound {
		t.Errorf("missing room should return ErrNotFound, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.CreateRoom(ctx, roomID); err != nil {
			t.Fatalf("create room: %v", err)
		}
	}
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		t.Fatalf("get room: %v", err)
	}

	account := core.Account{ID: userID, Name: "Alice", Username: "alice"}
	for i := 0; i < 2; i++ {
		if err := s.CreateAccount(ctx, account); err != nil {
			t.Fatalf("create account: %v", err)
		}
	}
	got, err := s.GetAccountByID(ctx, userID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Name != "Alice" {
		t.Errorf("unexpected account: %+v", got)
	}
}

func TestParticipants(t *testing.T) {
	ctx := context.Background()
	s := local.New()
	roomA := uuid.New()
	roomB := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	for _, pair := range [][2]uuid.UUID{{alice, roomA}, {bob, roomA}, {alice, roomB}} {
		if err := s.AddParticipant(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("add participant: %v", err)
		}
	}

	inA, err := s.GetParticipantsForRoom(ctx, roomA)
	if err != nil {
		t.Fatalf("participants for room: %v", err)
	}
	if len(inA) != 2 {
		t.Errorf("room A should have 2 participants, got %d", len(inA))
	}

	aliceRooms, err := s.GetParticipantsForAccount(ctx, alice)
	if err != nil {
		t.Fatalf("participants for account: %v", err)
	}
	if len(aliceRooms) != 2 {
		t.Errorf("alice should be in 2 rooms, got %d", len(aliceRooms))
	}

	bobRooms, err := s.GetRoomsForParticipants(ctx, []uuid.UUID{bob})
	if err != nil {
		t.Fatalf("rooms for participants: %v", err)
	}
	if len(bobRooms) != 1 || bobRooms[0] != roomA {
		t.Errorf("bob should only appear in room A, got %v", bobRooms)
	}
}

func TestGoalsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := local.New()
	roomID := uuid.New()
	userID := uuid.New()

	goal := core.Goal{
		ID:     uuid.New(),
		RoomID: roomID,
		UserID: userID,
		Name:   "finish the report",
		Status: core.GoalStatusInProgress,
	}
	if err := s.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	done := core.Goal{ID: uuid.New(), RoomID: roomID, UserID: userID, Name: "archive", Status: core.GoalStatusDone}
	if err := s.CreateGoal(ctx, done); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	inProgress, err := s.GetGoals(ctx, core.GetGoalsOptions{RoomID: roomID, OnlyInProgress: true})
	if err != nil {
		t.Fatalf("get goals: %v", err)
	}
	if len(inProgress) != 1 || inProgress[0].Name != "finish the report" {
		t.Errorf("unexpected in-progress goals: %+v", inProgress)
	}

	goal.Status = core.GoalStatusDone
	if err := s.UpdateGoal(ctx, goal); err != nil {
		t.Fatalf("update goal: %v", err)
	}
	if err := s.UpdateGoal(ctx, core.Goal{ID: uuid.New()}); err != core.ErrNotFound {
		t.Errorf("updating a missing goal should return ErrNotFound, got %v", err)
	}

	if err := s.RemoveGoal(ctx, goal.ID); err != nil {
		t.Fatalf("remove goal: %v", err)
	}
	remaining, err := s.GetGoals(ctx, core.GetGoalsOptions{RoomID: roomID})
	if err != nil {
		t.Fatalf("get goals: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("expected 1 goal left, got %d", len(remaining))
	}
}

func TestRemoveAllMemories(t *testing.T) {
	ctx := context.Background()
	s := local.New()
	roomID := uuid.New()

	for i := 0; i < 3; i++ {
		mem := &core.Memory{ID: uuid.New(), RoomID: roomID, Content: core.Content{Text: "x"}}
		if err := s.CreateMemory(ctx, "messages", mem, false); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := s.RemoveAllMemories(ctx, "messages", roomID); err != nil {
		t.Fatalf("remove all: %v", err)
	}
	n, err := s.CountMemories(ctx, "messages", roomID, false)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty room, got %d memories", n)
	}
}
