// Package local provides an in-process DatabaseAdapter. Records live in
// maps guarded by a mutex; similarity search is delegated to a chromem-go
// vector index kept alongside, one collection per logical table.
package local

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"

	"github.com/cipherwebllc/eliza/core"
)

type record struct {
	memory core.Memory
	unique bool
}

// Store implements core.DatabaseAdapter entirely in memory. It is safe
// for concurrent use and suited for tests, tools, and single-process
// agents that do not need persistence.
type Store struct {
	mu sync.RWMutex

	memories     map[string]map[uuid.UUID]record // table -> id -> record
	rooms        map[uuid.UUID]core.Room
	accounts     map[uuid.UUID]core.Account
	participants map[uuid.UUID]map[uuid.UUID]bool // room -> user set
	goals        map[uuid.UUID]core.Goal

	vectors *chromem.DB
}

var _ core.DatabaseAdapter = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		memories:     make(map[string]map[uuid.UUID]record),
		rooms:        make(map[uuid.UUID]core.Room),
		accounts:     make(map[uuid.UUID]core.Account),
		participants: make(map[uuid.UUID]map[uuid.UUID]bool),
		goals:        make(map[uuid.UUID]core.Goal),
		vectors:      chromem.NewDB(),
	}
}

// collection returns the vector index for a table, creating it on first
// use. Embeddings are always supplied by callers, so the embedding func
// only exists to satisfy chromem and must never run.
func (s *Store) collection(table string) (*chromem.Collection, error) {
	return s.vectors.GetOrCreateCollection(table, nil, func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("local store does not embed documents itself")
	})
}

func (s *Store) CreateMemory(ctx context.Context, table string, memory *core.Memory, unique bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.memories[table]
	if byID == nil {
		byID = make(map[uuid.UUID]record)
		s.memories[table] = byID
	}

	if unique {
		for _, existing := range byID {
			if existing.memory.RoomID == memory.RoomID && existing.memory.Content.Text == memory.Content.Text {
				return nil
			}
		}
	}

	byID[memory.ID] = record{memory: *memory, unique: unique}

	// Zero vectors mark unembeddable content; indexing them would make
	// them eligible for similarity results.
	if hasSignal(memory.Embedding) {
		col, err := s.collection(table)
		if err != nil {
			return fmt.Errorf("open vector collection %s: %w", table, err)
		}
		doc := chromem.Document{
			ID:        memory.ID.String(),
			Metadata:  map[string]string{"room_id": memory.RoomID.String()},
			Embedding: memory.Embedding,
			Content:   memory.Content.Text,
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("index memory embedding: %w", err)
		}
	}
	return nil
}

func (s *Store) GetMemories(_ context.Context, table string, opts core.GetMemoriesOptions) ([]core.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Memory
	for _, rec := range s.memories[table] {
		m := rec.memory
		if m.RoomID != opts.RoomID {
			continue
		}
		if opts.Unique && !rec.unique {
			continue
		}
		if opts.Start != 0 && m.CreatedAt < opts.Start {
			continue
		}
		if opts.End != 0 && m.CreatedAt > opts.End {
			continue
		}
		out = append(out, m)
	}
	sortByCreatedAtDesc(out)
	if opts.Count > 0 && len(out) > opts.Count {
		out = out[:opts.Count]
	}
	return out, nil
}

func (s *Store) GetMemoriesByRoomIDs(_ context.Context, table string, roomIDs []uuid.UUID) ([]core.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(roomIDs))
	for _, id := range roomIDs {
		wanted[id] = true
	}
	var out []core.Memory
	for _, rec := range s.memories[table] {
		if wanted[rec.memory.RoomID] {
			out = append(out, rec.memory)
		}
	}
	sortByCreatedAtDesc(out)
	return out, nil
}

func (s *Store) GetMemoryByID(_ context.Context, table string, id uuid.UUID) (*core.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.memories[table][id]
	if !ok {
		return nil, core.ErrNotFound
	}
	m := rec.memory
	return &m, nil
}

func (s *Store) SearchMemories(ctx context.Context, table string, embedding []float32, opts core.SearchMemoriesOptions) ([]core.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	col, err := s.collection(table)
	if err != nil {
		return nil, fmt.Errorf("open vector collection %s: %w", table, err)
	}

	// chromem rejects queries asking for more results than the
	// collection holds, so clamp first.
	n := opts.Count
	if n <= 0 {
		n = 10
	}
	if total := col.Count(); n > total {
		n = total
	}
	if n == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, embedding, n, map[string]string{"room_id": opts.RoomID.String()}, nil)
	if err != nil {
		return nil, fmt.Errorf("query vector collection %s: %w", table, err)
	}

	var out []core.Memory
	for _, res := range results {
		if float64(res.Similarity) < opts.MatchThreshold {
			continue
		}
		id, err := uuid.Parse(res.ID)
		if err != nil {
			continue
		}
		rec, ok := s.memories[table][id]
		if !ok {
			continue
		}
		if opts.Unique && !rec.unique {
			continue
		}
		m := rec.memory
		m.Similarity = float64(res.Similarity)
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) RemoveMemory(ctx context.Context, table string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.memories[table][id]
	if !ok {
		return nil
	}
	delete(s.memories[table], id)

	if hasSignal(rec.memory.Embedding) {
		col, err := s.collection(table)
		if err != nil {
			return fmt.Errorf("open vector collection %s: %w", table, err)
		}
		if err := col.Delete(ctx, nil, nil, id.String()); err != nil {
			return fmt.Errorf("unindex memory: %w", err)
		}
	}
	return nil
}

func (s *Store) RemoveAllMemories(ctx context.Context, table string, roomID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, rec := range s.memories[table] {
		if rec.memory.RoomID != roomID {
			continue
		}
		delete(s.memories[table], id)
		if hasSignal(rec.memory.Embedding) {
			removed = append(removed, id.String())
		}
	}
	if len(removed) == 0 {
		return nil
	}
	col, err := s.collection(table)
	if err != nil {
		return fmt.Errorf("open vector collection %s: %w", table, err)
	}
	if err := col.Delete(ctx, nil, nil, removed...); err != nil {
		return fmt.Errorf("unindex memories: %w", err)
	}
	return nil
}

func (s *Store) CountMemories(_ context.Context, table string, roomID uuid.UUID, unique bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.memories[table] {
		if rec.memory.RoomID != roomID {
			continue
		}
		if unique && !rec.unique {
			continue
		}
		count++
	}
	return count, nil
}

func (s *Store) GetRoom(_ context.Context, roomID uuid.UUID) (*core.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &room, nil
}

func (s *Store) CreateRoom(_ context.Context, roomID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		s.rooms[roomID] = core.Room{ID: roomID}
	}
	return nil
}

func (s *Store) GetAccountByID(_ context.Context, userID uuid.UUID) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &account, nil
}

func (s *Store) CreateAccount(_ context.Context, account core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.ID]; !ok {
		s.accounts[account.ID] = account
	}
	return nil
}

func (s *Store) GetParticipantsForAccount(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []uuid.UUID
	for roomID, users := range s.participants {
		if users[userID] {
			rooms = append(rooms, roomID)
		}
	}
	return rooms, nil
}

func (s *Store) GetParticipantsForRoom(_ context.Context, roomID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []uuid.UUID
	for userID := range s.participants[roomID] {
		users = append(users, userID)
	}
	return users, nil
}

func (s *Store) AddParticipant(_ context.Context, userID, roomID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.participants[roomID]
	if users == nil {
		users = make(map[uuid.UUID]bool)
		s.participants[roomID] = users
	}
	users[userID] = true
	return nil
}

func (s *Store) GetRoomsForParticipants(_ context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	var rooms []uuid.UUID
	for roomID, users := range s.participants {
		for userID := range users {
			if wanted[userID] {
				rooms = append(rooms, roomID)
				break
			}
		}
	}
	return rooms, nil
}

func (s *Store) GetGoals(_ context.Context, opts core.GetGoalsOptions) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Goal
	for _, goal := range s.goals {
		if goal.RoomID != opts.RoomID {
			continue
		}
		if opts.UserID != nil && goal.UserID != *opts.UserID {
			continue
		}
		if opts.OnlyInProgress && goal.Status != core.GoalStatusInProgress {
			continue
		}
		out = append(out, goal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if opts.Count > 0 && len(out) > opts.Count {
		out = out[:opts.Count]
	}
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, goal core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if goal.CreatedAt == 0 {
		goal.CreatedAt = core.NowMillis()
	}
	s.goals[goal.ID] = goal
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, goal core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.goals[goal.ID]; !ok {
		return core.ErrNotFound
	}
	s.goals[goal.ID] = goal
	return nil
}

func (s *Store) RemoveGoal(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.goals, id)
	return nil
}

// hasSignal reports whether an embedding carries any nonzero component.
func hasSignal(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return true
		}
	}
	return false
}

func sortByCreatedAtDesc(memories []core.Memory) {
	sort.Slice(memories, func(i, j int) bool {
		return memories[i].CreatedAt > memories[j].CreatedAt
	})
}
