package core

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by adapter lookups when the record is absent.
var ErrNotFound = errors.New("record not found")

// GetMemoriesOptions bounds a per-room memory fetch. Start and End are
// epoch-millisecond bounds; zero means unbounded.
type GetMemoriesOptions struct {
	RoomID uuid.UUID
	Count  int
	Unique bool
	Start  int64
	End    int64
}

// SearchMemoriesOptions parameterizes a similarity search. Results below
// MatchThreshold are excluded; the similarity metric is an adapter concern,
// cosine similarity being the expected default.
type SearchMemoriesOptions struct {
	RoomID         uuid.UUID
	Count          int
	MatchThreshold float64
	Unique         bool
}

// GetGoalsOptions bounds a goal fetch.
type GetGoalsOptions struct {
	RoomID         uuid.UUID
	UserID         *uuid.UUID
	OnlyInProgress bool
	Count          int
}

// DatabaseAdapter is the persistence boundary for memories, identity
// records, and goals. All creation operations are idempotent-safe: ensure
// logic in the runtime re-invokes them freely on reconnection.
//
// Implementations: memory/store/local (in-process, chromem-go vector
// index), memory/store/sqlite (persistent, brute-force cosine ranking).
type DatabaseAdapter interface {
	// Memories, scoped by logical table.
	CreateMemory(ctx context.Context, table string, memory *Memory, unique bool) error
	GetMemories(ctx context.Context, table string, opts GetMemoriesOptions) ([]Memory, error)
	GetMemoriesByRoomIDs(ctx context.Context, table string, roomIDs []uuid.UUID) ([]Memory, error)
	GetMemoryByID(ctx context.Context, table string, id uuid.UUID) (*Memory, error)
	SearchMemories(ctx context.Context, table string, embedding []float32, opts SearchMemoriesOptions) ([]Memory, error)
	RemoveMemory(ctx context.Context, table string, id uuid.UUID) error
	RemoveAllMemories(ctx context.Context, table string, roomID uuid.UUID) error
	CountMemories(ctx context.Context, table string, roomID uuid.UUID, unique bool) (int, error)

	// Identity and membership.
	GetRoom(ctx context.Context, roomID uuid.UUID) (*Room, error)
	CreateRoom(ctx context.Context, roomID uuid.UUID) error
	GetAccountByID(ctx context.Context, userID uuid.UUID) (*Account, error)
	CreateAccount(ctx context.Context, account Account) error
	GetParticipantsForAccount(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetParticipantsForRoom(ctx context.Context, roomID uuid.UUID) ([]uuid.UUID, error)
	AddParticipant(ctx context.Context, userID, roomID uuid.UUID) error
	GetRoomsForParticipants(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error)

	// Goals.
	GetGoals(ctx context.Context, opts GetGoalsOptions) ([]Goal, error)
	CreateGoal(ctx context.Context, goal Goal) error
	UpdateGoal(ctx context.Context, goal Goal) error
	RemoveGoal(ctx context.Context, id uuid.UUID) error
}

// MemoryManager binds one logical table to a DatabaseAdapter and owns
// embedding backfill for records created through it.
type MemoryManager interface {
	TableName() string

	AddEmbeddingToMemory(ctx context.Context, memory *Memory) error
	CreateMemory(ctx context.Context, memory *Memory, unique bool) error
	GetMemories(ctx context.Context, opts GetMemoriesOptions) ([]Memory, error)
	GetMemoriesByRoomIDs(ctx context.Context, roomIDs []uuid.UUID) ([]Memory, error)
	GetMemoryByID(ctx context.Context, id uuid.UUID) (*Memory, error)
	SearchMemoriesByEmbedding(ctx context.Context, embedding []float32, opts SearchMemoriesOptions) ([]Memory, error)
	RemoveMemory(ctx context.Context, id uuid.UUID) error
	RemoveAllMemories(ctx context.Context, roomID uuid.UUID) error
	CountMemories(ctx context.Context, roomID uuid.UUID, unique bool) (int, error)
}

// CacheAdapter is the thin key-value contract behind the cache manager.
type CacheAdapter interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
