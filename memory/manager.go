// Package memory provides table-scoped memory managers and the knowledge
// subsystem built on top of a DatabaseAdapter and an Embedder.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cipherwebllc/eliza/cache"
	"github.com/cipherwebllc/eliza/core"
)

// Manager is a table-scoped memory manager. Each Manager owns one logical
// table (for example "messages" or "fragments") in the underlying database
// and fills in embeddings before writes when the caller has not.
type Manager struct {
	table    string
	agentID  uuid.UUID
	db       core.DatabaseAdapter
	embedder Embedder
	cache    *cache.Manager
	log      zerolog.Logger
}

var _ core.MemoryManager = (*Manager)(nil)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCache reuses previously computed embeddings through the given cache,
// keyed on a hash of the memory text. Without it every write embeds anew.
func WithCache(c *cache.Manager) ManagerOption {
	return func(m *Manager) {
		m.cache = c
	}
}

// NewManager creates a manager bound to the given table.
func NewManager(table string, agentID uuid.UUID, db core.DatabaseAdapter, embedder Embedder, log zerolog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		table:    table,
		agentID:  agentID,
		db:       db,
		embedder: embedder,
		log:      log.With().Str("table", table).Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TableName returns the table this manager reads and writes.
func (m *Manager) TableName() string { return m.table }

// AddEmbeddingToMemory fills memory.Embedding in place. Memories that
// already carry an embedding are left untouched. Empty or whitespace-only
// text gets a zero vector so it can be stored but never retrieved by
// similarity.
func (m *Manager) AddEmbeddingToMemory(ctx context.Context, memory *core.Memory) error {
	if len(memory.Embedding) > 0 {
		return nil
	}
	text := strings.TrimSpace(memory.Content.Text)
	if text == "" {
		memory.Embedding = ZeroVector(m.embedder.Dimensions())
		return nil
	}
	key := embeddingCacheKey(text)
	if m.cache != nil {
		vec, found, err := cache.Get[[]float32](ctx, m.cache, key)
		if err != nil {
			m.log.Warn().Err(err).Msg("embedding cache read failed")
		} else if found {
			memory.Embedding = vec
			return nil
		}
	}

	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed memory text: %w", err)
	}
	memory.Embedding = vec

	if m.cache != nil {
		if err := cache.Set(ctx, m.cache, key, vec); err != nil {
			m.log.Warn().Err(err).Msg("embedding cache write failed")
		}
	}
	return nil
}

func embeddingCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embeddings/" + hex.EncodeToString(sum[:])
}

// CreateMemory stores a memory in this manager's table. A zero ID is
// replaced with a fresh random UUID and a zero CreatedAt with the current
// time. When unique is true the adapter skips the write if an equivalent
// memory already exists in the same room.
func (m *Manager) CreateMemory(ctx context.Context, memory *core.Memory, unique bool) error {
	if memory.ID == uuid.Nil {
		memory.ID = uuid.New()
	}
	if memory.CreatedAt == 0 {
		memory.CreatedAt = core.NowMillis()
	}
	if err := m.AddEmbeddingToMemory(ctx, memory); err != nil {
		return err
	}
	if err := m.db.CreateMemory(ctx, m.table, memory, unique); err != nil {
		return fmt.Errorf("create memory in %s: %w", m.table, err)
	}
	return nil
}

// GetMemories retrieves memories from this manager's table.
func (m *Manager) GetMemories(ctx context.Context, opts core.GetMemoriesOptions) ([]core.Memory, error) {
	return m.db.GetMemories(ctx, m.table, opts)
}

// GetMemoriesByRoomIDs retrieves memories across several rooms at once.
func (m *Manager) GetMemoriesByRoomIDs(ctx context.Context, roomIDs []uuid.UUID) ([]core.Memory, error) {
	return m.db.GetMemoriesByRoomIDs(ctx, m.table, roomIDs)
}

// GetMemoryByID retrieves a single memory, or core.ErrNotFound.
func (m *Manager) GetMemoryByID(ctx context.Context, id uuid.UUID) (*core.Memory, error) {
	return m.db.GetMemoryByID(ctx, m.table, id)
}

// SearchMemoriesByEmbedding runs a similarity search over this manager's
// table using the given query embedding.
func (m *Manager) SearchMemoriesByEmbedding(ctx context.Context, embedding []float32, opts core.SearchMemoriesOptions) ([]core.Memory, error) {
	return m.db.SearchMemories(ctx, m.table, embedding, opts)
}

// RemoveMemory deletes a single memory by ID.
func (m *Manager) RemoveMemory(ctx context.Context, id uuid.UUID) error {
	return m.db.RemoveMemory(ctx, m.table, id)
}

// RemoveAllMemories deletes every memory in the given room.
func (m *Manager) RemoveAllMemories(ctx context.Context, roomID uuid.UUID) error {
	return m.db.RemoveAllMemories(ctx, m.table, roomID)
}

// CountMemories counts memories in a room. When unique is true only
// memories written with the unique flag are counted.
func (m *Manager) CountMemories(ctx context.Context, roomID uuid.UUID, unique bool) (int, error) {
	return m.db.CountMemories(ctx, m.table, roomID, unique)
}
