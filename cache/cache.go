// Package cache provides the agent-scoped key-value cache used by the
// embedding pipeline and the knowledge loader. Values are JSON-encoded;
// keys are namespaced by agent id so runtimes sharing an adapter stay
// isolated.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cipherwebllc/eliza/core"
)

// Manager namespaces and encodes values over a CacheAdapter.
type Manager struct {
	adapter core.CacheAdapter
	prefix  string
}

// NewManager binds an adapter to an agent's namespace.
func NewManager(adapter core.CacheAdapter, agentID uuid.UUID) *Manager {
	return &Manager{adapter: adapter, prefix: agentID.String()}
}

func (m *Manager) key(key string) string {
	return m.prefix + "/" + key
}

// Delete removes a key from the agent's namespace.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.adapter.Delete(ctx, m.key(key))
}

// Get decodes the cached value for key into T. found is false on a miss.
func Get[T any](ctx context.Context, m *Manager, key string) (value T, found bool, err error) {
	raw, ok, err := m.adapter.Get(ctx, m.key(key))
	if err != nil || !ok {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("decode cached %q: %w", key, err)
	}
	return value, true, nil
}

// Set encodes and stores a value under key.
func Set[T any](ctx context.Context, m *Manager, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached %q: %w", key, err)
	}
	return m.adapter.Set(ctx, m.key(key), raw)
}
