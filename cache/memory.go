package cache

import (
	"context"
	"sync"
)

// MemoryAdapter is a process-local map adapter, the default for tests and
// single-process deployments.
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryAdapter returns an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string][]byte)}
}

func (a *MemoryAdapter) Get(_ context.Context, key string) ([]byte, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	raw, ok := a.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

func (a *MemoryAdapter) Set(_ context.Context, key string, value []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	a.data[key] = stored
	return nil
}

func (a *MemoryAdapter) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.data, key)
	return nil
}
