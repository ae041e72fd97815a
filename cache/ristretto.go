package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// RistrettoAdapter backs the cache with a ristretto in-memory cache:
// bounded memory with admission/eviction policies, suited to long-running
// agents whose embedding cache would otherwise grow without limit.
type RistrettoAdapter struct {
	cache *ristretto.Cache
}

// NewRistrettoAdapter builds an adapter bounded to roughly maxBytes of
// cached values.
func NewRistrettoAdapter(maxBytes int64) (*RistrettoAdapter, error) {
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxBytes / 100,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}
	return &RistrettoAdapter{cache: c}, nil
}

func (a *RistrettoAdapter) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := a.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

func (a *RistrettoAdapter) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	a.cache.Set(key, stored, int64(len(stored)))
	// Wait so a Set is visible to an immediate Get, matching the adapter
	// contract the manager relies on.
	a.cache.Wait()
	return nil
}

func (a *RistrettoAdapter) Delete(_ context.Context, key string) error {
	a.cache.Del(key)
	return nil
}

// Close releases the cache's internal goroutines.
func (a *RistrettoAdapter) Close() {
	a.cache.Close()
}
