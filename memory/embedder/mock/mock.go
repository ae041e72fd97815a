// Package mock provides a deterministic embedder for tests and local
// development. It needs no model files or network access.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder produces deterministic pseudo-random unit vectors. The same
// text always yields the same vector, and different texts almost always
// yield different vectors, which is enough to exercise similarity search
// in tests.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder. A non-positive dimensions defaults to 384.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &Embedder{dimensions: dimensions}
}

// Embed hashes the text into a seed and expands it into a normalized
// vector with a small linear congruential generator.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, e.dimensions)
	state := seed
	var norm float64
	for i := range vec {
		state = state*6364136223846793005 + 1442695040888963407
		// Map the top bits to [-1, 1).
		v := float64(int64(state>>11))/float64(1<<52) - 1
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// Dimensions returns the configured vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }
