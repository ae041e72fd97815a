package memory

import "context"

// Embedder converts text into a fixed-size embedding vector.
//
// Implementations live in the embedder/ subpackages. All vectors produced
// by a single Embedder must have the same length, reported by Dimensions.
type Embedder interface {
	// Embed converts text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the length of vectors produced by Embed.
	Dimensions() int
}

// ZeroVector returns an all-zero embedding of the given size. Memories
// with no meaningful text are stored with a zero vector so they never
// match a similarity search.
func ZeroVector(dimensions int) []float32 {
	return make([]float32, dimensions)
}
