package format

import "math/rand"

// Sample returns up to n items drawn randomly without replacement. The
// input is never reordered; callers pass a seeded source so tests can pin
// the draw while production uses a fresh seed per call.
func Sample[T any](rng *rand.Rand, items []T, n int) []T {
	if n >= len(items) {
		out := make([]T, len(items))
		copy(out, items)
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}
	idx := rng.Perm(len(items))[:n]
	out := make([]T, 0, n)
	for _, i := range idx {
		out = append(out, items[i])
	}
	return out
}

// placeholderNames fills {{userN}} slots in example conversations.
var placeholderNames = []string{
	"Alice", "Bola", "Chen", "Dmitri", "Esther",
	"Farid", "Grace", "Hiro", "Imani", "Jonas",
	"Kavya", "Liam", "Mei", "Noor", "Otto",
	"Priya", "Quinn", "Rosa", "Sven", "Tala",
}

// PlaceholderNames returns n distinct names for example substitution.
func PlaceholderNames(rng *rand.Rand, n int) []string {
	return Sample(rng, placeholderNames, n)
}
