// Package rng provides the seeded linear-congruential generator that drives
// galaxy generation. Every random decision the generator makes flows through
// a single LCG, so a fixed seed and call order always reproduce the same
// galaxy.
package rng

// Knuth's MMIX constants.
const (
	multiplier = 6364136223846793005
	increment  = 1442695040888963407
)

// LCG is a 64-bit linear-congruential generator. It is not safe for
// concurrent use; one generation pass owns one LCG.
type LCG struct {
	state uint64
}

// New creates a generator from a seed.
func New(seed int64) *LCG {
	return &LCG{state: uint64(seed)}
}

// Next advances the state and returns a value in [0, 1).
func (g *LCG) Next() float64 {
	g.state = g.state*multiplier + increment
	// Top 53 bits carry the best-mixed output of an LCG.
	return float64(g.state>>11) / float64(1<<53)
}

// Range returns a value in [min, max).
func (g *LCG) Range(min, max float64) float64 {
	return min + g.Next()*(max-min)
}

// Intn returns an integer in [0, n). Returns 0 when n <= 0.
func (g *LCG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(g.Next() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Chance reports whether a draw falls below p.
func (g *LCG) Chance(p float64) bool {
	return g.Next() < p
}

// Choice picks one element of items. Panics on an empty slice, like indexing
// would.
func Choice[T any](g *LCG, items []T) T {
	return items[g.Intn(len(items))]
}
