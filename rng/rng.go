// Package rng implements the seedable, reproducible uniform source the
// training core draws from: one primary generator seeded at Train start,
// and one fresh generator per chunk during the Sampler pass, derived from a
// combined seed rather than sharing state with the primary generator.
package rng

import "math/rand"

// RNG is a seedable, reproducible uniform source.
type RNG interface {
	Float64() float64
	Intn(n int) int
	// Derive returns a new, independent RNG seeded from seed. It does not
	// consume draws from the receiver.
	Derive(seed int64) RNG
}

// MathRand wraps math/rand's Rand type. It is the only PRNG used anywhere
// in the examples this module is grounded on, and nothing in the ecosystem
// surfaced by those examples improves on it for a reproducible,
// seed-derivable stream, so it is used directly rather than wrapped around
// a third-party generator.
type MathRand struct {
	r *rand.Rand
}

// New returns a MathRand seeded with seed.
func New(seed int64) *MathRand {
	return &MathRand{r: rand.New(rand.NewSource(seed))}
}

func (m *MathRand) Float64() float64 { return m.r.Float64() }
func (m *MathRand) Intn(n int) int   { return m.r.Intn(n) }

func (m *MathRand) Derive(seed int64) RNG {
	return New(seed)
}
