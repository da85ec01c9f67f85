package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// IntN returns a random int in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Chance reports whether a Bernoulli trial with success probability p succeeds.
// p >= 1 always succeeds and p <= 0 never does, but a draw is consumed either way.
func (r *RNG) Chance(p float64) bool {
	return r.r.Float64() < p
}

// FillMask resamples every entry of mask with independent Bernoulli(p) trials.
func FillMask(r *RNG, mask []bool, p float64) {
	for i := range mask {
		mask[i] = r.Chance(p)
	}
}
