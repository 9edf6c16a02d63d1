// Package testutil generates synthetic redistricting chains for tests and
// benchmarks. The generator is deterministic for a given seed so tests can
// assert exact record counts.
package testutil

import (
	"math/rand"
	"sync"
)

// RNG encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// InitialPlan returns a contiguous assignment of units to districts:
// units are split into districts runs of near-equal length, labels 1..d.
func InitialPlan(units, districts int) []uint64 {
	if districts < 1 || units < districts {
		panic("testutil: need at least one unit per district")
	}

	plan := make([]uint64, units)
	base := units / districts
	extra := units % districts

	i := 0
	for d := 1; d <= districts; d++ {
		length := base
		if d <= extra {
			length++
		}
		for j := 0; j < length; j++ {
			plan[i] = uint64(d)
			i++
		}
	}
	return plan
}

// Mutate proposes a single-unit flip on a copy of plan: a unit on a run
// boundary takes the label of its neighbor. The original is not modified.
// Flips that would empty a district are retried.
func Mutate(rng *RNG, plan []uint64) []uint64 {
	next := make([]uint64, len(plan))
	copy(next, plan)

	counts := make(map[uint64]int, 8)
	for _, d := range plan {
		counts[d]++
	}

	for attempt := 0; attempt < 64; attempt++ {
		i := rng.Intn(len(next))

		var neighbor uint64
		switch {
		case i > 0 && next[i-1] != next[i]:
			neighbor = next[i-1]
		case i < len(next)-1 && next[i+1] != next[i]:
			neighbor = next[i+1]
		default:
			continue // interior unit, no boundary here
		}

		if counts[next[i]] <= 1 {
			continue // would empty a district
		}
		next[i] = neighbor
		return next
	}

	return next
}

// Chain produces a deterministic sequence of assignment vectors resembling
// a single-flip MCMC run: each step proposes a boundary flip and accepts it
// with probability acceptProb, otherwise repeats the previous vector.
// Rejections are what give chain-mode encoding its multiplicity runs.
func Chain(seed int64, units, districts, steps int, acceptProb float64) [][]uint64 {
	rng := NewRNG(seed)
	out := make([][]uint64, 0, steps)

	current := InitialPlan(units, districts)
	for i := 0; i < steps; i++ {
		if i > 0 && rng.Float64() < acceptProb {
			current = Mutate(rng, current)
		}
		out = append(out, current)
	}
	return out
}
