// Package rng provides the deterministic pseudo-random generator used by the
// interpreter and mirrored, constant for constant, by every codegen backend's
// runtime prelude. The whole draw sequence of a generator is a pure function
// of its seed.
package rng

// Generator parameters. A 32-bit linear congruential generator is used
// because every codegen target can reproduce it exactly: the intermediate
// product stays below 2^53, so even double-only runtimes (Lua 5.1,
// pre-BigInt JavaScript paths) compute the identical sequence.
const (
	lcgMul = 1664525
	lcgInc = 1013904223
)

// Source yields one raw generator step per call. Draw and Shuffle consume
// exactly the documented number of steps, which makes a recording stub
// Source sufficient to verify the step-count contract.
type Source interface {
	Next() uint32
}

// LCG is the production Source. It mutates in place on every draw.
type LCG struct {
	state uint32
}

// New returns a Source whose future output is fully determined by seed.
// Equal seeds yield identical sequences; distinct Source values never
// influence one another.
func New(seed int64) *LCG {
	return &LCG{state: uint32(seed)}
}

func (g *LCG) Next() uint32 {
	g.state = g.state*lcgMul + lcgInc
	return g.state
}

// Draw returns a uniform integer in [lo, hi] consuming exactly one raw step.
// It must never be layered on another Draw call: delegating the two-argument
// form to the one-argument form consumes an extra step and permanently
// desynchronizes the sequence against other implementations.
func Draw(src Source, lo, hi int64) int64 {
	span := uint64(hi - lo + 1)
	return lo + int64(uint64(src.Next())%span)
}

// Shuffle performs a Fisher-Yates pass iterating i from n-1 down to 1,
// drawing j in [0, i] and swapping. The backward direction is part of the
// determinism contract; a forward pass produces a different permutation.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i >= 1; i-- {
		j := Draw(src, 0, int64(i))
		swap(i, int(j))
	}
}
