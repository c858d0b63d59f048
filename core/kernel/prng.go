package kernel

import "math/rand/v2"

// goldenGamma is the splitmix64 increment, used to decorrelate the two
// 64-bit PCG stream words derived from one seed.
const goldenGamma = 0x9E3779B97F4A7C15

// newRNG builds the kernel PRNG. The construction is fixed and documented:
// math/rand/v2's PCG generator seeded with (derived, derived xor gamma).
// The PRNG stream is seeded exclusively from the derived seed; nothing
// else feeds it, which is what makes trajectories replayable.
func newRNG(derived uint64) *rand.Rand {
	return rand.New(rand.NewPCG(derived, derived^goldenGamma))
}
