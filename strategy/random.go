package strategy

import "math/rand/v2"

// Random is the uncontrolled-looking baseline strategy: at every
// scheduling point, choose uniformly among the enabled operations;
// for every non-deterministic choice, choose uniformly too. Seeded so a
// reported bug's seed can be handed to [WithSeed]-equivalent construction
// for a first reproduction attempt before falling back to the recorded
// trace.
type Random struct {
	seed uint64
	rng  *rand.Rand
}

// NewRandom constructs a Random strategy seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *Random) NextOperation(enabled []uint64, _ uint64) uint64 {
	return enabled[s.rng.IntN(len(enabled))]
}

func (s *Random) NextBool() bool { return s.rng.IntN(2) == 1 }

func (s *Random) NextInt(max int) int { return s.rng.IntN(max) }

func (s *Random) NextDelay(max int) int { return s.rng.IntN(max) }

func (s *Random) PrepareNextIteration(iteration int) bool {
	// Re-seed deterministically per iteration so that iteration N of a
	// given top-level seed is independently reproducible by iteration
	// number.
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^uint64(iteration)))
	return true
}

func (s *Random) GetDescription() string { return "random" }
