package strategy

import "math/rand/v2"

// Probabilistic implements "Probabilistic(n)" strategy: a
// biased random walk that, at each scheduling point, flips an n-sided
// weighted coin to decide whether to bias away from the operation it chose
// last time (when other operations are still enabled) or fall back to a
// plain uniform choice. This nudges exploration toward interleavings that
// switch operations frequently, increasing the odds of surfacing bugs that
// need an adversarial interleaving to manifest, without the cost of full
// PCT bookkeeping.
type Probabilistic struct {
	n       int
	seed    uint64
	rng     *rand.Rand
	lastOp  uint64
	hasLast bool
}

// NewProbabilistic constructs a Probabilistic(n) strategy. n is the
// "switch bias" denominator: on each step there is a (n-1)/n chance of
// excluding the last chosen operation from the candidate pool (forcing a
// switch, when another enabled operation exists), and a 1/n chance of
// falling back to a plain uniform choice over every enabled operation.
func NewProbabilistic(n int, seed uint64) *Probabilistic {
	if n < 1 {
		n = 1
	}
	return &Probabilistic{
		n:    n,
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d)),
	}
}

func (s *Probabilistic) NextOperation(enabled []uint64, _ uint64) uint64 {
	pool := enabled
	if s.hasLast && s.rng.IntN(s.n) != 0 {
		if biased := excluding(enabled, s.lastOp); len(biased) > 0 {
			pool = biased
		}
	}
	choice := pool[s.rng.IntN(len(pool))]
	s.lastOp = choice
	s.hasLast = true
	return choice
}

// excluding returns enabled with every occurrence of id removed, without
// mutating enabled.
func excluding(enabled []uint64, id uint64) []uint64 {
	out := make([]uint64, 0, len(enabled))
	for _, v := range enabled {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func (s *Probabilistic) NextBool() bool { return s.rng.IntN(2) == 1 }

func (s *Probabilistic) NextInt(max int) int { return s.rng.IntN(max) }

func (s *Probabilistic) NextDelay(max int) int { return s.rng.IntN(max) }

func (s *Probabilistic) PrepareNextIteration(iteration int) bool {
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^uint64(iteration)))
	s.hasLast = false
	return true
}

func (s *Probabilistic) GetDescription() string { return "probabilistic" }
