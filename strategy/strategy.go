// Package strategy implements exploration strategies: stateful choosers
// consulted by the scheduler at every scheduling point and at every
// non-deterministic choice.
//
// Strategies operate purely on operation ids, never on the scheduler's own
// types, so this package has no dependency on the root governor package —
// it is consumed by it instead.
package strategy

// Strategy is the decision procedure invoked at each scheduling point and
// at each non-deterministic choice.
type Strategy interface {
	// NextOperation chooses which of the enabled operation ids should run
	// next. enabled is given in deterministic, stable order; current is
	// the id of the operation that was executing when the scheduling point
	// fired (0 if none). NextOperation must return one of the ids in
	// enabled.
	NextOperation(enabled []uint64, current uint64) uint64

	// NextBool returns the next non-deterministic boolean value.
	NextBool() bool

	// NextInt returns the next non-deterministic integer value in [0,max).
	// max must be > 0.
	NextInt(max int) int

	// NextDelay returns a delay value in [0,max), used by the scheduler's
	// DelayOperation under the Interleaving policy.
	NextDelay(max int) int

	// PrepareNextIteration is called by the scheduler before each
	// iteration, including the first (iteration indices start at 1). It
	// returns false once the strategy is exhausted; neither the scheduler
	// nor the exploration driver acts on that return value.
	PrepareNextIteration(iteration int) bool

	// GetDescription returns a short human-readable description of the
	// strategy and its configuration, for reports and logs.
	GetDescription() string
}

// pickSmallest returns the smallest id in ids. Used by Replay as its
// fallback choice once a recording can no longer be followed.
func pickSmallest(ids []uint64) uint64 {
	best := ids[0]
	for _, id := range ids[1:] {
		if id < best {
			best = id
		}
	}
	return best
}
