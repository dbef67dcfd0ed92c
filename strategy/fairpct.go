package strategy

import "fmt"

// HotnessOracle is consulted by [FairPCT] to learn whether any liveness
// monitor is currently in a hot state, matching the monitor package's
// hot/cold temperature model. It is implemented by the exploration
// driver's monitor registry and wired in at construction time, so this
// package never imports the monitor package directly (avoiding an import
// cycle: monitor depends on the root governor package, which depends on
// strategy).
type HotnessOracle interface {
	// Hot reports whether at least one monitor is currently in a hot state.
	Hot() bool
}

// noOracle is used when FairPCT is constructed without one; it reports
// "never hot", degenerating to plain PCT behavior.
type noOracle struct{}

func (noOracle) Hot() bool { return false }

// FairPCT implements the "FairPCT" strategy: PCT's priority
// scheme, but with an extra, unbounded-count forced priority reshuffle
// whenever the hotness oracle reports a hot monitor. Plain PCT can starve a
// hot operation behind a strictly higher-priority infinite loop elsewhere;
// FairPCT breaks that tie by periodically randomizing priorities while any
// monitor is hot, trading a little exploration focus for the guarantee
// that liveness bugs are not masked by priority starvation.
type FairPCT struct {
	base   *PCT
	oracle HotnessOracle

	// reshuffleEvery bounds how often, in scheduling steps, the hot-state
	// forced reshuffle may fire, so a persistently hot monitor doesn't
	// degrade FairPCT into pure-random scheduling.
	reshuffleEvery int
	sinceReshuffle int
}

// NewFairPCT constructs a FairPCT(d, steps) strategy. oracle may be nil, in
// which case FairPCT behaves exactly like PCT.
func NewFairPCT(d, steps int, seed uint64, oracle HotnessOracle) *FairPCT {
	if oracle == nil {
		oracle = noOracle{}
	}
	return &FairPCT{
		base:           NewPCT(d, steps, seed),
		oracle:         oracle,
		reshuffleEvery: 10,
	}
}

func (s *FairPCT) NextOperation(enabled []uint64, current uint64) uint64 {
	s.sinceReshuffle++
	if s.oracle.Hot() && s.sinceReshuffle >= s.reshuffleEvery {
		s.sinceReshuffle = 0
		for _, id := range enabled {
			s.base.demoteToLowest(id)
		}
		// Re-promote in a fresh random order so the hot set isn't simply
		// re-demoted in its prior relative order.
		order := append([]uint64(nil), enabled...)
		s.base.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, id := range order {
			s.base.demoteToLowest(id)
		}
	}
	return s.base.NextOperation(enabled, current)
}

func (s *FairPCT) NextBool() bool { return s.base.NextBool() }

func (s *FairPCT) NextInt(max int) int { return s.base.NextInt(max) }

func (s *FairPCT) NextDelay(max int) int { return s.base.NextDelay(max) }

func (s *FairPCT) PrepareNextIteration(iteration int) bool {
	s.sinceReshuffle = 0
	return s.base.PrepareNextIteration(iteration)
}

func (s *FairPCT) GetDescription() string {
	return fmt.Sprintf("fairpct(d=%d,steps=%d)", s.base.d, s.base.steps)
}
