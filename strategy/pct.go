package strategy

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// PCT implements the "PCT(d, steps)" priority-based exploration strategy
// (probabilistic concurrency testing): operations are
// assigned random priorities as they are first observed (equal priorities
// go to the smaller id), and the scheduler always runs the
// highest-priority enabled operation. d
// "priority change points" are chosen uniformly at random among the first
// steps scheduling decisions; when the step counter reaches one, the
// currently scheduled operation's priority is demoted to lowest. This
// biases exploration toward the small number of priority inversions that
// research shows expose the majority of concurrency bugs, at a cost
// bounded by d rather than by the size of the schedule.
type PCT struct {
	d     int
	steps int
	seed  uint64

	rng *rand.Rand

	// priority maps operation id -> priority rank; lower value is higher
	// priority. Newly observed operations are assigned a random rank;
	// nextRank stays above every rank handed out so far.
	priority map[uint64]int
	nextRank int

	// changePoints holds the step indices (1-based, sorted ascending) at
	// which the currently running operation is demoted.
	changePoints []int
	step         int
}

// NewPCT constructs a PCT(d, steps) strategy. d is the number of priority
// change points; steps is the scheduling-step bound used to distribute
// them, matching MaxSchedulingSteps by convention (callers should keep
// the two in sync).
func NewPCT(d, steps int, seed uint64) *PCT {
	if d < 0 {
		d = 0
	}
	if steps < 1 {
		steps = 1
	}
	p := &PCT{
		d:        d,
		steps:    steps,
		seed:     seed,
		priority: make(map[uint64]int),
	}
	p.reseed(0)
	return p
}

func (p *PCT) reseed(iteration int) {
	p.rng = rand.New(rand.NewPCG(p.seed, p.seed^uint64(iteration)))
	p.priority = make(map[uint64]int)
	p.nextRank = 0
	p.step = 0
	p.changePoints = choosePoints(p.rng, p.d, p.steps)
}

func choosePoints(rng *rand.Rand, d, steps int) []int {
	seen := make(map[int]struct{}, d)
	out := make([]int, 0, d)
	for len(out) < d && len(out) < steps {
		n := 1 + rng.IntN(steps)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (p *PCT) rankOf(id uint64) int {
	if r, ok := p.priority[id]; ok {
		return r
	}
	r := p.rng.IntN(1 << 20)
	if r >= p.nextRank {
		p.nextRank = r + 1
	}
	p.priority[id] = r
	return r
}

// demoteToLowest reassigns id's priority below every currently known rank,
// implementing a priority-change point.
func (p *PCT) demoteToLowest(id uint64) {
	p.priority[id] = p.nextRank
	p.nextRank++
}

func (p *PCT) NextOperation(enabled []uint64, current uint64) uint64 {
	p.step++
	if current != 0 {
		for _, cp := range p.changePoints {
			if cp == p.step {
				p.demoteToLowest(current)
				break
			}
		}
	}
	best := enabled[0]
	bestRank := p.rankOf(best)
	for _, id := range enabled[1:] {
		r := p.rankOf(id)
		if r < bestRank || (r == bestRank && id < best) {
			best, bestRank = id, r
		}
	}
	return best
}

func (p *PCT) NextBool() bool { return p.rng.IntN(2) == 1 }

func (p *PCT) NextInt(max int) int { return p.rng.IntN(max) }

func (p *PCT) NextDelay(max int) int { return p.rng.IntN(max) }

func (p *PCT) PrepareNextIteration(iteration int) bool {
	p.reseed(iteration)
	return true
}

func (p *PCT) GetDescription() string {
	return fmt.Sprintf("pct(d=%d,steps=%d)", p.d, p.steps)
}
