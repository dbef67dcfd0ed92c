package strategy

import (
	"fmt"
	"math/rand/v2"
)

// rlState is the coarsened Q-table key: the number of currently enabled
// operations (capped) and the scheduling step bucket. Keying on the full
// operation-id set would never generalize across iterations, since ids are
// freshly allocated each run; keying on the shape of the choice instead
// lets learned preferences (e.g. "prefer a minority choice when many
// operations are enabled, to bias toward interleavings") transfer.
type rlState struct {
	enabledBucket int
	stepBucket    int
}

const rlMaxActions = 8

// RL implements a reinforcement-learning-guided strategy: a tabular
// Q-learning chooser over a coarsened state (enabled-operation-count
// bucket, step bucket) and a relative action (the rank, within the enabled
// set, of the operation chosen). Reward is supplied once per iteration via
// [RL.ObserveOutcome], crediting every (state,action) pair visited during an
// iteration that ended in a bug find, and a small negative credit otherwise,
// nudging future iterations toward schedules structurally similar to past
// bug-finding ones.
type RL struct {
	seed    uint64
	rng     *rand.Rand
	epsilon float64
	alpha   float64
	gamma   float64

	q map[rlState][]float64

	// visited records the (state,action) pairs taken during the current
	// iteration, so ObserveOutcome can credit all of them.
	visited []rlVisit
	step    int
}

type rlVisit struct {
	state  rlState
	action int
}

// NewRL constructs an RL strategy with default learning-rate/discount
// hyperparameters and an exploration rate of epsilon (fraction of
// decisions made uniformly at random rather than greedily).
func NewRL(seed uint64, epsilon float64) *RL {
	if epsilon < 0 || epsilon > 1 {
		epsilon = 0.2
	}
	return &RL{
		seed:    seed,
		rng:     rand.New(rand.NewPCG(seed, seed^0xbf58476d1ce4e5b9)),
		epsilon: epsilon,
		alpha:   0.3,
		gamma:   0.9,
		q:       make(map[rlState][]float64),
	}
}

func bucket(n, width int) int {
	b := n / width
	if b > 7 {
		b = 7
	}
	return b
}

func (s *RL) state(numEnabled int) rlState {
	return rlState{enabledBucket: bucket(numEnabled, 2), stepBucket: bucket(s.step, 25)}
}

func (s *RL) qRow(st rlState, actions int) []float64 {
	row, ok := s.q[st]
	if !ok || len(row) < actions {
		row = make([]float64, actions)
		s.q[st] = row
	}
	return row
}

func (s *RL) chooseAction(st rlState, actions int) int {
	row := s.qRow(st, actions)
	if s.rng.Float64() < s.epsilon {
		return s.rng.IntN(actions)
	}
	best := 0
	for i := 1; i < actions; i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}

func (s *RL) NextOperation(enabled []uint64, _ uint64) uint64 {
	s.step++
	actions := len(enabled)
	if actions > rlMaxActions {
		actions = rlMaxActions
	}
	st := s.state(len(enabled))
	action := s.chooseAction(st, actions)
	s.visited = append(s.visited, rlVisit{state: st, action: action})
	idx := action
	if idx >= len(enabled) {
		idx = len(enabled) - 1
	}
	return enabled[idx]
}

func (s *RL) NextBool() bool { return s.rng.IntN(2) == 1 }

func (s *RL) NextInt(max int) int { return s.rng.IntN(max) }

func (s *RL) NextDelay(max int) int { return s.rng.IntN(max) }

// ObserveOutcome applies the Q-learning update for every (state,action)
// pair visited this iteration, crediting the whole trajectory with
// reward (1 if the iteration found a bug, -0.01 otherwise, matching a
// sparse-reward bandit-style shaping), then resets the trajectory for the
// next iteration. Called by the exploration driver after each iteration
// completes.
func (s *RL) ObserveOutcome(foundBug bool) {
	reward := -0.01
	if foundBug {
		reward = 1.0
	}
	for i := len(s.visited) - 1; i >= 0; i-- {
		v := s.visited[i]
		row := s.qRow(v.state, v.action+1)
		var future float64
		if i+1 < len(s.visited) {
			next := s.visited[i+1]
			nrow := s.qRow(next.state, next.action+1)
			for _, qv := range nrow {
				if qv > future {
					future = qv
				}
			}
		}
		row[v.action] += s.alpha * (reward + s.gamma*future - row[v.action])
	}
	s.visited = s.visited[:0]
	s.step = 0
}

func (s *RL) PrepareNextIteration(iteration int) bool {
	return true
}

func (s *RL) GetDescription() string {
	return fmt.Sprintf("rl(epsilon=%.2f)", s.epsilon)
}
