package strategy

import "fmt"

// dfsChoice records one decision point on the current path: the candidate
// values available at that point (operation ids, or {0,1} for a bool, or
// [0,max) for an int), and which index into that candidate list was taken.
type dfsChoice struct {
	candidates []uint64
	taken      int
}

// DFS implements a systematic depth-first strategy: it
// always takes the first untried candidate at a new decision point, and on
// the next iteration backtracks to the deepest point with an untried
// candidate remaining, exhaustively covering the schedule tree in the
// manner of a classic model checker. PrepareNextIteration reports false
// once every path has been exhausted; the exploration driver does not stop
// on that return value, so the iteration count still bounds a DFS run.
type DFS struct {
	path      []dfsChoice
	pos       int
	exhausted bool
	replaying bool
}

// NewDFS constructs a DFS strategy with an empty exploration path.
func NewDFS() *DFS {
	return &DFS{}
}

func (s *DFS) choose(candidates []uint64) uint64 {
	if s.pos < len(s.path) {
		// Replaying the prefix fixed by the prior backtrack.
		c := &s.path[s.pos]
		c.candidates = candidates
		s.pos++
		return candidates[c.taken]
	}
	// A genuinely new decision point: always take the first candidate, per
	// classic DFS exploration order.
	s.path = append(s.path, dfsChoice{candidates: candidates, taken: 0})
	s.pos++
	return candidates[0]
}

func (s *DFS) NextOperation(enabled []uint64, _ uint64) uint64 {
	return s.choose(enabled)
}

func (s *DFS) NextBool() bool {
	return s.choose([]uint64{0, 1}) == 1
}

func (s *DFS) NextInt(max int) int {
	candidates := make([]uint64, max)
	for i := range candidates {
		candidates[i] = uint64(i)
	}
	return int(s.choose(candidates))
}

func (s *DFS) NextDelay(max int) int { return s.NextInt(max) }

// PrepareNextIteration backtracks the path to the deepest choice with an
// untried candidate, discarding everything after it, and reports whether
// any such point exists. A false return means every path reachable from
// the root has been exhausted.
func (s *DFS) PrepareNextIteration(iteration int) bool {
	if iteration <= 1 {
		s.path = s.path[:0]
		s.pos = 0
		s.exhausted = false
		return true
	}
	if s.exhausted {
		return false
	}
	for len(s.path) > 0 {
		last := len(s.path) - 1
		c := &s.path[last]
		if c.taken+1 < len(c.candidates) {
			c.taken++
			s.path = s.path[:last+1]
			s.pos = 0
			return true
		}
		s.path = s.path[:last]
	}
	s.exhausted = true
	return false
}

func (s *DFS) GetDescription() string {
	return fmt.Sprintf("dfs(depth=%d)", len(s.path))
}
