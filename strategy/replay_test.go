package strategy

import "testing"

func TestReplay_ReproducesRecordedDecisions(t *testing.T) {
	entries := []ReplayEntry{
		{Kind: ReplayOpDecision, Op: 2},
		{Kind: ReplayBoolDecision, Bool: true},
		{Kind: ReplayIntDecision, Int: 3},
		{Kind: ReplayOpDecision, Op: 1},
	}
	s := NewReplay(entries)

	if got := s.NextOperation([]uint64{1, 2, 3}, 0); got != 2 {
		t.Fatalf("NextOperation() = %d, want 2", got)
	}
	if got := s.NextBool(); got != true {
		t.Fatalf("NextBool() = %v, want true", got)
	}
	if got := s.NextInt(5); got != 3 {
		t.Fatalf("NextInt() = %d, want 3", got)
	}
	if got := s.NextOperation([]uint64{1, 2, 3}, 2); got != 1 {
		t.Fatalf("NextOperation() = %d, want 1", got)
	}
	if diverged, _, _, _ := s.Diverged(); diverged {
		t.Fatal("expected no divergence for a matching replay")
	}
}

func TestReplay_DivergesWhenOperationNotEnabled(t *testing.T) {
	s := NewReplay([]ReplayEntry{{Kind: ReplayOpDecision, Op: 9}})
	s.NextOperation([]uint64{1, 2}, 0)
	diverged, _, want, got := s.Diverged()
	if !diverged {
		t.Fatal("expected divergence when recorded operation is not enabled")
	}
	if want == "" || got == "" {
		t.Fatalf("want/got should be populated, got want=%q got=%q", want, got)
	}
}

func TestReplay_DivergesOnKindMismatch(t *testing.T) {
	s := NewReplay([]ReplayEntry{{Kind: ReplayBoolDecision, Bool: true}})
	s.NextOperation([]uint64{1}, 0)
	diverged, _, _, _ := s.Diverged()
	if !diverged {
		t.Fatal("expected divergence when recorded kind doesn't match the requested decision")
	}
}

func TestReplay_SingleShot(t *testing.T) {
	s := NewReplay(nil)
	if !s.PrepareNextIteration(1) {
		t.Fatal("PrepareNextIteration(1) = false, want true")
	}
	if s.PrepareNextIteration(2) {
		t.Fatal("PrepareNextIteration(2) = true, want false (replay is single-shot)")
	}
}

func TestReplay_IntOutOfRangeDiverges(t *testing.T) {
	s := NewReplay([]ReplayEntry{{Kind: ReplayIntDecision, Int: 10}})
	s.NextInt(3)
	diverged, _, _, _ := s.Diverged()
	if !diverged {
		t.Fatal("expected divergence when recorded int is out of range")
	}
}
