package strategy

import "testing"

func TestRandom_NextOperationChoosesEnabled(t *testing.T) {
	s := NewRandom(1)
	enabled := []uint64{3, 7, 9}
	for i := 0; i < 50; i++ {
		got := s.NextOperation(enabled, 0)
		found := false
		for _, id := range enabled {
			if id == got {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("NextOperation() = %d, not in enabled set %v", got, enabled)
		}
	}
}

func TestRandom_DeterministicPerIteration(t *testing.T) {
	a := NewRandom(42)
	b := NewRandom(42)
	a.PrepareNextIteration(1)
	b.PrepareNextIteration(1)

	enabled := []uint64{1, 2, 3, 4, 5}
	for i := 0; i < 20; i++ {
		av := a.NextOperation(enabled, 0)
		bv := b.NextOperation(enabled, 0)
		if av != bv {
			t.Fatalf("step %d: diverged: %d vs %d", i, av, bv)
		}
	}
}

func TestRandom_ReseedsDifferentlyPerIteration(t *testing.T) {
	s := NewRandom(7)
	s.PrepareNextIteration(1)
	enabled := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	var first []uint64
	for i := 0; i < 10; i++ {
		first = append(first, s.NextOperation(enabled, 0))
	}

	s.PrepareNextIteration(2)
	var second []uint64
	for i := 0; i < 10; i++ {
		second = append(second, s.NextOperation(enabled, 0))
	}

	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected differing sequences across iterations, got identical sequences")
	}
}

func TestRandom_GetDescription(t *testing.T) {
	if got := NewRandom(1).GetDescription(); got != "random" {
		t.Fatalf("GetDescription() = %q, want %q", got, "random")
	}
}
