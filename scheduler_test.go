package governor

import (
	"testing"
)

func TestScheduler_TwoOperationsInterleaveToCompletion(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	var trace []string
	result := s.RunIteration(1, func(sch *Scheduler) {
		b := StartThread(sch, "b", func() {
			trace = append(trace, "b1")
			sch.ScheduleNextOperation(PointDefault)
			trace = append(trace, "b2")
		})
		sch.ScheduleNextOperation(PointCreate)
		trace = append(trace, "a1")
		sch.ScheduleNextOperation(PointDefault)
		trace = append(trace, "a2")
		b.Join()
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
	if len(trace) != 4 {
		t.Fatalf("trace = %v, want 4 entries", trace)
	}
}

func TestScheduler_AssertFailureSurfacesAsBug(t *testing.T) {
	s, err := NewScheduler(WithRandomStrategy(1))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	result := s.RunIteration(1, func(sch *Scheduler) {
		sch.Assert(1 == 2, "invariant broken: %d != %d", 1, 2)
	})

	if result.Err == nil {
		t.Fatal("expected an assertion error")
	}
	var ae *AssertionError
	if !errorsAsAssertion(result.Err, &ae) {
		t.Fatalf("expected *AssertionError, got %T: %v", result.Err, result.Err)
	}
}

func TestScheduler_MaxStepsExceededCancelsIteration(t *testing.T) {
	s, err := NewScheduler(WithRandomStrategy(1), WithMaxSchedulingSteps(3))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	result := s.RunIteration(1, func(sch *Scheduler) {
		for i := 0; i < 10; i++ {
			sch.ScheduleNextOperation(PointDefault)
		}
	})

	if result.Err == nil {
		t.Fatal("expected ErrMaxSteps to surface as the iteration error")
	}
}

func TestScheduler_DelayOperationThenJoinCompletes(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	var order []string
	result := s.RunIteration(1, func(sch *Scheduler) {
		b := StartThread(sch, "b", func() {
			order = append(order, "b")
		})
		sch.ScheduleNextOperation(PointCreate)
		sch.DelayOperation(2)
		order = append(order, "a")
		b.Join()
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
	if len(order) != 2 {
		t.Fatalf("order = %v, want 2 entries", order)
	}
}

func errorsAsAssertion(err error, target **AssertionError) bool {
	ae, ok := err.(*AssertionError)
	if !ok {
		return false
	}
	*target = ae
	return true
}
