package governor

import (
	"errors"
	"testing"
)

func TestMutex_MutualExclusion(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	var m *Mutex
	var holders int
	var maxHolders int

	result := s.RunIteration(1, func(sch *Scheduler) {
		m = NewMutex(sch)
		th := StartThread(sch, "b", func() {
			m.Lock()
			holders++
			if holders > maxHolders {
				maxHolders = holders
			}
			sch.ScheduleNextOperation(PointDefault)
			holders--
			m.Unlock()
		})
		m.Lock()
		holders++
		if holders > maxHolders {
			maxHolders = holders
		}
		sch.ScheduleNextOperation(PointDefault)
		holders--
		m.Unlock()
		th.Join()
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
	if maxHolders > 1 {
		t.Fatalf("maxHolders = %d, want <= 1 (mutual exclusion violated)", maxHolders)
	}
}

func TestMutex_ReentrantLockByTheSameOperationSucceeds(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	result := s.RunIteration(1, func(sch *Scheduler) {
		m := NewMutex(sch)
		m.Lock()
		m.Lock() // reentrant: must not deadlock against itself.
		m.Unlock()
		m.Unlock()
		if m.TryLock() {
			m.Unlock()
		} else {
			sch.Assert(false, "expected a free mutex to be lockable")
		}
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
}

func TestSemaphore_BoundsConcurrentAcquirers(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	result := s.RunIteration(1, func(sch *Scheduler) {
		sem := NewSemaphore(sch, 1, 1)
		sem.Acquire()
		if sem.TryAcquire() {
			sch.Assert(false, "second acquire should have failed with 1 permit")
		}
		sem.Release()
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
}

func TestSemaphore_ReleaseSaturatesAtMax(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	result := s.RunIteration(1, func(sch *Scheduler) {
		sem := NewSemaphore(sch, 1, 1)
		sem.Release() // already at max; must not grow past it.
		if !sem.TryAcquire() {
			sch.Assert(false, "expected a permit to be available")
		}
		if sem.TryAcquire() {
			sch.Assert(false, "Release past max must not have created a second permit")
		}
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
}

func TestSemaphore_TryAcquireFailureEmitsNoSchedulingPoint(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	result := s.RunIteration(1, func(sch *Scheduler) {
		sem := NewSemaphore(sch, 0, 1)
		stepsBefore := sch.steps
		if sem.TryAcquire() {
			sch.Assert(false, "expected TryAcquire to fail on an empty semaphore")
		}
		if sch.steps != stepsBefore {
			sch.Assert(false, "TryAcquire's synchronous-failure path must not emit a scheduling point")
		}
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
}

func TestCond_WaitReleasesAndReacquiresPairedLock(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	var observedReady bool

	result := s.RunIteration(1, func(sch *Scheduler) {
		m := NewMutex(sch)
		cond := NewCond(m)
		ready := false

		waiter := StartThread(sch, "waiter", func() {
			m.Lock()
			for !ready {
				cond.Wait() // must release m here, or the signaler below deadlocks.
			}
			observedReady = ready
			m.Unlock()
		})
		sch.ScheduleNextOperation(PointCreate)

		m.Lock()
		ready = true
		m.Unlock()
		cond.Signal()

		waiter.Join()
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
	if !observedReady {
		t.Fatal("waiter never observed ready = true after being signaled")
	}
}

func TestTask_AwaitReturnsResult(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	var got TaskResult
	result := s.RunIteration(1, func(sch *Scheduler) {
		task := StartNew(sch, "compute", func() (TaskResult, error) {
			return 42, nil
		})
		v, err := task.Await()
		if err != nil {
			sch.Assert(false, "unexpected error: %v", err)
		}
		got = v
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
	if got != 42 {
		t.Fatalf("got = %v, want 42", got)
	}
}

func TestWhenAny_PicksSmallestCompletedID(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	var idx int
	result := s.RunIteration(1, func(sch *Scheduler) {
		a := StartNew(sch, "a", func() (TaskResult, error) { return "a", nil })
		b := StartNew(sch, "b", func() (TaskResult, error) { return "b", nil })
		a.Await()
		b.Await()
		idx, _, _ = WhenAny(sch, []*Task{a, b})
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
	if idx != 0 {
		t.Fatalf("idx = %d, want 0 (smallest id)", idx)
	}
}

func TestWhenAny_EmptySetFailsWithoutBlocking(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithMaxSchedulingSteps(1000))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	var gotErr error
	result := s.RunIteration(1, func(sch *Scheduler) {
		_, _, gotErr = WhenAny(sch, nil)
	})

	if result.Err != nil {
		t.Fatalf("RunIteration() Err = %v", result.Err)
	}
	if !errors.Is(gotErr, ErrEmptyTaskSet) {
		t.Fatalf("WhenAny(nil) error = %v, want ErrEmptyTaskSet", gotErr)
	}
}

func TestList_RaceCheckingDetectsOverlap(t *testing.T) {
	s, err := NewScheduler(WithDFSStrategy(), WithCollectionAccessRaceChecking(true))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	result := s.RunIteration(1, func(sch *Scheduler) {
		l := NewList[int](sch, "items")
		l.Append(1)
		done := l.enterWrite()
		defer done()
		l.Append(2) // still "writing" above: second enterWrite should panic
	})

	if result.Err == nil {
		t.Fatal("expected a DataRaceError")
	}
	if _, ok := result.Err.(*DataRaceError); !ok {
		t.Fatalf("expected *DataRaceError, got %T: %v", result.Err, result.Err)
	}
}
