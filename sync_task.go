package governor

import "sync"

// TaskResult is the value produced by a [Task], a plain alias rather than
// making Task generic — this module favors plain interfaces over
// parameterized types at its public edges, reserving generics for places
// they pay for themselves (such as [List]).
type TaskResult = any

// Task adapts [Scheduler.StartOperation] into a future-like handle, the
// building block behind the WhenAll/WhenAny/Delay combinators below.
type Task struct {
	sched *Scheduler
	op    *Operation

	mu     sync.Mutex
	result TaskResult
	err    error
}

// StartNew starts fn as a new operation and returns a handle to await its
// result.
func StartNew(sched *Scheduler, name string, fn func() (TaskResult, error)) *Task {
	t := &Task{sched: sched}
	t.op = sched.StartOperation(name, func() {
		result, err := fn()
		t.mu.Lock()
		t.result, t.err = result, err
		t.mu.Unlock()
	})
	return t
}

// Await blocks the calling operation until t completes, then returns its
// result.
func (t *Task) Await() (TaskResult, error) {
	op := t.sched.currentOperation()
	if op == nil {
		t.sched.raiseUncontrolled()
	} else {
		op.DependsOn(t.op.ID)
		for t.op.Status() != StatusCompleted {
			op.SetWake(func() bool { return t.op.Status() == StatusCompleted })
			op.status.TryTransition(StatusEnabled, StatusBlockedOnWait)
			t.sched.schedulePoint(op, PointWait, false)
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Done returns a channel closed when t completes. A receive on it is not a
// scheduling point: the scheduler cannot see a controlled operation (the
// iteration body included) blocked on it, so controlled code waits with
// [Task.Await].
func (t *Task) Done() <-chan struct{} { return t.op.Done() }

// Delay parks the calling operation for a strategy-chosen number of
// scheduling steps in [0,maxSteps).
func Delay(sched *Scheduler, maxSteps int) int {
	return sched.DelayOperation(maxSteps)
}

// WhenAll blocks until every task in tasks has completed, returning their
// results in the same order, and the first non-nil error encountered (if
// any).
func WhenAll(sched *Scheduler, tasks []*Task) ([]TaskResult, error) {
	results := make([]TaskResult, len(tasks))
	var firstErr error
	for i, t := range tasks {
		r, err := t.Await()
		results[i] = r
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// WhenAny blocks until at least one task in tasks has completed, then
// returns its index and result. If several are already complete by the
// time WhenAny is evaluated, the smallest operation id among them wins
// (see DESIGN.md's Open Question decision), for determinism under replay.
func WhenAny(sched *Scheduler, tasks []*Task) (int, TaskResult, error) {
	if len(tasks) == 0 {
		return -1, nil, ErrEmptyTaskSet
	}
	op := sched.currentOperation()
	if op == nil {
		sched.raiseUncontrolled()
		return -1, nil, ErrNotCurrentOperation
	}
	for {
		best := -1
		for i, t := range tasks {
			if t.op.Status() == StatusCompleted {
				if best == -1 || tasks[i].op.ID < tasks[best].op.ID {
					best = i
				}
			}
		}
		if best != -1 {
			t := tasks[best]
			t.mu.Lock()
			r, err := t.result, t.err
			t.mu.Unlock()
			return best, r, err
		}
		op.SetWake(func() bool {
			for _, t := range tasks {
				if t.op.Status() == StatusCompleted {
					return true
				}
			}
			return false
		})
		op.status.TryTransition(StatusEnabled, StatusBlockedOnWait)
		sched.schedulePoint(op, PointWait, false)
	}
}
