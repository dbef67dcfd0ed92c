package governor

// Thread adapts [Scheduler.StartOperation] into the simpler fire-and-join
// shape of a thread-style controlled primitive (no result value, unlike
// [Task]).
type Thread struct {
	sched *Scheduler
	op    *Operation
}

// StartThread starts fn as a new operation running concurrently.
func StartThread(sched *Scheduler, name string, fn func()) *Thread {
	th := &Thread{sched: sched}
	th.op = sched.StartOperation(name, fn)
	return th
}

// Join blocks the calling operation until th completes.
func (th *Thread) Join() {
	op := th.sched.currentOperation()
	if op == nil {
		th.sched.raiseUncontrolled()
		return
	}
	op.DependsOn(th.op.ID)
	for th.op.Status() != StatusCompleted {
		op.SetWake(func() bool { return th.op.Status() == StatusCompleted })
		op.status.TryTransition(StatusEnabled, StatusBlockedOnWait)
		th.sched.schedulePoint(op, PointWait, false)
	}
}

// Done returns a channel closed when th completes.
func (th *Thread) Done() <-chan struct{} { return th.op.Done() }

// Yield is a voluntary scheduling point: the calling operation remains
// Enabled, but offers the strategy the chance to run another operation
// instead.
func Yield(sched *Scheduler) {
	sched.ScheduleNextOperation(PointYield)
}
