package governor

import "sync"

// Cond is a controlled condition variable, : Wait
// atomically releases its paired lock and blocks the calling operation
// until a generation bump from Signal/Broadcast makes it eligible again,
// re-acquiring the paired lock before resuming — mirroring sync.Cond's
// Locker-pairing semantics but arbitrated by the scheduler instead of the
// Go runtime.
type Cond struct {
	sched *Scheduler

	// L is the paired lock, released for the duration of Wait and
	// re-acquired before Wait returns, exactly like sync.Cond.L.
	L *Mutex

	mu         sync.Mutex
	generation uint64
}

// NewCond constructs a Cond paired with l.
func NewCond(l *Mutex) *Cond {
	return &Cond{sched: l.sched, L: l}
}

// Wait releases L, parks the calling operation until the next Signal or
// Broadcast, then re-acquires L before returning.
func (c *Cond) Wait() {
	op := c.sched.currentOperation()
	if op == nil {
		c.sched.raiseUncontrolled()
		return
	}
	c.mu.Lock()
	seen := c.generation
	c.mu.Unlock()

	c.L.Unlock()

	op.SetWake(func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.generation != seen
	})
	op.status.TryTransition(StatusEnabled, StatusBlockedOnWait)
	c.sched.schedulePoint(op, PointSignalWait, false)

	c.L.Lock()
}

// Signal bumps the generation, which makes every operation currently
// parked in Wait eligible to resume, the same as Broadcast; the
// scheduler's strategy then decides which of them resumes first.
func (c *Cond) Signal() {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()
	c.sched.ScheduleNextOperation(PointDefault)
}

// Broadcast wakes every waiter.
func (c *Cond) Broadcast() {
	c.Signal()
}
