package governor

import "sync"

// Mutex is a controlled mutual-exclusion lock, :
// owner-aware and reentrant — if unowned or already owned by the calling
// operation, Lock succeeds (incrementing the hold depth); otherwise it
// blocks. Under [PolicyInterleaving] every Lock/Unlock is a scheduling
// point, so the strategy gets to choose whether a contending operation is
// given the chance to observe the lock held before it's released.
type Mutex struct {
	sched *Scheduler

	mu     sync.Mutex
	heldBy OperationID
	depth  int
}

// NewMutex constructs a Mutex bound to sched.
func NewMutex(sched *Scheduler) *Mutex {
	return &Mutex{sched: sched}
}

func (m *Mutex) isFree() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heldBy == 0
}

// Lock acquires the mutex, blocking the calling operation (as
// [StatusBlockedOnResource]) while it is held by another. Reentrant: a
// repeat Lock by the current holder succeeds immediately and increments
// the hold depth.
func (m *Mutex) Lock() {
	op := m.sched.currentOperation()
	if op == nil {
		m.sched.raiseUncontrolled()
		return
	}
	for {
		m.mu.Lock()
		if m.heldBy == 0 || m.heldBy == op.ID {
			m.heldBy = op.ID
			m.depth++
			m.mu.Unlock()
			m.sched.ScheduleNextOperation(PointAcquireLock)
			return
		}
		m.mu.Unlock()

		op.SetWake(m.isFree)
		op.status.TryTransition(StatusEnabled, StatusBlockedOnResource)
		m.sched.schedulePoint(op, PointAcquireLock, false)
	}
}

// TryLock attempts to acquire the mutex without blocking. Reentrant, like
// Lock.
func (m *Mutex) TryLock() bool {
	op := m.sched.currentOperation()
	if op == nil {
		m.sched.raiseUncontrolled()
		return false
	}
	m.mu.Lock()
	ok := m.heldBy == 0 || m.heldBy == op.ID
	if ok {
		m.heldBy = op.ID
		m.depth++
	}
	m.mu.Unlock()
	m.sched.ScheduleNextOperation(PointDefault)
	return ok
}

// Unlock releases one level of the mutex's hold depth, freeing it for
// other operations only once the depth reaches zero.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	m.depth--
	if m.depth <= 0 {
		m.depth = 0
		m.heldBy = 0
	}
	m.mu.Unlock()
	m.sched.ScheduleNextOperation(PointReleaseLock)
}
