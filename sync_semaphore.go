package governor

import "sync"

// Semaphore is a controlled counting semaphore, :
// Wait decrements if positive else blocks; Release increments (capped at
// max) and wakes one waiter.
type Semaphore struct {
	sched *Scheduler

	mu      sync.Mutex
	permits int
	max     int
}

// NewSemaphore constructs a Semaphore with the given initial permit count,
// capped at max permits outstanding.
func NewSemaphore(sched *Scheduler, initial, max int) *Semaphore {
	return &Semaphore{sched: sched, permits: initial, max: max}
}

func (s *Semaphore) hasPermit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.permits > 0
}

// Acquire takes one permit, blocking the calling operation while none are
// available.
func (s *Semaphore) Acquire() {
	op := s.sched.currentOperation()
	if op == nil {
		s.sched.raiseUncontrolled()
		return
	}
	for {
		s.mu.Lock()
		if s.permits > 0 {
			s.permits--
			s.mu.Unlock()
			s.sched.ScheduleNextOperation(PointAcquireLock)
			return
		}
		s.mu.Unlock()

		op.SetWake(s.hasPermit)
		op.status.TryTransition(StatusEnabled, StatusBlockedOnWait)
		s.sched.schedulePoint(op, PointAcquireLock, false)
	}
}

// TryAcquire attempts to take one permit without blocking. On the
// synchronous-failure path (no permit available) it returns false without
// emitting a scheduling point, "Wait(0) returns false
// immediately without a scheduling point" boundary case.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	ok := s.permits > 0
	if ok {
		s.permits--
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.sched.ScheduleNextOperation(PointDefault)
	return true
}

// Release returns one permit, saturating at max.
func (s *Semaphore) Release() {
	s.mu.Lock()
	if s.permits < s.max {
		s.permits++
	}
	s.mu.Unlock()
	s.sched.ScheduleNextOperation(PointReleaseLock)
}
