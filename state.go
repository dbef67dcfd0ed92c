package governor

import "sync/atomic"

// OperationStatus is the lifecycle status of a [Operation]. An operation
// transitions between Enabled and a Blocked* variant as it
// acquires/releases resources; Completed is terminal.
type OperationStatus int32

const (
	// StatusNone is the zero value, before an operation is registered.
	StatusNone OperationStatus = iota
	// StatusEnabled means the operation is runnable and may be chosen by
	// the strategy at the next scheduling point.
	StatusEnabled
	// StatusBlockedOnWait means the operation is parked on a semaphore or
	// condition variable wait.
	StatusBlockedOnWait
	// StatusBlockedOnReceive means the operation (an actor) is waiting for
	// a dequeuable mailbox event.
	StatusBlockedOnReceive
	// StatusBlockedOnResource means the operation is waiting to acquire a
	// contested lock or other exclusive resource.
	StatusBlockedOnResource
	// StatusDelayed means the operation has been handed a synthetic delay
	// by the strategy and is not yet eligible to resume.
	StatusDelayed
	// StatusPausedOnDelay means the operation called Task.Delay and may be
	// returned to Enabled at any later scheduling point.
	StatusPausedOnDelay
	// StatusCompleted is terminal.
	StatusCompleted
)

// String renders the status the way trace/log output expects it.
func (s OperationStatus) String() string {
	switch s {
	case StatusNone:
		return "None"
	case StatusEnabled:
		return "Enabled"
	case StatusBlockedOnWait:
		return "BlockedOnWait"
	case StatusBlockedOnReceive:
		return "BlockedOnReceive"
	case StatusBlockedOnResource:
		return "BlockedOnResource"
	case StatusDelayed:
		return "Delayed"
	case StatusPausedOnDelay:
		return "PausedOnDelay"
	case StatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// IsBlocked reports whether the status is one of the Blocked* variants.
func (s OperationStatus) IsBlocked() bool {
	switch s {
	case StatusBlockedOnWait, StatusBlockedOnReceive, StatusBlockedOnResource:
		return true
	default:
		return false
	}
}

// atomicStatus is a lock-free status cell: pure CAS transitions, no
// validation of transition legality left to the caller, cache-friendly.
type atomicStatus struct {
	v atomic.Int32
}

func newAtomicStatus(initial OperationStatus) *atomicStatus {
	s := &atomicStatus{}
	s.v.Store(int32(initial))
	return s
}

func (s *atomicStatus) Load() OperationStatus {
	return OperationStatus(s.v.Load())
}

func (s *atomicStatus) Store(status OperationStatus) {
	s.v.Store(int32(status))
}

// TryTransition attempts an atomic from->to transition, returning whether
// it succeeded.
func (s *atomicStatus) TryTransition(from, to OperationStatus) bool {
	return s.v.CompareAndSwap(int32(from), int32(to))
}
