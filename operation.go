package governor

import (
	"fmt"
	"sync"
)

// OperationID uniquely identifies a [Operation] within one iteration. Zero
// is reserved as a null/unset marker, starting allocation at 1 (0 is null).
type OperationID uint64

// WakePredicate reports whether a blocked operation's precondition now
// holds (a semaphore has permits, a mailbox has a dequeuable event, a
// dependency completed). It is re-evaluated by the scheduler at every
// scheduling point.
type WakePredicate func() bool

// Operation is the unit the scheduler schedules.
type Operation struct {
	ID   OperationID
	Name string

	status *atomicStatus

	mu             sync.Mutex
	dependencies   map[OperationID]struct{}
	wake           WakePredicate
	delayRemaining int

	// resume is the per-operation "resume token": buffered size 1, signaled
	// by whichever operation is currently executing when it chooses this
	// operation to run next.
	resume chan struct{}

	// done is closed exactly once, when the operation reaches Completed.
	// Used by the Thread/Task adapters' Join/Await.
	done chan struct{}

	// goroutineID is set once the operation's body goroutine starts
	// running, enabling the scheduler's "current operation" ambient
	// lookup and its uncontrolled-concurrency detection.
	goroutineID uint64
}

func newOperation(id OperationID, name string) *Operation {
	return &Operation{
		ID:     id,
		Name:   name,
		status: newAtomicStatus(StatusNone),
		resume: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Status returns the operation's current status.
func (op *Operation) Status() OperationStatus { return op.status.Load() }

// SetWake installs the predicate the scheduler uses to decide whether a
// blocked operation may be promoted back to Enabled. Called by
// synchronization primitives when they park an operation.
func (op *Operation) SetWake(pred WakePredicate) {
	op.mu.Lock()
	op.wake = pred
	op.mu.Unlock()
}

// checkWake evaluates the installed wake predicate, if any. An operation
// with no predicate installed is never auto-promoted (it is waiting on an
// explicit external signal instead, e.g. Join).
func (op *Operation) checkWake() bool {
	op.mu.Lock()
	pred := op.wake
	op.mu.Unlock()
	if pred == nil {
		return false
	}
	return pred()
}

// setDelay arms a scheduling-step delay counter, consumed one tick per
// scheduling point by delayTick.
func (op *Operation) setDelay(steps int) {
	op.mu.Lock()
	op.delayRemaining = steps
	op.mu.Unlock()
}

// delayTick consumes one pending delay tick, reporting whether the
// operation is still delayed afterward.
func (op *Operation) delayTick() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.delayRemaining > 0 {
		op.delayRemaining--
		return true
	}
	return false
}

// DependsOn records another operation this one is awaiting, for
// diagnostics (deadlock reports name the blocked set, not the dependency
// graph, but tests and reports may want it).
func (op *Operation) DependsOn(other OperationID) {
	op.mu.Lock()
	if op.dependencies == nil {
		op.dependencies = make(map[OperationID]struct{})
	}
	op.dependencies[other] = struct{}{}
	op.mu.Unlock()
}

// Done returns a channel closed when the operation completes.
func (op *Operation) Done() <-chan struct{} { return op.done }

func (op *Operation) String() string {
	return fmt.Sprintf("Operation(#%d %q %s)", op.ID, op.Name, op.status.Load())
}

// operationTable maintains the id->operation mapping plus deterministic,
// stable (insertion-order) enumeration. No weak pointers or scavenging:
// every operation's lifetime is scoped to exactly one iteration and must
// be strongly reachable for its whole duration (see DESIGN.md).
type operationTable struct {
	mu     sync.Mutex
	byID   map[OperationID]*Operation
	order  []OperationID // insertion order, never reordered
	nextID OperationID
}

func newOperationTable() *operationTable {
	return &operationTable{
		byID:   make(map[OperationID]*Operation),
		nextID: 1,
	}
}

// Register allocates a new id, wraps it in an Operation, stores it, and
// returns it. The caller is responsible for setting its initial status.
func (t *operationTable) Register(name string) *Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	op := newOperation(id, name)
	t.byID[id] = op
	t.order = append(t.order, id)
	return op
}

// Lookup returns the operation for id, or nil if unknown.
func (t *operationTable) Lookup(id OperationID) *Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byID[id]
}

// Enumerate returns all operations in deterministic, stable (insertion)
// order.
func (t *operationTable) Enumerate() []*Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Operation, 0, len(t.order))
	for _, id := range t.order {
		if op, ok := t.byID[id]; ok {
			out = append(out, op)
		}
	}
	return out
}

// EnabledIDs returns the ids of all Enabled operations, in deterministic
// order.
func (t *operationTable) EnabledIDs() []OperationID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]OperationID, 0)
	for _, id := range t.order {
		if op := t.byID[id]; op != nil && op.Status() == StatusEnabled {
			out = append(out, id)
		}
	}
	return out
}

// CountByStatus returns the number of operations in each status.
func (t *operationTable) CountByStatus() map[OperationStatus]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[OperationStatus]int)
	for _, id := range t.order {
		if op := t.byID[id]; op != nil {
			counts[op.Status()]++
		}
	}
	return counts
}

// BlockedIDs returns the ids of all operations in a Blocked* status, in
// deterministic order.
func (t *operationTable) BlockedIDs() []OperationID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]OperationID, 0)
	for _, id := range t.order {
		if op := t.byID[id]; op != nil && op.Status().IsBlocked() {
			out = append(out, id)
		}
	}
	return out
}

// AllCompleted reports whether every registered operation is Completed.
func (t *operationTable) AllCompleted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range t.order {
		if op := t.byID[id]; op != nil && op.Status() != StatusCompleted {
			return false
		}
	}
	return true
}
