package governor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pipeline-foundation/sct/strategy"
)

// SchedulingPolicy selects how the scheduler arbitrates between
// operations.
type SchedulingPolicy int

const (
	// PolicyInterleaving serializes every operation onto one logical
	// execution, consulting the configured Strategy at each scheduling
	// point. This is the default, fully-controlled mode.
	PolicyInterleaving SchedulingPolicy = iota
	// PolicyFuzzing lets operations run concurrently on real goroutines;
	// scheduling points only inject random delays chosen by the Strategy.
	PolicyFuzzing
	// PolicyNone disables scheduling entirely; operations run uncontrolled.
	PolicyNone
)

func (p SchedulingPolicy) String() string {
	switch p {
	case PolicyInterleaving:
		return "Interleaving"
	case PolicyFuzzing:
		return "Fuzzing"
	case PolicyNone:
		return "None"
	default:
		return "Unknown"
	}
}

// IterationResult summarizes the outcome of one [Scheduler.RunIteration]
// call.
type IterationResult struct {
	Iteration int
	Steps     int
	Err       error
	Trace     *ScheduleTrace
}

// Scheduler is the controlled-concurrency engine: it
// serializes concurrent operations onto one logical execution, consulting
// a Strategy at every scheduling point.
//
// Baton passing. The scheduler never runs its own goroutine. Whichever
// operation's body goroutine is presently executing performs scheduling
// arbitration inline, at its own scheduling points, then either keeps the
// baton (it chose itself to continue) or hands it to another operation's
// resume channel and parks on its own: exactly one privileged goroutine,
// whoever that currently is, rather than a goroutine spawned per explored
// branch.
type Scheduler struct {
	cfg    *Config
	policy SchedulingPolicy

	table *operationTable

	mu          sync.Mutex
	goroutineOf map[uint64]OperationID
	current     OperationID
	steps       int
	trace       *ScheduleTrace
	iteration   int
	bugErr      error
}

// NewScheduler constructs a Scheduler from opts.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	policy := PolicyInterleaving
	if cfg.ConcurrencyFuzzingEnabled {
		policy = PolicyFuzzing
	}
	return &Scheduler{cfg: cfg, policy: policy}, nil
}

// Policy returns the scheduler's active scheduling policy.
func (s *Scheduler) Policy() SchedulingPolicy { return s.policy }

// Config returns the scheduler's resolved configuration, for callers
// outside this package (the exploration driver, in particular) that need
// to read TestingIterations, NoBugTraceRepro, and the like without
// threading the original options list through separately.
func (s *Scheduler) Config() *Config { return s.cfg }

// OperationCounts returns the number of operations in each status at the
// moment of the call, for the exploration driver's report: counts of
// enabled, blocked, and completed operations.
func (s *Scheduler) OperationCounts() map[OperationStatus]int {
	return s.table.CountByStatus()
}

// resetForIteration clears all per-iteration state: fresh operation table,
// fresh trace, every iteration.
func (s *Scheduler) resetForIteration(iteration int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = newOperationTable()
	s.goroutineOf = make(map[uint64]OperationID)
	s.current = 0
	s.steps = 0
	s.iteration = iteration
	s.bugErr = nil
	s.trace = &ScheduleTrace{
		Strategy: s.cfg.Strategy.GetDescription(),
		Steps:    0,
	}
	s.cfg.Strategy.PrepareNextIteration(iteration)
}

// RunIteration runs one full iteration of body under the scheduler's
// control. body is run as the initial, "main"
// operation; it is expected to call [Scheduler.StartOperation] to spawn
// further concurrent operations and to block (via Join/Await/receive)
// until they complete.
func (s *Scheduler) RunIteration(iteration int, body func(s *Scheduler)) *IterationResult {
	s.resetForIteration(iteration)

	main := s.table.Register("main")
	main.status.Store(StatusEnabled)
	s.mu.Lock()
	s.current = main.ID
	gid := getGoroutineID()
	main.goroutineID = gid
	s.goroutineOf[gid] = main.ID
	s.mu.Unlock()

	func() {
		defer func() {
			if r := recover(); r != nil {
				if ce, ok := r.(*canceledError); ok {
					s.mu.Lock()
					if s.bugErr == nil {
						s.bugErr = ce.cause
					}
					s.mu.Unlock()
				} else {
					panic(r)
				}
			}
		}()
		body(s)
		s.CompleteOperation(main)
	}()

	s.mu.Lock()
	steps := s.steps
	trace := s.trace
	err := s.bugErr
	s.mu.Unlock()

	kind := ""
	switch {
	case err == nil:
		trace.Finalize()
		logIterationOK(iteration, steps, trace.Strategy)
	case errors.Is(err, ErrMaxSteps):
		// Non-bug outcome by default: the iteration
		// ran out of scheduling budget, it did not find a bug.
		kind = "maxsteps"
		trace.Finalize()
		logIterationOK(iteration, steps, trace.Strategy)
	default:
		kind = bugKind(err)
		trace.FinalizeBug(kind, err.Error())
		logBug(iteration, steps, trace.Strategy, err)
	}
	s.cfg.Metrics.recordIteration(kind)

	return &IterationResult{Iteration: iteration, Steps: steps, Err: err, Trace: trace}
}

// BugKind classifies err into the short label used in trace "end bug:"
// lines and the bugs-by-kind metric. Exported for callers (the exploration
// driver's [Report]) that need the same classification without
// re-deriving it.
func BugKind(err error) string { return bugKind(err) }

func bugKind(err error) string {
	switch err.(type) {
	case *AssertionError:
		return "assertion"
	case *DeadlockError:
		return "deadlock"
	case *LivenessError:
		return "liveness"
	case *DataRaceError:
		return "datarace"
	case *UncontrolledConcurrencyError:
		return "uncontrolled"
	default:
		return "error"
	}
}

// StartOperation registers and spawns a new concurrent operation running
// fn. The new operation starts Enabled but its body
// goroutine parks immediately on its resume token until the scheduler
// hands it the baton.
func (s *Scheduler) StartOperation(name string, fn func()) *Operation {
	op := s.table.Register(name)
	op.status.Store(StatusEnabled)

	go func() {
		<-op.resume
		s.mu.Lock()
		gid := getGoroutineID()
		op.goroutineID = gid
		s.goroutineOf[gid] = op.ID
		s.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				if ce, ok := r.(*canceledError); ok {
					s.mu.Lock()
					if s.bugErr == nil {
						s.bugErr = ce.cause
					}
					s.mu.Unlock()
					s.CompleteOperation(op)
					return
				}
				panic(r)
			}
		}()

		fn()
		s.CompleteOperation(op)
	}()

	return op
}

// currentOperation resolves the calling goroutine to its Operation via the
// ambient goroutine-id lookup. Returns nil if the
// caller is not a registered operation's body goroutine.
func (s *Scheduler) currentOperation() *Operation {
	gid := getGoroutineID()
	s.mu.Lock()
	id, ok := s.goroutineOf[gid]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.table.Lookup(id)
}

// enabledIDsLocked advances every operation's Blocked*/PausedOnDelay
// bookkeeping (re-checking wake predicates, ticking delay counters) and
// returns the current Enabled set, in deterministic order. Callers must
// not hold s.mu.
func (s *Scheduler) enabledIDsLocked() []OperationID {
	for _, op := range s.table.Enumerate() {
		switch op.Status() {
		case StatusBlockedOnWait, StatusBlockedOnReceive, StatusBlockedOnResource:
			if op.checkWake() {
				op.status.Store(StatusEnabled)
			}
		case StatusPausedOnDelay:
			if !op.delayTick() {
				op.status.Store(StatusEnabled)
			}
		}
	}
	enabled := s.table.EnabledIDs()
	if len(enabled) == 0 {
		// Every runnable operation is paused on a delay, so no other
		// operation is left to emit the scheduling points that would let
		// the delays elapse: they end now.
		for _, op := range s.table.Enumerate() {
			if op.Status() == StatusPausedOnDelay {
				op.setDelay(0)
				op.status.Store(StatusEnabled)
			}
		}
		enabled = s.table.EnabledIDs()
	}
	return enabled
}

// schedulePoint is the shared core of every scheduling-point entry point:
// it records the decision in the trace, consults the strategy, and either
// keeps op running (op's own status is still Enabled and the strategy
// chose it again) or hands the baton to the chosen operation. terminal
// operations (Completed) never park afterward, since their goroutine is
// exiting; every other operation parks on its own resume channel until it
// is rescheduled, which is what makes a status change (to Blocked*/
// PausedOnDelay) made by the caller just before this call actually take
// effect — op cannot run again until some other operation's scheduling
// point re-examines the enabled set and finds it eligible.
func (s *Scheduler) schedulePoint(op *Operation, point SchedulingPointType, terminal bool) {
	if op == nil {
		// Uncontrolled concurrency: this goroutine was never registered.
		s.raiseUncontrolled()
		return
	}
	start := time.Now()
	defer func() { s.cfg.Metrics.recordSchedulingLatency(time.Since(start)) }()

	s.mu.Lock()
	s.steps++
	steps := s.steps
	s.trace.Append(op.ID, point)
	s.trace.Steps = uint64(steps)
	maxSteps := s.cfg.MaxSchedulingSteps
	s.mu.Unlock()

	if maxSteps > 0 && steps > maxSteps {
		panic(newCanceledError(ErrMaxSteps))
	}

	enabled := s.enabledIDsLocked()
	s.cfg.Metrics.recordEnabledQueueDepth(len(enabled))

	if s.cfg.OnSchedulingPoint != nil {
		if err := s.cfg.OnSchedulingPoint(s); err != nil {
			panic(newCanceledError(err))
		}
	}

	if len(enabled) == 0 {
		if blocked := s.table.BlockedIDs(); len(blocked) > 0 {
			panic(newCanceledError(&DeadlockError{Blocked: blocked}))
		}
		// Nothing enabled, nothing blocked: every operation has completed.
		return
	}

	next := s.cfg.Strategy.NextOperation(idsToUint64(enabled), uint64(op.ID))
	nextID := OperationID(next)

	if nextID == op.ID {
		return
	}

	nextOp := s.table.Lookup(nextID)
	if nextOp == nil {
		// Strategy misbehaved; fall back to the smallest enabled id.
		nextID = enabled[0]
		nextOp = s.table.Lookup(nextID)
	}

	s.mu.Lock()
	s.current = nextID
	s.mu.Unlock()

	select {
	case nextOp.resume <- struct{}{}:
	default:
	}

	if terminal {
		return
	}
	<-op.resume
	s.mu.Lock()
	s.current = op.ID
	s.mu.Unlock()
}

func idsToUint64(ids []OperationID) []uint64 {
	out := make([]uint64, len(ids))
	for i, id := range ids {
		out[i] = uint64(id)
	}
	return out
}

func (s *Scheduler) raiseUncontrolled() {
	if s.cfg.PartiallyControlledConcurrencyAllowed {
		return
	}
	panic(newCanceledError(&UncontrolledConcurrencyError{GoroutineID: getGoroutineID()}))
}

// ScheduleNextOperation is the general scheduling point: called by
// controlled primitives (locks, channels, Yield) whenever
// more than one outcome is possible. PointSuppress and PointResume are
// no-ops (see DESIGN.md's Open Question resolution): the call returns at
// once, no suppression scope or nesting count is kept, and scheduling
// points emitted between the two are scheduled as usual.
func (s *Scheduler) ScheduleNextOperation(point SchedulingPointType) {
	if s.policy != PolicyInterleaving || point == PointSuppress || point == PointResume {
		return
	}
	op := s.currentOperation()
	s.schedulePoint(op, point, false)
}

// CurrentOperation returns the [Operation] the calling goroutine is
// attributed to, or nil if the goroutine was never registered via
// [Scheduler.StartOperation]/[Scheduler.RunIteration]. Exported for
// out-of-package controlled primitives (the actor runtime's mailbox wait,
// in particular) that need to suspend the calling operation themselves.
func (s *Scheduler) CurrentOperation() *Operation {
	return s.currentOperation()
}

// Suspend transitions op from Enabled to status, installs wake as its wake
// predicate, and emits a scheduling point of the given kind, blocking the
// calling goroutine until the scheduler resumes it (because wake became
// true, or because some other mechanism drives a later status change).
// This is the same sequence [Mutex.Lock]/[Semaphore.Acquire] perform
// in-package; it is exported so packages outside governor (the actor
// runtime's BlockedOnReceive wait) can build new controlled primitives
// without reaching into unexported scheduler state.
func (s *Scheduler) Suspend(op *Operation, status OperationStatus, wake WakePredicate, point SchedulingPointType) {
	if wake != nil {
		op.SetWake(wake)
	}
	op.status.TryTransition(StatusEnabled, status)
	s.schedulePoint(op, point, false)
}

// DelayOperation parks the calling operation as PausedOnDelay for a
// strategy-chosen delay in [0,max) scheduling steps, then returns control
// to the scheduler. The
// operation is excluded from the enabled set for exactly that many
// scheduling points, counting the one DelayOperation itself emits, before
// becoming eligible again; it becomes eligible earlier when no operation
// is left enabled.
func (s *Scheduler) DelayOperation(max int) int {
	if s.policy != PolicyInterleaving || max <= 0 {
		return 0
	}
	delay := s.cfg.Strategy.NextDelay(max)
	op := s.currentOperation()
	if op == nil {
		s.raiseUncontrolled()
		return delay
	}
	if delay == 0 {
		s.schedulePoint(op, PointWait, false)
		return 0
	}
	op.setDelay(delay)
	op.status.TryTransition(StatusEnabled, StatusPausedOnDelay)
	s.schedulePoint(op, PointWait, false)
	return delay
}

// CompleteOperation marks op Completed and hands the baton to whatever the
// strategy chooses next, without parking op's own goroutine (it is
// exiting).
func (s *Scheduler) CompleteOperation(op *Operation) {
	if op.status.Load() == StatusCompleted {
		return
	}
	op.status.Store(StatusCompleted)
	close(op.done)
	if s.policy == PolicyInterleaving {
		s.schedulePoint(op, PointComplete, true)
	}
}

// RandomBoolean returns the next non-deterministic boolean choice from the
// configured Strategy.
func (s *Scheduler) RandomBoolean() bool {
	v := s.cfg.Strategy.NextBool()
	s.mu.Lock()
	if s.trace != nil {
		s.trace.AppendBool(v)
	}
	s.mu.Unlock()
	return v
}

// RandomInteger returns the next non-deterministic integer choice in
// [0,max) from the configured Strategy.
func (s *Scheduler) RandomInteger(max int) int {
	v := s.cfg.Strategy.NextInt(max)
	s.mu.Lock()
	if s.trace != nil {
		s.trace.AppendInt(v)
	}
	s.mu.Unlock()
	return v
}

// Assert raises an [AssertionError] if cond is false, unwinding the
// calling operation to the iteration boundary.
func (s *Scheduler) Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	s.mu.Lock()
	var trace []TraceEntry
	if s.trace != nil {
		trace = append(trace, s.trace.Entries...)
	}
	s.mu.Unlock()
	panic(newCanceledError(&AssertionError{Message: fmt.Sprintf(format, args...), Trace: trace}))
}

// WaitDeadline blocks for at most d (wall-clock), used by the Fuzzing and
// partially-controlled-concurrency deadlock heuristic:
// in those modes the scheduler cannot enumerate every operation's state,
// so a deadlock is inferred from a timeout instead of from exhaustive
// knowledge.
func (s *Scheduler) WaitDeadline(done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-time.After(s.cfg.DeadlockTimeout):
		return &DeadlockError{Potential: true}
	}
}
