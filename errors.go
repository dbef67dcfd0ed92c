// Package governor error taxonomy: cause-chain-carrying structs
// implementing Unwrap for errors.Is/errors.As compatibility.
package governor

import (
	"errors"
	"fmt"
)

// ErrMaxSteps is returned when an iteration exceeds its configured step
// bound. It is a non-bug outcome by default.
var ErrMaxSteps = errors.New("governor: max scheduling steps reached")

// ErrLoopNotRunning-equivalent sentinels for the scheduler's own lifecycle.
var (
	// ErrIterationAlreadyRunning is returned by RunIteration when the
	// scheduler is already mid-iteration.
	ErrIterationAlreadyRunning = errors.New("governor: iteration already running")
	// ErrNotCurrentOperation is returned when a controlled primitive is
	// invoked from a goroutine the scheduler cannot attribute to any
	// registered operation (see UncontrolledConcurrencyError).
	ErrNotCurrentOperation = errors.New("governor: caller is not a registered operation")
	// ErrEmptyTaskSet is returned by combinators like WhenAny that require
	// at least one task and were given none.
	ErrEmptyTaskSet = errors.New("governor: task set must not be empty")
)

// AssertionError records a safety-property violation: a user or runtime
// assertion that evaluated false. It unwinds the executing operation to
// the iteration boundary.
type AssertionError struct {
	Message string
	Trace   []TraceEntry
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("governor: assertion failed: %s", e.Message)
}

// DeadlockError records that the enabled set became empty while operations
// remained blocked. Potential is set under Fuzzing/partial-control mode,
// where deadlock is inferred from a wall-clock timeout rather than from
// exhaustive knowledge of every operation's state.
type DeadlockError struct {
	Blocked   []OperationID
	Potential bool
}

func (e *DeadlockError) Error() string {
	kind := "deadlock"
	if e.Potential {
		kind = "potential deadlock"
	}
	return fmt.Sprintf("governor: %s detected, %d operation(s) blocked", kind, len(e.Blocked))
}

// LivenessError records a hot-state monitor whose temperature crossed
// LivenessTemperatureThreshold.
type LivenessError struct {
	Monitor     string
	State       string
	Temperature uint32
}

func (e *LivenessError) Error() string {
	return fmt.Sprintf(
		"governor: %s detected potential liveness bug in hot state %q (temperature=%d)",
		e.Monitor, e.State, e.Temperature,
	)
}

// DataRaceError records a concurrent reader/writer or writer/writer
// observation on an instrumented non-concurrent collection's
// ReaderCount/WriterCount invariant.
type DataRaceError struct {
	Collection string
	Readers    int
	Writers    int
}

func (e *DataRaceError) Error() string {
	return fmt.Sprintf(
		"governor: data race on %s (readers=%d writers=%d)",
		e.Collection, e.Readers, e.Writers,
	)
}

// UncontrolledConcurrencyError records that a goroutine the scheduler did
// not register made progress, detected when the running goroutine id does
// not match the executing operation.
type UncontrolledConcurrencyError struct {
	GoroutineID uint64
}

func (e *UncontrolledConcurrencyError) Error() string {
	return fmt.Sprintf("governor: uncontrolled concurrency detected on goroutine %d", e.GoroutineID)
}

// ReplayDivergenceError records that a recorded trace decision no longer
// applies to the current run, typically indicating the binary changed
// without the trace being regenerated.
type ReplayDivergenceError struct {
	Line int
	Want string
	Got  string
}

func (e *ReplayDivergenceError) Error() string {
	return fmt.Sprintf(
		"governor: replay divergence at trace line %d: want %q got %q",
		e.Line, e.Want, e.Got,
	)
}

// ConfigurationError is fatal and raised before any iteration runs (e.g.
// two Start states declared for one state machine, or an unknown event
// type referenced by a handler table).
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("governor: configuration error: %s", e.Reason)
}

// canceledError is the unexported execution-canceled sentinel: a bug or
// step-bound crossing cancels the iteration by unwinding the executing
// operation. This module has no IL rewriter, so there is no user `catch`
// clause to make uncatchable by construction; instead the sentinel travels
// as a panic and is recovered at the iteration boundary (RunIteration and
// each StartOperation goroutine), which store only its cause in
// IterationResult.Err, so the sentinel itself is never returned to user
// code. IsCanceled is the supported way to test an error for it; the
// concrete type is deliberately unexported.
type canceledError struct {
	cause error
}

func (e *canceledError) Error() string {
	return fmt.Sprintf("governor: iteration canceled: %v", e.cause)
}

func (e *canceledError) Unwrap() error { return e.cause }

func newCanceledError(cause error) error {
	return &canceledError{cause: cause}
}

// IsCanceled reports whether err is (or wraps) the execution-canceled
// sentinel that unwinds an iteration.
func IsCanceled(err error) bool {
	var c *canceledError
	return errors.As(err, &c)
}

// WrapError wraps an error with a message, preserving the cause chain for
// errors.Is/errors.As.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
