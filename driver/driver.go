// Package driver implements the exploration driver: the iteration loop
// that repeatedly spins up a fresh controlled runtime, runs a user test
// entry under it, and stops on the first bug found (unless configured to
// keep going).
package driver

import (
	"errors"
	"fmt"

	"github.com/pipeline-foundation/sct"
	"github.com/pipeline-foundation/sct/strategy"
)

// TestFunc is one controlled test body, run fresh every iteration inside
// [governor.Scheduler.RunIteration].
type TestFunc func(s *governor.Scheduler)

// Engine drives the exploration loop.
type Engine struct {
	newScheduler func() (*governor.Scheduler, error)
	test         TestFunc

	continueAfterBug bool
	metrics          *PrometheusCollector
}

// New builds an Engine. newScheduler must return a freshly configured
// Scheduler on every call — a fresh operation table and, by extension,
// fresh monitors if the caller's test closure registers them anew each
// time — so one iteration's state never leaks into the next.
func New(newScheduler func() (*governor.Scheduler, error), test TestFunc) *Engine {
	return &Engine{newScheduler: newScheduler, test: test}
}

// ContinueAfterBug configures the engine to keep exploring after finding a
// bug instead of stopping immediately. Returns e for chaining.
func (e *Engine) ContinueAfterBug(v bool) *Engine {
	e.continueAfterBug = v
	return e
}

// WithPrometheus attaches a [PrometheusCollector] the engine updates after
// every iteration. Returns e for chaining.
func (e *Engine) WithPrometheus(c *PrometheusCollector) *Engine {
	e.metrics = c
	return e
}

// Explore runs iterations until TestingIterations (read from the first
// built scheduler's resolved [governor.Config]) have run, or until a bug
// is found and ContinueAfterBug was not set. The strategy's
// PrepareNextIteration result is not consulted: a strategy that reports
// itself exhausted does not end the loop early. When the scheduler's
// strategy is a [strategy.RL], Explore reports each iteration's outcome to
// it through ObserveOutcome.
func (e *Engine) Explore() (*Report, error) {
	report := &Report{}

	for i := 1; ; i++ {
		sched, err := e.newScheduler()
		if err != nil {
			return report, fmt.Errorf("driver: building scheduler for iteration %d: %w", i, err)
		}
		if i == 1 {
			report.MaxIterations = sched.Config().TestingIterations
		}
		if report.MaxIterations > 0 && i > report.MaxIterations {
			break
		}

		result := sched.RunIteration(i, e.test)
		report.IterationsRun = i
		if rl, ok := sched.Config().Strategy.(*strategy.RL); ok {
			rl.ObserveOutcome(result.Err != nil && !errors.Is(result.Err, governor.ErrMaxSteps))
		}

		counts := sched.OperationCounts()
		report.FinalOperationCounts = OperationCounts{
			Enabled: counts[governor.StatusEnabled],
			Blocked: counts[governor.StatusBlockedOnWait] +
				counts[governor.StatusBlockedOnReceive] +
				counts[governor.StatusBlockedOnResource],
			Completed: counts[governor.StatusCompleted],
		}

		if e.metrics != nil {
			e.metrics.observeIteration(report.FinalOperationCounts)
		}

		if result.Err == nil || errors.Is(result.Err, governor.ErrMaxSteps) {
			if e.metrics != nil && result.Err != nil {
				e.metrics.observeBug("maxsteps")
			}
			continue
		}

		// A genuine bug: record it and, unless told to keep exploring,
		// stop with this iteration's trace as the reproducible trace.
		kind := governor.BugKind(result.Err)
		report.BugFound = true
		report.BugKind = kind
		report.BugMessage = result.Err.Error()
		if !sched.Config().NoBugTraceRepro {
			report.Trace = result.Trace
		}
		if e.metrics != nil {
			e.metrics.observeBug(kind)
		}
		if !e.continueAfterBug {
			return report, nil
		}
	}

	return report, nil
}
