package driver

import (
	"testing"

	"github.com/pipeline-foundation/sct"
	"github.com/prometheus/client_golang/prometheus"
)

func newDFSScheduler() (*governor.Scheduler, error) {
	return governor.NewScheduler(governor.WithDFSStrategy(), governor.WithMaxSchedulingSteps(1000))
}

// TestEngine_StopsOnFirstBug exercises the default "stop at the first
// bug" contract, grounded on the assertion-failure shape of
// TestScheduler_AssertFailureSurfacesAsBug in the root package.
func TestEngine_StopsOnFirstBug(t *testing.T) {
	e := New(
		func() (*governor.Scheduler, error) {
			return governor.NewScheduler(governor.WithRandomStrategy(1), governor.WithTestingIterations(50))
		},
		func(sch *governor.Scheduler) {
			sch.Assert(false, "invariant never holds")
		},
	)

	report, err := e.Explore()
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if !report.BugFound {
		t.Fatal("expected BugFound = true")
	}
	if report.BugKind == "" {
		t.Fatal("expected a non-empty BugKind")
	}
	if report.IterationsRun != 1 {
		t.Fatalf("IterationsRun = %d, want 1 (engine should stop at the first bug)", report.IterationsRun)
	}
	if report.Trace == nil {
		t.Fatal("expected a reproducible trace attached to the bug report")
	}
}

// TestEngine_ContinueAfterBugRunsAllIterations checks the opt-in override
// that keeps exploration running past the first bug.
func TestEngine_ContinueAfterBugRunsAllIterations(t *testing.T) {
	const iterations = 5
	e := New(
		func() (*governor.Scheduler, error) {
			return governor.NewScheduler(governor.WithRandomStrategy(1), governor.WithTestingIterations(iterations))
		},
		func(sch *governor.Scheduler) {
			sch.Assert(false, "always broken")
		},
	).ContinueAfterBug(true)

	report, err := e.Explore()
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if report.IterationsRun != iterations {
		t.Fatalf("IterationsRun = %d, want %d", report.IterationsRun, iterations)
	}
	if !report.BugFound {
		t.Fatal("expected BugFound = true")
	}
}

// TestEngine_MaxStepsIsNotABug checks that running out of scheduling
// budget is a non-bug outcome by default at the driver layer, not just
// the scheduler.
func TestEngine_MaxStepsIsNotABug(t *testing.T) {
	const iterations = 3
	e := New(
		func() (*governor.Scheduler, error) {
			return governor.NewScheduler(
				governor.WithRandomStrategy(1),
				governor.WithTestingIterations(iterations),
				governor.WithMaxSchedulingSteps(3),
			)
		},
		func(sch *governor.Scheduler) {
			for i := 0; i < 10; i++ {
				sch.ScheduleNextOperation(governor.PointDefault)
			}
		},
	)

	report, err := e.Explore()
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if report.BugFound {
		t.Fatalf("expected BugFound = false for a max-steps outcome, got kind %q", report.BugKind)
	}
	if report.IterationsRun != iterations {
		t.Fatalf("IterationsRun = %d, want %d (max-steps must not stop exploration)", report.IterationsRun, iterations)
	}
}

// TestEngine_RunsAllIterationsOnSuccess checks the clean-run iteration
// count and final operation counts land sane.
func TestEngine_RunsAllIterationsOnSuccess(t *testing.T) {
	const iterations = 4
	e := New(
		func() (*governor.Scheduler, error) {
			return governor.NewScheduler(governor.WithDFSStrategy(), governor.WithTestingIterations(iterations))
		},
		func(sch *governor.Scheduler) {
			b := governor.StartThread(sch, "b", func() {})
			sch.ScheduleNextOperation(governor.PointCreate)
			b.Join()
		},
	)

	report, err := e.Explore()
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if report.BugFound {
		t.Fatalf("unexpected bug: %s: %s", report.BugKind, report.BugMessage)
	}
	if report.IterationsRun != iterations {
		t.Fatalf("IterationsRun = %d, want %d", report.IterationsRun, iterations)
	}
	if report.FinalOperationCounts.Completed != 2 {
		t.Fatalf("FinalOperationCounts.Completed = %d, want 2", report.FinalOperationCounts.Completed)
	}
}

// TestEngine_WithPrometheusObservesIterationsAndBugs wires a real collector
// against a private registry and checks it picks up both a clean run and a
// subsequent bug-producing run, exercising metrics_prometheus.go end to end.
func TestEngine_WithPrometheusObservesIterationsAndBugs(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewPrometheusCollector(reg)

	clean := New(newDFSScheduler, func(sch *governor.Scheduler) {
		sch.ScheduleNextOperation(governor.PointDefault)
	}).WithPrometheus(collector)

	if _, err := clean.Explore(); err != nil {
		t.Fatalf("Explore() error = %v", err)
	}

	buggy := New(
		func() (*governor.Scheduler, error) {
			return governor.NewScheduler(governor.WithRandomStrategy(1))
		},
		func(sch *governor.Scheduler) {
			sch.Assert(false, "boom")
		},
	).WithPrometheus(collector)

	report, err := buggy.Explore()
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if !report.BugFound {
		t.Fatal("expected the second engine to find a bug")
	}

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(metrics) == 0 {
		t.Fatal("expected the collector to have registered metric families")
	}
}
