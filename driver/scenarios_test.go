package driver

import (
	"errors"
	"testing"

	"github.com/pipeline-foundation/sct"
	"github.com/pipeline-foundation/sct/actor"
)

// TestScenario_DataRaceOnSharedWrite drives the "two tasks racing to write
// a shared field" scenario: each task awaits a strategy-chosen Delay and
// then writes its own value, and a final assertion expects the second
// writer's value to win. Under a random interleaving some schedules finish
// the other writer last, producing an AssertionError, with the engine
// reporting a reproducible trace for replay.
func TestScenario_DataRaceOnSharedWrite(t *testing.T) {
	var shared int
	foundBug := false

	for seed := uint64(1); seed <= 200 && !foundBug; seed++ {
		e := New(
			func() (*governor.Scheduler, error) {
				return governor.NewScheduler(governor.WithRandomStrategy(seed), governor.WithMaxSchedulingSteps(200))
			},
			func(sch *governor.Scheduler) {
				shared = 0
				a := governor.StartNew(sch, "writer-3", func() (governor.TaskResult, error) {
					governor.Delay(sch, 3)
					shared = 3
					return nil, nil
				})
				b := governor.StartNew(sch, "writer-5", func() (governor.TaskResult, error) {
					governor.Delay(sch, 3)
					shared = 5
					return nil, nil
				})
				a.Await()
				b.Await()
				sch.Assert(shared == 5, "shared = %d, want 5 (writer-5 should finish last)", shared)
			},
		)

		report, err := e.Explore()
		if err != nil {
			t.Fatalf("Explore() error = %v", err)
		}
		if report.BugFound {
			foundBug = true
			if report.BugKind != "assertion" {
				t.Fatalf("BugKind = %q, want %q", report.BugKind, "assertion")
			}
			if report.Trace == nil {
				t.Fatal("expected a reproducible trace for the failing interleaving")
			}
		}
	}

	if !foundBug {
		t.Fatal("expected at least one of 200 seeds to expose the race between the two writers")
	}
}

// TestScenario_DeadlockOnExhaustedSemaphore drives the single-operation
// deadlock scenario: a binary semaphore acquired twice in a row by the
// same (and only) operation. The second Acquire blocks waiting for a
// release that can never come, since no other operation exists to supply
// one, so the enabled set empties out with one operation left blocked.
func TestScenario_DeadlockOnExhaustedSemaphore(t *testing.T) {
	e := New(
		newDFSScheduler,
		func(sch *governor.Scheduler) {
			sem := governor.NewSemaphore(sch, 1, 1)
			sem.Acquire()
			sem.Acquire() // no other operation can ever Release this.
		},
	)

	report, err := e.Explore()
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if !report.BugFound {
		t.Fatal("expected BugFound = true")
	}
	if report.BugKind != "deadlock" {
		t.Fatalf("BugKind = %q, want %q", report.BugKind, "deadlock")
	}
}

// TestScenario_StateInheritanceOverrideSuppressesBaseHandler drives the
// actor state-inheritance scenario at the driver level: a derived state
// defers an event that its base state would otherwise handle by asserting
// false. As long as the override resolves correctly, the actor never runs
// the base's handler while in the derived state, and the iteration
// reports no bug.
func TestScenario_StateInheritanceOverrideSuppressesBaseHandler(t *testing.T) {
	const evTrip actor.EventType = "trip"
	const evLeave actor.EventType = "leave"

	e := New(
		newDFSScheduler,
		func(sch *governor.Scheduler) {
			m := actor.NewMachine("inherit-scenario")
			base := &actor.StateDef{
				Name: "Base",
				Handlers: map[actor.EventType]actor.Transition{
					evTrip: {Kind: actor.Do, Action: func(a *actor.Actor, e actor.Event) {
						sch.Assert(false, "base handler must not run while overridden")
					}},
				},
			}
			derived := &actor.StateDef{
				Name:     "Derived",
				Start:    true,
				Base:     base,
				Deferred: map[actor.EventType]struct{}{evTrip: {}},
				Handlers: map[actor.EventType]actor.Transition{
					evLeave: {Kind: actor.Do, Action: func(a *actor.Actor, e actor.Event) {
						a.RaiseEvent(actor.HaltEvent, nil)
					}},
				},
			}
			if err := m.AddState(base); err != nil {
				sch.Assert(false, "AddState(base) error = %v", err)
				return
			}
			if err := m.AddState(derived); err != nil {
				sch.Assert(false, "AddState(derived) error = %v", err)
				return
			}

			a := actor.NewActor(sch, m, "a1", 0)
			a.Start()
			a.Send(evTrip, nil, governor.NewEventGroup())
			a.Send(evLeave, nil, governor.NewEventGroup())
			a.Join()
		},
	)

	report, err := e.Explore()
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if report.BugFound {
		t.Fatalf("unexpected bug: %s: %s", report.BugKind, report.BugMessage)
	}
}

// TestScenario_WhenAnyExceptionThenAssertionFailure drives a scenario
// where two tasks each fail with a distinct sentinel error and the first
// to complete is surfaced via WhenAny, followed by a deliberate assertion
// failure so the engine reports a bug either way the race resolves.
func TestScenario_WhenAnyExceptionThenAssertionFailure(t *testing.T) {
	errFirst := errors.New("scenario: first task failed")
	errSecond := errors.New("scenario: second task failed")

	e := New(
		newDFSScheduler,
		func(sch *governor.Scheduler) {
			a := governor.StartNew(sch, "a", func() (governor.TaskResult, error) { return nil, errFirst })
			b := governor.StartNew(sch, "b", func() (governor.TaskResult, error) { return nil, errSecond })

			idx, _, err := governor.WhenAny(sch, []*governor.Task{a, b})
			if err != nil {
				sch.Assert(false, "WhenAny() error = %v", err)
				return
			}
			if idx != 0 && idx != 1 {
				sch.Assert(false, "idx = %d, want 0 or 1", idx)
			}
			a.Await()
			b.Await()
			sch.Assert(false, "reached the end of the scenario body")
		},
	)

	report, err := e.Explore()
	if err != nil {
		t.Fatalf("Explore() error = %v", err)
	}
	if !report.BugFound {
		t.Fatal("expected BugFound = true")
	}
	if report.BugKind != "assertion" {
		t.Fatalf("BugKind = %q, want %q", report.BugKind, "assertion")
	}
}

// TestScenario_InterleavingCoverageSet drives two tasks, one printing 1
// then 2 and the other printing 3, and collects the set of distinct
// orderings observed across 100 PCT iterations. Exactly three orderings
// are possible given task "a"'s internal program order is fixed (1 before
// 2): {1,2,3}, {1,3,2}, {3,1,2}.
func TestScenario_InterleavingCoverageSet(t *testing.T) {
	const iterations = 100
	orderings := make(map[string]struct{})

	sched, err := governor.NewScheduler(
		governor.WithPrioritizationStrategy(false, 2, 1000, 7),
		governor.WithTestingIterations(iterations),
	)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	for i := 1; i <= iterations; i++ {
		var trace []int
		result := sched.RunIteration(i, func(s *governor.Scheduler) {
			a := governor.StartThread(s, "a", func() {
				trace = append(trace, 1)
				s.ScheduleNextOperation(governor.PointDefault)
				trace = append(trace, 2)
			})
			b := governor.StartThread(s, "b", func() {
				trace = append(trace, 3)
			})
			s.ScheduleNextOperation(governor.PointCreate)
			a.Join()
			b.Join()
		})
		if result.Err != nil {
			t.Fatalf("iteration %d: RunIteration() Err = %v", i, result.Err)
		}

		key := ""
		for _, v := range trace {
			key += string(rune('0' + v))
		}
		orderings[key] = struct{}{}
	}

	if len(orderings) != 3 {
		t.Fatalf("observed %d distinct orderings (%v), want 3", len(orderings), orderings)
	}
}
