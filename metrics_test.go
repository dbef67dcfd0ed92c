package governor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}

func TestMetrics_NilReceiverIsNoOp(t *testing.T) {
	var m *Metrics
	m.recordSchedulingLatency(time.Millisecond)
	m.recordEnabledQueueDepth(3)
	m.recordIteration("assertion")
}

func TestScheduler_WithMetricsRecordsIterations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s, err := NewScheduler(WithRandomStrategy(1), WithMetrics(m))
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.RunIteration(1, func(sch *Scheduler) {})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "governor_iterations_total" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected governor_iterations_total metric family after an iteration")
	}
}
