// metrics.go - optional Prometheus instrumentation for the governor
// package: scheduling-decision latency, enabled-queue depth, and bug-kind
// counts, backed by github.com/prometheus/client_golang (see DESIGN.md for
// why a hand-rolled percentile estimator wasn't reused — a Prometheus
// Histogram already gives the same percentile-estimation capability).
package governor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the optional Prometheus collectors a [Scheduler] may be
// configured to report to. A nil *Metrics disables instrumentation
// entirely at effectively zero cost (every recording method is a
// nil-receiver no-op).
type Metrics struct {
	schedulingLatency prometheus.Histogram
	enabledQueueDepth prometheus.Gauge
	bugsFound         *prometheus.CounterVec
	iterations        prometheus.Counter
}

// NewMetrics constructs a [Metrics] and registers its collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		schedulingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "governor",
			Name:      "scheduling_decision_latency_seconds",
			Help:      "Wall-clock latency of a single scheduling-point decision.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		enabledQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "governor",
			Name:      "enabled_operations",
			Help:      "Number of operations enabled at the last scheduling point.",
		}),
		bugsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "governor",
			Name:      "bugs_found_total",
			Help:      "Bugs found during exploration, by kind.",
		}, []string{"kind"}),
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "governor",
			Name:      "iterations_total",
			Help:      "Exploration iterations run.",
		}),
	}
	reg.MustRegister(m.schedulingLatency, m.enabledQueueDepth, m.bugsFound, m.iterations)
	return m
}

func (m *Metrics) recordSchedulingLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.schedulingLatency.Observe(d.Seconds())
}

func (m *Metrics) recordEnabledQueueDepth(n int) {
	if m == nil {
		return
	}
	m.enabledQueueDepth.Set(float64(n))
}

func (m *Metrics) recordIteration(bugKind string) {
	if m == nil {
		return
	}
	m.iterations.Inc()
	if bugKind != "" {
		m.bugsFound.WithLabelValues(bugKind).Inc()
	}
}
