package driver

import "github.com/prometheus/client_golang/prometheus"

// PrometheusCollector exposes the exploration driver's own metrics,
// distinct from (and complementary to) [governor.Metrics]'s
// scheduler-internal ones: iterations run, bugs found by kind, and the
// enabled/blocked/completed operation counts of the most recently
// completed iteration. Grounded on `itskum47-FluxForge`'s
// `github.com/prometheus/client_golang` dependency.
type PrometheusCollector struct {
	iterations prometheus.Counter
	bugsByKind *prometheus.CounterVec
	enabled    prometheus.Gauge
	blocked    prometheus.Gauge
	completed  prometheus.Gauge
}

// NewPrometheusCollector registers the driver's collectors against reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		iterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "governor_driver_iterations_total",
			Help: "Total exploration iterations run by the driver.",
		}),
		bugsByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "governor_driver_bugs_found_total",
			Help: "Bugs found by the driver, partitioned by kind.",
		}, []string{"kind"}),
		enabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "governor_driver_operations_enabled",
			Help: "Enabled operation count at the end of the most recent iteration.",
		}),
		blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "governor_driver_operations_blocked",
			Help: "Blocked operation count at the end of the most recent iteration.",
		}),
		completed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "governor_driver_operations_completed",
			Help: "Completed operation count at the end of the most recent iteration.",
		}),
	}
	reg.MustRegister(c.iterations, c.bugsByKind, c.enabled, c.blocked, c.completed)
	return c
}

func (c *PrometheusCollector) observeIteration(counts OperationCounts) {
	if c == nil {
		return
	}
	c.iterations.Inc()
	c.enabled.Set(float64(counts.Enabled))
	c.blocked.Set(float64(counts.Blocked))
	c.completed.Set(float64(counts.Completed))
}

func (c *PrometheusCollector) observeBug(kind string) {
	if c == nil {
		return
	}
	c.bugsByKind.WithLabelValues(kind).Inc()
}
