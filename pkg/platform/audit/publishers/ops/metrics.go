package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for ops audit tracking.
type Metrics struct {
	Tracked               prometheus.Counter
	Sampled               prometheus.Counter
	Overflowed            prometheus.Counter
	CircuitBreakerDropped prometheus.Counter
	PersistFailures       prometheus.Counter
	CircuitBreakerState   prometheus.Gauge
}

// NewMetrics registers the ops audit metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Tracked: f.NewCounter(prometheus.CounterOpts{
			Name: "landverify_audit_ops_tracked_total",
			Help: "Total number of operational audit events persisted",
		}),
		Sampled: f.NewCounter(prometheus.CounterOpts{
			Name: "landverify_audit_ops_sampled_total",
			Help: "Total number of operational audit events dropped due to sampling",
		}),
		Overflowed: f.NewCounter(prometheus.CounterOpts{
			Name: "landverify_audit_ops_overflow_total",
			Help: "Total number of operational audit events dropped because the buffer was full",
		}),
		CircuitBreakerDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "landverify_audit_ops_circuit_breaker_dropped_total",
			Help: "Total number of operational audit events dropped due to circuit breaker",
		}),
		PersistFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "landverify_audit_ops_persist_failures_total",
			Help: "Total number of operational audit event persistence failures",
		}),
		CircuitBreakerState: f.NewGauge(prometheus.GaugeOpts{
			Name: "landverify_audit_ops_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed/healthy, 1=open/unhealthy)",
		}),
	}
}

func (m *Metrics) incTracked() {
	if m != nil {
		m.Tracked.Inc()
	}
}

func (m *Metrics) incSampled() {
	if m != nil {
		m.Sampled.Inc()
	}
}

func (m *Metrics) incOverflowed() {
	if m != nil {
		m.Overflowed.Inc()
	}
}

func (m *Metrics) incCircuitBreakerDropped() {
	if m != nil {
		m.CircuitBreakerDropped.Inc()
	}
}

func (m *Metrics) incPersistFailures() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

func (m *Metrics) setCircuitBreakerState(open bool) {
	if m == nil {
		return
	}
	if open {
		m.CircuitBreakerState.Set(1)
	} else {
		m.CircuitBreakerState.Set(0)
	}
}
