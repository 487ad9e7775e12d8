package claims

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records extraction outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	Duration  *prometheus.HistogramVec
	Sanitized *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landverify_extraction_duration_seconds",
			Help:    "Time spent extracting claims from documents and video, by stage and outcome",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 90},
		}, []string{"stage", "outcome"}),
		Sanitized: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landverify_extraction_sanitized_total",
			Help: "Answers that only validated after lenient repair",
		}, []string{"stage"}),
	}
}

func (m *Metrics) observe(stage, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(stage, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) incSanitized(stage string) {
	if m == nil {
		return
	}
	m.Sanitized.WithLabelValues(stage).Inc()
}
