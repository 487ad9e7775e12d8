package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline. A nil
// *Metrics is a no-op.
type Metrics struct {
	// Stage outcomes by stage and result (matched, mismatch, approved, rejected...)
	StageOutcome *prometheus.CounterVec

	// Geofence checks by outcome (verified, out_of_range)
	GeofenceChecks *prometheus.CounterVec

	// Geocoder resolutions by outcome (ready, failed, unavailable)
	GeofenceResolutions *prometheus.CounterVec

	// Status polls spent waiting for an uploaded video, by final outcome
	VideoPolls *prometheus.HistogramVec

	// Time to persist a finished attempt
	AssembleLatency prometheus.Histogram

	// Records created
	RecordsCreated prometheus.Counter
}

// New registers the pipeline metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StageOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landverify_stage_outcomes_total",
			Help: "Pipeline stage results by stage and outcome",
		}, []string{"stage", "outcome"}),

		GeofenceChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landverify_geofence_checks_total",
			Help: "Device location checks against the resolved village",
		}, []string{"outcome"}),

		GeofenceResolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "landverify_geofence_resolutions_total",
			Help: "Village resolution attempts by outcome",
		}, []string{"outcome"}),

		VideoPolls: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "landverify_video_polls",
			Help:    "Status polls until an uploaded video became usable",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 30},
		}, []string{"outcome"}),

		AssembleLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "landverify_assemble_duration_seconds",
			Help:    "Duration of the save step including retries",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		RecordsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "landverify_records_created_total",
			Help: "Verification records persisted",
		}),
	}
}

func (m *Metrics) IncStageOutcome(stage, outcome string) {
	if m != nil {
		m.StageOutcome.WithLabelValues(stage, outcome).Inc()
	}
}

func (m *Metrics) IncGeofenceCheck(outcome string) {
	if m != nil {
		m.GeofenceChecks.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncGeofenceResolution(outcome string) {
	if m != nil {
		m.GeofenceResolutions.WithLabelValues(outcome).Inc()
	}
}

// ObserveVideoPolls satisfies the site video analyzer's poll observer.
func (m *Metrics) ObserveVideoPolls(outcome string, polls int) {
	if m != nil {
		m.VideoPolls.WithLabelValues(outcome).Observe(float64(polls))
	}
}

func (m *Metrics) ObserveAssemble(d time.Duration, created bool) {
	if m == nil {
		return
	}
	m.AssembleLatency.Observe(d.Seconds())
	if created {
		m.RecordsCreated.Inc()
	}
}
