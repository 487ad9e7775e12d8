package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncStageOutcome("identity", "matched")
		m.IncGeofenceCheck("verified")
		m.IncGeofenceResolution("ready")
		m.ObserveVideoPolls("active", 3)
		m.ObserveAssemble(time.Millisecond, true)
	})
}

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncStageOutcome("identity", "mismatch")
	m.IncStageOutcome("identity", "mismatch")
	m.IncGeofenceCheck("out_of_range")
	m.ObserveAssemble(10*time.Millisecond, true)
	m.ObserveAssemble(time.Millisecond, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageOutcome.WithLabelValues("identity", "mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeofenceChecks.WithLabelValues("out_of_range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsCreated))
}
