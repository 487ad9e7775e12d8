package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landverify/internal/geofence"
	"landverify/internal/verification/models"
	id "landverify/pkg/domain"
	"landverify/pkg/platform/sentinel"
)

var allEvents = []Event{
	EventIdentityMatched, EventIdentityMismatched, EventRecordAccepted, EventRecordRejected,
	EventLocationVerified, EventLocationLost, EventVideoAnalyzed, EventRecordSaved,
}

func TestTransition_HappyPath(t *testing.T) {
	path := []struct {
		ev   Event
		want Stage
	}{
		{EventIdentityMatched, StageLandRecord},
		{EventRecordAccepted, StageGeofence},
		{EventLocationVerified, StageSiteVideo},
		{EventVideoAnalyzed, StageAssembly},
		{EventRecordSaved, StageCompleted},
	}
	stage := StageIdentity
	for _, step := range path {
		next, err := Transition(stage, step.ev)
		require.NoError(t, err, "%s at %s", step.ev, stage)
		assert.Equal(t, step.want, next)
		stage = next
	}
}

func TestTransition_Gates(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		ev   Event
		want Stage
		ok   bool
	}{
		{"mismatch halts", StageIdentity, EventIdentityMismatched, StageHalted, true},
		{"record cannot be read before identity", StageIdentity, EventRecordAccepted, StageIdentity, false},
		{"rejected record halts", StageLandRecord, EventRecordRejected, StageHalted, true},
		{"no location check before land record", StageLandRecord, EventLocationVerified, StageLandRecord, false},
		{"no video before location", StageGeofence, EventVideoAnalyzed, StageGeofence, false},
		{"land record re-run at geofence", StageGeofence, EventRecordAccepted, StageGeofence, true},
		{"land record re-run after location resets geofence", StageSiteVideo, EventRecordAccepted, StageGeofence, true},
		{"failed recheck closes the gate", StageSiteVideo, EventLocationLost, StageGeofence, true},
		{"video re-run at assembly", StageAssembly, EventVideoAnalyzed, StageAssembly, true},
		{"no land record re-run after video", StageAssembly, EventRecordAccepted, StageAssembly, false},
		{"no save before video", StageSiteVideo, EventRecordSaved, StageSiteVideo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.from, tt.ev)
			assert.Equal(t, tt.want, got)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, sentinel.ErrInvalidState)
			}
			assert.Equal(t, tt.ok, tt.from.Allows(tt.ev))
		})
	}
}

func TestTransition_TerminalStagesAcceptNothing(t *testing.T) {
	for _, s := range []Stage{StageHalted, StageCompleted} {
		assert.True(t, s.Terminal())
		for _, ev := range allEvents {
			_, err := Transition(s, ev)
			assert.ErrorIs(t, err, sentinel.ErrInvalidState, "%s at %s", ev, s)
		}
	}
}

func TestAttempt(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	owner := id.SubjectID(uuid.New())

	a := NewAttempt(owner, now)
	assert.Equal(t, StageIdentity, a.Stage)
	assert.False(t, a.ID.IsNil())
	assert.True(t, a.OwnedBy(owner))
	assert.False(t, a.OwnedBy(id.SubjectID(uuid.New())))
	assert.False(t, a.OwnedBy(id.SubjectID{}))

	err := a.Apply(EventVideoAnalyzed, now.Add(time.Minute))
	require.ErrorIs(t, err, sentinel.ErrInvalidState)
	assert.Equal(t, StageIdentity, a.Stage)
	assert.Equal(t, now, a.UpdatedAt)

	require.NoError(t, a.Halt(EventIdentityMismatched, "name differs", now.Add(time.Minute)))
	assert.Equal(t, StageHalted, a.Stage)
	assert.Equal(t, "name differs", a.HaltReason)
	assert.Equal(t, now.Add(time.Minute), a.UpdatedAt)
}

func TestAttempt_ReadyToAssemble(t *testing.T) {
	a := NewAttempt(id.SubjectID(uuid.New()), time.Now())
	a.Stage = StageAssembly
	assert.False(t, a.ReadyToAssemble())

	a.Stage1 = &models.Stage1Claim{}
	a.Stage2 = &models.Stage2Claim{}
	assert.False(t, a.ReadyToAssemble())

	a.Stage3 = &models.Stage3Claim{}
	assert.True(t, a.ReadyToAssemble())

	a.Stage = StageSiteVideo
	assert.False(t, a.ReadyToAssemble())
}

func TestAttempt_LocationCheck(t *testing.T) {
	a := NewAttempt(id.SubjectID(uuid.New()), time.Now())
	assert.Nil(t, a.LocationCheck())

	sess := geofence.NewSession(models.GeoTarget{RevenueVillageName: "Mambakkam"})
	sess.Place = &geofence.Place{DisplayName: "Mambakkam, Tamil Nadu"}
	sess.LastCheck = &geofence.Result{Verified: false, DistanceKm: 5}
	a.Geofence = &sess
	assert.Nil(t, a.LocationCheck())

	sess.LastCheck = &geofence.Result{Verified: true, DistanceKm: 0.04, Observed: geofence.Point{Lat: 13.083, Lng: 80.271}}
	lc := a.LocationCheck()
	require.NotNil(t, lc)
	assert.Equal(t, 13.083, lc.Latitude)
	assert.Equal(t, "Mambakkam, Tamil Nadu", lc.Place)
}
