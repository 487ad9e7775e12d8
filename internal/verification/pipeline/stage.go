// Package pipeline holds the ordering rules of a verification attempt.
//
// An attempt moves through the stages strictly in order. Transition is a pure
// function so the gates can be tested without any stage running:
//
//	IDENTITY -> LAND_RECORD -> GEOFENCE -> SITE_VIDEO -> ASSEMBLY -> COMPLETED
//	     \            \
//	      +-> HALTED   +-> HALTED
package pipeline

import (
	"fmt"

	"landverify/pkg/platform/sentinel"
)

// Stage is the next step an attempt is waiting for.
type Stage string

const (
	StageIdentity   Stage = "IDENTITY"
	StageLandRecord Stage = "LAND_RECORD"
	StageGeofence   Stage = "GEOFENCE"
	StageSiteVideo  Stage = "SITE_VIDEO"
	StageAssembly   Stage = "ASSEMBLY"
	StageCompleted  Stage = "COMPLETED"
	StageHalted     Stage = "HALTED"
)

// Terminal reports whether no further event is accepted.
func (s Stage) Terminal() bool { return s == StageCompleted || s == StageHalted }

// Event is a stage outcome.
type Event string

const (
	EventIdentityMatched    Event = "identity_matched"
	EventIdentityMismatched Event = "identity_mismatched"
	EventRecordAccepted     Event = "record_accepted"
	EventRecordRejected     Event = "record_rejected"
	EventLocationVerified   Event = "location_verified"
	EventLocationLost       Event = "location_lost"
	EventVideoAnalyzed      Event = "video_analyzed"
	EventRecordSaved        Event = "record_saved"
)

// A land record may be re-read until the site video is analyzed; doing so
// sends the attempt back to the geofence. A site video may be re-analyzed
// until the record is saved.
var transitions = map[Stage]map[Event]Stage{
	StageIdentity: {
		EventIdentityMatched:    StageLandRecord,
		EventIdentityMismatched: StageHalted,
	},
	StageLandRecord: {
		EventRecordAccepted: StageGeofence,
		EventRecordRejected: StageHalted,
	},
	StageGeofence: {
		EventRecordAccepted:   StageGeofence,
		EventRecordRejected:   StageHalted,
		EventLocationVerified: StageSiteVideo,
	},
	StageSiteVideo: {
		EventRecordAccepted:   StageGeofence,
		EventRecordRejected:   StageHalted,
		EventLocationVerified: StageSiteVideo,
		EventLocationLost:     StageGeofence,
		EventVideoAnalyzed:    StageAssembly,
	},
	StageAssembly: {
		EventVideoAnalyzed: StageAssembly,
		EventRecordSaved:   StageCompleted,
	},
}

// Transition returns the stage that follows ev. Pairs not in the table,
// including every event on a terminal stage, are ErrInvalidState.
func Transition(from Stage, ev Event) (Stage, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s not allowed at %s", sentinel.ErrInvalidState, ev, from)
}

// Allows reports whether ev is accepted at s.
func (s Stage) Allows(ev Event) bool {
	_, ok := transitions[s][ev]
	return ok
}
