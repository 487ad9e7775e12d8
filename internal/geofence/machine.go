// Package geofence confirms a seller is physically at the parcel named by the
// land record before the site video stage opens.
package geofence

import (
	"fmt"
	"time"

	"landverify/internal/verification/models"
	"landverify/pkg/platform/sentinel"
)

// State is the position of a geofence session.
type State string

const (
	StateIdle             State = "IDLE"
	StateResolving        State = "RESOLVING"
	StateReady            State = "READY"
	StateResolutionFailed State = "RESOLUTION_FAILED"
	StateChecking         State = "CHECKING"
	StateVerified         State = "VERIFIED"
	StateOutOfRange       State = "OUT_OF_RANGE"
)

type event string

const (
	evResolve       event = "resolve"
	evResolved      event = "resolved"
	evResolveFailed event = "resolve_failed"
	evCheck         event = "check"
	evInRange       event = "in_range"
	evOutOfRange    event = "out_of_range"
)

var transitions = map[State]map[event]State{
	StateIdle:             {evResolve: StateResolving},
	StateResolving:        {evResolved: StateReady, evResolveFailed: StateResolutionFailed},
	StateResolutionFailed: {evResolve: StateResolving},
	StateReady:            {evResolve: StateResolving, evCheck: StateChecking},
	StateChecking:         {evInRange: StateVerified, evOutOfRange: StateOutOfRange},
	StateVerified:         {evResolve: StateResolving, evCheck: StateChecking},
	StateOutOfRange:       {evResolve: StateResolving, evCheck: StateChecking},
}

func next(from State, ev event) (State, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: geofence cannot %s while %s", sentinel.ErrInvalidState, ev, from)
}

// Result is the outcome of one location check.
type Result struct {
	Verified   bool      `json:"verified"`
	Inside     bool      `json:"inside_boundary"`
	DistanceKm float64   `json:"distance_km"`
	Observed   Point     `json:"observed"`
	Message    string    `json:"message"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Session is the per-attempt geofence state. It is stored with the attempt
// and only gates entry into the site video stage.
type Session struct {
	State     State            `json:"state"`
	Target    models.GeoTarget `json:"target"`
	Override  string           `json:"village_override,omitempty"`
	Place     *Place           `json:"place,omitempty"`
	Queries   []string         `json:"queries,omitempty"`
	LastCheck *Result          `json:"last_check,omitempty"`
	Checks    int              `json:"checks"`
}

// NewSession starts an idle session for target.
func NewSession(target models.GeoTarget) Session {
	return Session{State: StateIdle, Target: target}
}

func (s *Session) apply(ev event) error {
	to, err := next(s.State, ev)
	if err != nil {
		return err
	}
	s.State = to
	return nil
}

// Verified reports whether the last check passed.
func (s Session) Verified() bool { return s.State == StateVerified }

// NeedsOverride reports whether automatic resolution failed.
func (s Session) NeedsOverride() bool { return s.State == StateResolutionFailed }
