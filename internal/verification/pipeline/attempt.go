package pipeline

import (
	"time"

	"landverify/internal/geofence"
	"landverify/internal/verification/models"
	id "landverify/pkg/domain"
)

// Attempt is one pipeline run for one subject. It is held in the session
// store between requests and carries every claim produced so far, so the
// save step can be retried on its own.
type Attempt struct {
	ID             id.AttemptID        `json:"id"`
	SubjectID      id.SubjectID        `json:"subject_id"`
	Stage          Stage               `json:"stage"`
	Stage1         *models.Stage1Claim `json:"stage1,omitempty"`
	Stage2         *models.Stage2Claim `json:"stage2,omitempty"`
	Stage3         *models.Stage3Claim `json:"stage3,omitempty"`
	Geofence       *geofence.Session   `json:"geofence,omitempty"`
	VerificationID *id.VerificationID  `json:"verification_id,omitempty"`
	HaltReason     string              `json:"halt_reason,omitempty"`
	// Version increases on every stored change; writers compare it to detect
	// a concurrent update.
	Version        int64               `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// NewAttempt starts an attempt at the identity stage.
func NewAttempt(subjectID id.SubjectID, now time.Time) *Attempt {
	return &Attempt{
		ID:        id.NewAttemptID(),
		SubjectID: subjectID,
		Stage:     StageIdentity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply moves the attempt along ev. The attempt is unchanged on error.
func (a *Attempt) Apply(ev Event, now time.Time) error {
	to, err := Transition(a.Stage, ev)
	if err != nil {
		return err
	}
	a.Stage = to
	a.UpdatedAt = now
	return nil
}

// Halt applies a halting event and records why.
func (a *Attempt) Halt(ev Event, reason string, now time.Time) error {
	if err := a.Apply(ev, now); err != nil {
		return err
	}
	a.HaltReason = reason
	return nil
}

// OwnedBy reports whether subjectID started the attempt.
func (a *Attempt) OwnedBy(subjectID id.SubjectID) bool {
	return !subjectID.IsNil() && a.SubjectID == subjectID
}

// ReadyToAssemble reports whether a record may be written: the attempt is at
// assembly and all three claims are present.
func (a *Attempt) ReadyToAssemble() bool {
	return a.Stage == StageAssembly && a.Stage1 != nil && a.Stage2 != nil && a.Stage3 != nil
}

// LocationCheck summarizes the passing geofence check for the record.
func (a *Attempt) LocationCheck() *models.LocationCheck {
	g := a.Geofence
	if g == nil || g.LastCheck == nil || !g.LastCheck.Verified {
		return nil
	}
	lc := &models.LocationCheck{
		Latitude:   g.LastCheck.Observed.Lat,
		Longitude:  g.LastCheck.Observed.Lng,
		DistanceKm: g.LastCheck.DistanceKm,
		Inside:     g.LastCheck.Inside,
	}
	if g.Place != nil {
		lc.Place = g.Place.DisplayName
	}
	return lc
}
