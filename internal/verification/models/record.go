package models

import (
	"time"

	id "landverify/pkg/domain"
)

// RecordCompleted is the only status a persisted record carries.
const RecordCompleted = "COMPLETED"

// Subject is the seller being verified.
type Subject struct {
	ID          id.SubjectID `json:"id"`
	DisplayName string       `json:"display_name"`
	IsVerified  bool         `json:"is_verified"`
	VerifiedAt  *time.Time   `json:"verified_at,omitempty"`
}

// LocationCheck is the accepted geofence check stored with the record.
type LocationCheck struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distance_km"`
	Inside     bool    `json:"inside_boundary"`
	Place      string  `json:"place"`
}

// VerificationRecord is the persisted union of the three stage claims.
type VerificationRecord struct {
	ID        id.VerificationID `json:"id"`
	AttemptID id.AttemptID      `json:"attempt_id"`
	SubjectID id.SubjectID      `json:"subject_id"`
	Status    string            `json:"status"`
	Stage1    Stage1Claim       `json:"stage1"`
	Stage2    Stage2Claim       `json:"stage2"`
	Stage3    Stage3Claim       `json:"stage3"`
	Location  *LocationCheck    `json:"location,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
