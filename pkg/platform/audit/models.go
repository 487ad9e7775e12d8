package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "landverify/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers pipeline outcomes with legal significance:
	// identity mismatches, government-land rejections, physical presence and
	// completed verifications. These are written fail-closed.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine stage activity. Best-effort and sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from pipeline logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Category  EventCategory
	Timestamp time.Time
	SubjectID id.SubjectID
	AttemptID string
	Action    string
	Decision  string
	Reason    string
	RequestID string
}

type AuditEvent string

const (
	EventAttemptStarted         AuditEvent = "attempt_started"
	EventIdentityMatched        AuditEvent = "identity_matched"
	EventIdentityMismatch       AuditEvent = "identity_mismatch"
	EventLandRecordAccepted     AuditEvent = "land_record_accepted"
	EventLandRecordRejected     AuditEvent = "land_record_rejected"
	EventGovernmentLandRejected AuditEvent = "government_land_rejected"
	EventGeofenceResolved       AuditEvent = "geofence_resolved"
	EventGeofenceUnresolved     AuditEvent = "geofence_unresolved"
	EventLocationVerified       AuditEvent = "location_verified"
	EventLocationOutOfRange     AuditEvent = "location_out_of_range"
	EventSiteVideoAnalyzed      AuditEvent = "site_video_analyzed"
	EventVerificationCompleted  AuditEvent = "verification_completed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityMismatch:       CategoryCompliance,
	EventLandRecordRejected:     CategoryCompliance,
	EventGovernmentLandRejected: CategoryCompliance,
	EventLocationVerified:       CategoryCompliance,
	EventVerificationCompleted:  CategoryCompliance,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Postgres implementations write to the outbox
// and join the transaction carried in ctx.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is one event awaiting publication to the audit topic.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// Payload is the JSON body written to the outbox and published to Kafka.
type Payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	SubjectID string `json:"subject_id,omitempty"`
	AttemptID string `json:"attempt_id,omitempty"`
	Action    string `json:"action"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewPayload fills in the event id and derives the category from the action.
func NewPayload(event Event) Payload {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	p := Payload{
		ID:        event.ID.String(),
		Category:  string(AuditEvent(event.Action).Category()),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		AttemptID: event.AttemptID,
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	if !event.SubjectID.IsNil() {
		p.SubjectID = event.SubjectID.String()
	}
	return p
}
