package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	id "landverify/pkg/domain"
	audit "landverify/pkg/platform/audit"
	"landverify/pkg/platform/tx"
)

// InMemoryStore keeps audit events in process and doubles as an outbox so the
// relay can run without Postgres.
type InMemoryStore struct {
	mu        sync.RWMutex
	events    []audit.Event
	entries   []audit.OutboxEntry
	published map[uuid.UUID]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{published: make(map[uuid.UUID]bool)}
}

// Append records event and queues it on the outbox. Inside a unit of work
// started by a memory RunInTx the append is undone if the unit fails.
func (s *InMemoryStore) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload, err := json.Marshal(audit.NewPayload(event))
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	event.Category = audit.AuditEvent(event.Action).Category()
	s.events = append(s.events, event)
	s.entries = append(s.entries, audit.OutboxEntry{
		ID:          event.ID,
		AggregateID: aggregateID(event),
		EventType:   event.Action,
		Payload:     payload,
		CreatedAt:   event.Timestamp,
	})
	tx.OnRollback(ctx, func() { s.remove(event.ID) })
	return nil
}

// remove drops an event appended inside a unit of work that failed.
func (s *InMemoryStore) remove(eventID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = slices.DeleteFunc(s.events, func(e audit.Event) bool { return e.ID == eventID })
	s.entries = slices.DeleteFunc(s.entries, func(e audit.OutboxEntry) bool { return e.ID == eventID })
}

// ListBySubject returns a subject's events in append order.
func (s *InMemoryStore) ListBySubject(_ context.Context, subjectID id.SubjectID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event(nil), s.events...), nil
}

func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.OutboxEntry
	for _, e := range s.entries {
		if len(out) >= limit {
			break
		}
		if !s.published[e.ID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eid := range ids {
		s.published[eid] = true
	}
	return nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.entries = nil
	s.published = make(map[uuid.UUID]bool)
}

func aggregateID(event audit.Event) string {
	if event.AttemptID != "" {
		return event.AttemptID
	}
	if !event.SubjectID.IsNil() {
		return event.SubjectID.String()
	}
	return event.ID.String()
}
