// Package compliance provides a fail-closed audit publisher for regulatory events.
//
// Events are written to the store (the outbox when Postgres is configured) and
// the caller blocks until the write succeeds. If the write fails the calling
// operation MUST fail. When ctx carries a transaction the event joins it.
//
// Use for: identity_mismatch, land_record_rejected, government_land_rejected,
// location_verified, verification_completed.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "landverify/pkg/platform/audit"
)

// Publisher emits compliance events with fail-closed semantics.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// New creates a compliance publisher.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes a compliance event to the audit store.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.SubjectID.IsNil() {
		return fmt.Errorf("compliance event requires SubjectID")
	}
	if event.Action == "" {
		return fmt.Errorf("compliance event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	event.Category = audit.CategoryCompliance

	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: compliance audit failed",
				"action", event.Action,
				"subject_id", event.SubjectID,
				"attempt_id", event.AttemptID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}
	return nil
}
