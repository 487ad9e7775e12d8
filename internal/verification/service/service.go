// Package service drives a verification attempt through its stages. Each
// call loads the attempt, checks the stage gate, runs the stage and commits
// the outcome back to the attempt store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"landverify/internal/claims"
	"landverify/internal/geofence"
	"landverify/internal/verification/assembler"
	"landverify/internal/verification/landrecord"
	"landverify/internal/verification/metrics"
	"landverify/internal/verification/models"
	"landverify/internal/verification/pipeline"
	"landverify/internal/verification/sitevideo"
	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
	audit "landverify/pkg/platform/audit"
	"landverify/pkg/platform/sentinel"
	"landverify/pkg/requestcontext"
)

type IdentityVerifier interface {
	Verify(ctx context.Context, identityDoc, deed claims.Media) (*models.Stage1Claim, error)
}

type RecordValidator interface {
	Validate(ctx context.Context, in landrecord.Input, record claims.Media) (*models.Stage2Claim, error)
}

type Geofence interface {
	Resolve(ctx context.Context, sess *geofence.Session, override string) error
	Check(ctx context.Context, sess *geofence.Session, observed geofence.Point, now time.Time) (geofence.Result, error)
	RadiusKm() float64
}

type VideoAnalyzer interface {
	Analyze(ctx context.Context, sc claims.SiteContext, v sitevideo.Video) (*models.Stage3Claim, error)
}

type RecordAssembler interface {
	Assemble(ctx context.Context, in assembler.Input) (assembler.Result, error)
}

// AttemptStore returns sentinel.ErrNotFound for unknown or expired attempts.
type AttemptStore interface {
	Save(ctx context.Context, a *pipeline.Attempt) error
	Find(ctx context.Context, attemptID id.AttemptID) (*pipeline.Attempt, error)
}

type SubjectStore interface {
	UpsertSubject(ctx context.Context, subject *models.Subject) error
}

type RecordReader interface {
	FindByID(ctx context.Context, verificationID id.VerificationID) (*models.VerificationRecord, error)
}

// AuditPublisher writes compliance events and fails closed.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// OpsTracker records routine events best-effort.
type OpsTracker interface {
	Track(event audit.Event)
}

// Service orchestrates the verification pipeline.
type Service struct {
	identity  IdentityVerifier
	records   RecordValidator
	geofence  Geofence
	video     VideoAnalyzer
	assembler RecordAssembler
	attempts  AttemptStore
	subjects  SubjectStore
	saved     RecordReader

	compliance AuditPublisher
	ops        OpsTracker
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	locks      *attemptLocks
	now        func() time.Time
}

// Deps are the stage components and stores the service drives.
type Deps struct {
	Identity  IdentityVerifier
	Records   RecordValidator
	Geofence  Geofence
	Video     VideoAnalyzer
	Assembler RecordAssembler
	Attempts  AttemptStore
	Subjects  SubjectStore
	Saved     RecordReader
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithCompliance(p AuditPublisher) Option {
	return func(s *Service) { s.compliance = p }
}

func WithOpsTracker(t OpsTracker) Option {
	return func(s *Service) { s.ops = t }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCommitTimeout bounds how long a commit waits for the attempt lock.
func WithCommitTimeout(d time.Duration) Option {
	return func(s *Service) { s.locks.timeout = d }
}

func New(deps Deps, opts ...Option) *Service {
	s := &Service{
		identity:  deps.Identity,
		records:   deps.Records,
		geofence:  deps.Geofence,
		video:     deps.Video,
		assembler: deps.Assembler,
		attempts:  deps.Attempts,
		subjects:  deps.Subjects,
		saved:     deps.Saved,
		logger:    slog.Default(),
		tracer:    otel.Tracer("landverify/verification"),
		locks:     &attemptLocks{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAttempt returns the subject's attempt. Other subjects' attempts are
// reported as not found.
func (s *Service) GetAttempt(ctx context.Context, subjectID id.SubjectID, attemptID id.AttemptID) (*pipeline.Attempt, error) {
	return s.load(ctx, subjectID, attemptID)
}

// GetRecord returns a persisted record to the subject it belongs to.
func (s *Service) GetRecord(ctx context.Context, subjectID id.SubjectID, verificationID id.VerificationID) (*models.VerificationRecord, error) {
	record, err := s.saved.FindByID(ctx, verificationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification")
	}
	if record.SubjectID != subjectID {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification not found")
	}
	return record, nil
}

func (s *Service) load(ctx context.Context, subjectID id.SubjectID, attemptID id.AttemptID) (*pipeline.Attempt, error) {
	a, err := s.attempts.Find(ctx, attemptID)
	if err != nil {
		return nil, attemptStoreError(err)
	}
	if !a.OwnedBy(subjectID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "verification attempt not found")
	}
	return a, nil
}

// commit reloads the attempt under its lock, rejects the write if another
// request changed it since version was read, applies mutate and stores it.
func (s *Service) commit(ctx context.Context, subjectID id.SubjectID, attemptID id.AttemptID, version int64, mutate func(a *pipeline.Attempt) error) (*pipeline.Attempt, error) {
	var committed *pipeline.Attempt
	err := s.locks.withLock(ctx, attemptID.String(), func(ctx context.Context) error {
		a, err := s.load(ctx, subjectID, attemptID)
		if err != nil {
			return err
		}
		if a.Version != version {
			return dErrors.New(dErrors.CodeConflict, "the verification was updated by another request, please reload and retry")
		}
		if err := mutate(a); err != nil {
			return err
		}
		a.Version++
		if err := s.attempts.Save(ctx, a); err != nil {
			return attemptStoreError(err)
		}
		committed = a
		return nil
	})
	return committed, err
}

// create stores a new attempt.
func (s *Service) create(ctx context.Context, a *pipeline.Attempt) error {
	a.Version = 1
	if err := s.attempts.Save(ctx, a); err != nil {
		return attemptStoreError(err)
	}
	return nil
}

func attemptStoreError(err error) error {
	if _, coded := dErrors.As(err); coded {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrExpired):
		return dErrors.New(dErrors.CodeNotFound, "verification attempt not found")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "verification state is unavailable, please try again")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access verification state")
	}
}

// gateError explains why a stage cannot run at the attempt's current stage.
func gateError(a *pipeline.Attempt, msg string) error {
	switch a.Stage {
	case pipeline.StageHalted:
		return dErrors.New(dErrors.CodeInvalidState, "this verification was stopped: "+a.HaltReason)
	case pipeline.StageCompleted:
		return dErrors.New(dErrors.CodeInvalidState, "this verification is already complete")
	}
	return dErrors.New(dErrors.CodeInvalidState, msg)
}

// emitCompliance writes a compliance event. A failure aborts the caller.
func (s *Service) emitCompliance(ctx context.Context, a *pipeline.Attempt, ev audit.AuditEvent, decision, reason string) error {
	s.logAudit(ctx, a, ev, decision)
	if s.compliance == nil {
		return nil
	}
	if err := s.compliance.Emit(ctx, s.auditEvent(ctx, a, ev, decision, reason)); err != nil {
		s.logger.ErrorContext(ctx, "verification.audit_failed", "event", string(ev), "attempt_id", a.ID, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record verification outcome")
	}
	return nil
}

func (s *Service) trackOps(ctx context.Context, a *pipeline.Attempt, ev audit.AuditEvent, decision, reason string) {
	s.logAudit(ctx, a, ev, decision)
	if s.ops != nil {
		s.ops.Track(s.auditEvent(ctx, a, ev, decision, reason))
	}
}

func (s *Service) auditEvent(ctx context.Context, a *pipeline.Attempt, ev audit.AuditEvent, decision, reason string) audit.Event {
	return audit.Event{
		Category:  ev.Category(),
		Timestamp: s.now(),
		SubjectID: a.SubjectID,
		AttemptID: a.ID.String(),
		Action:    string(ev),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
}

func (s *Service) logAudit(ctx context.Context, a *pipeline.Attempt, ev audit.AuditEvent, decision string) {
	s.logger.InfoContext(ctx, string(ev),
		"event", string(ev),
		"log_type", "audit",
		"subject_id", a.SubjectID,
		"attempt_id", a.ID,
		"decision", decision,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (s *Service) startSpan(ctx context.Context, name string, attemptID id.AttemptID) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	if !attemptID.IsNil() {
		span.SetAttributes(attribute.String("attempt.id", attemptID.String()))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}
