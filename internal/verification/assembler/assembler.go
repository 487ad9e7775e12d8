// Package assembler persists a completed attempt: the verification record,
// the subject's verified flag and the compliance event are written as one
// unit, at most once per attempt.
package assembler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"landverify/internal/verification/models"
	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
	audit "landverify/pkg/platform/audit"
	"landverify/pkg/platform/retry"
	"landverify/pkg/platform/sentinel"
)

// Store is the persistence the assembler writes through. Calls made inside
// RunInTx join the transaction carried by ctx.
type Store interface {
	FindByAttempt(ctx context.Context, attemptID id.AttemptID) (*models.VerificationRecord, error)
	InsertRecord(ctx context.Context, record *models.VerificationRecord) error
	MarkSubjectVerified(ctx context.Context, subjectID id.SubjectID, at time.Time) error
}

// TxRunner runs fn atomically.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Compliance writes fail-closed audit events.
type Compliance interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Input is a finished attempt.
type Input struct {
	AttemptID id.AttemptID
	SubjectID id.SubjectID
	Stage1    *models.Stage1Claim
	Stage2    *models.Stage2Claim
	Stage3    *models.Stage3Claim
	Location  *models.LocationCheck
	RequestID string
}

// Result reports the record and whether this call created it.
type Result struct {
	Record  *models.VerificationRecord
	Created bool
}

type Assembler struct {
	store      Store
	tx         TxRunner
	compliance Compliance
	retry      retry.Config
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Assembler)

// WithRetry overrides the transient-failure retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(a *Assembler) { a.retry = cfg }
}

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func New(store Store, tx TxRunner, compliance Compliance, isTransient func(error) bool, logger *slog.Logger, opts ...Option) *Assembler {
	cfg := retry.DefaultConfig()
	cfg.Logger = logger
	cfg.Retryable = func(err error) bool {
		return errors.Is(err, sentinel.ErrUnavailable) || (isTransient != nil && isTransient(err))
	}
	a := &Assembler{
		store:      store,
		tx:         tx,
		compliance: compliance,
		retry:      cfg,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble writes the record for in. A second call for the same attempt
// returns the existing record with Created false.
func (a *Assembler) Assemble(ctx context.Context, in Input) (Result, error) {
	if in.Stage1 == nil || in.Stage2 == nil || in.Stage3 == nil {
		return Result{}, dErrors.New(dErrors.CodeValidation, "All verification steps must be completed.")
	}
	if in.SubjectID.IsNil() || in.AttemptID.IsNil() {
		return Result{}, dErrors.New(dErrors.CodeValidation, "attempt and subject are required")
	}

	var res Result
	err := retry.Do(ctx, a.retry, func(ctx context.Context) error {
		var err error
		res, err = a.assembleOnce(ctx, in)
		return err
	})
	if errors.Is(err, sentinel.ErrConflict) {
		// Lost a race with a concurrent save of the same attempt.
		existing, findErr := a.store.FindByAttempt(ctx, in.AttemptID)
		if findErr == nil {
			return Result{Record: existing}, nil
		}
		err = findErr
	}
	if err != nil {
		a.logger.ErrorContext(ctx, "assembler.persist_failed",
			"attempt_id", in.AttemptID,
			"subject_id", in.SubjectID,
			"error", err,
		)
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			return Result{}, err
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodePersistence, "Failed to save verification")
	}
	return res, nil
}

func (a *Assembler) assembleOnce(ctx context.Context, in Input) (Result, error) {
	var res Result
	err := a.tx.RunInTx(ctx, func(ctx context.Context) error {
		existing, err := a.store.FindByAttempt(ctx, in.AttemptID)
		switch {
		case err == nil:
			res = Result{Record: existing}
			return nil
		case !errors.Is(err, sentinel.ErrNotFound):
			return err
		}

		now := a.now()
		record := &models.VerificationRecord{
			ID:        id.NewVerificationID(),
			AttemptID: in.AttemptID,
			SubjectID: in.SubjectID,
			Status:    models.RecordCompleted,
			Stage1:    *in.Stage1,
			Stage2:    *in.Stage2,
			Stage3:    *in.Stage3,
			Location:  in.Location,
			CreatedAt: now,
		}
		if err := a.store.InsertRecord(ctx, record); err != nil {
			return err
		}
		if err := a.store.MarkSubjectVerified(ctx, in.SubjectID, now); err != nil {
			return err
		}
		if err := a.compliance.Emit(ctx, audit.Event{
			SubjectID: in.SubjectID,
			AttemptID: in.AttemptID.String(),
			Action:    string(audit.EventVerificationCompleted),
			Decision:  record.Status,
			Reason:    record.ID.String(),
			RequestID: in.RequestID,
			Timestamp: now,
		}); err != nil {
			return err
		}
		res = Result{Record: record, Created: true}
		return nil
	})
	return res, err
}
