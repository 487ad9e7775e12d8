package record

import (
	"context"
	"sync"
	"time"

	"landverify/internal/verification/models"
	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
	"landverify/pkg/platform/sentinel"
	"landverify/pkg/platform/tx"
)

// InMemoryStore keeps subjects and verification records in maps. Writes made
// inside RunInTx are journaled (pkg/platform/tx.Journal) and undone when the
// transaction fails.
type InMemoryStore struct {
	mu        sync.RWMutex
	subjects  map[id.SubjectID]*models.Subject
	records   map[id.VerificationID]*models.VerificationRecord
	byAttempt map[id.AttemptID]id.VerificationID

	// txMu serializes transactions; plain reads and subject upserts do not take it.
	txMu sync.Mutex
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		subjects:  make(map[id.SubjectID]*models.Subject),
		records:   make(map[id.VerificationID]*models.VerificationRecord),
		byAttempt: make(map[id.AttemptID]id.VerificationID),
	}
}

// RunInTx runs fn with a journal in ctx and rolls the journaled writes back
// when fn fails. Other memory stores written through the same ctx, such as
// the audit outbox, are rolled back with it. A ctx that already carries a
// journal is joined.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if tx.JournalFrom(ctx) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	jctx, j := tx.WithJournal(ctx)
	if err := fn(jctx); err != nil {
		j.Rollback()
		return err
	}
	return nil
}

// UpsertSubject creates the subject or refreshes its display name. The
// verified flag is never cleared.
func (s *InMemoryStore) UpsertSubject(_ context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.subjects[subject.ID]; ok {
		if subject.DisplayName != "" {
			existing.DisplayName = subject.DisplayName
		}
		return nil
	}
	cp := *subject
	s.subjects[subject.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindSubject(_ context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *subject
	return &cp, nil
}

// MarkSubjectVerified sets the verified flag, creating the subject if needed.
func (s *InMemoryStore) MarkSubjectVerified(ctx context.Context, subjectID id.SubjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.subjects[subjectID]
	if !ok {
		subject = &models.Subject{ID: subjectID}
		s.subjects[subjectID] = subject
		tx.OnRollback(ctx, func() { s.locked(func() { delete(s.subjects, subjectID) }) })
	} else {
		prev := *subject
		tx.OnRollback(ctx, func() { s.locked(func() { *subject = prev }) })
	}
	subject.IsVerified = true
	verifiedAt := at
	subject.VerifiedAt = &verifiedAt
	return nil
}

// InsertRecord stores record. A second record for the same attempt is a
// conflict.
func (s *InMemoryStore) InsertRecord(ctx context.Context, record *models.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byAttempt[record.AttemptID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.records[record.ID]; ok {
		return sentinel.ErrConflict
	}
	cp := *record
	s.records[record.ID] = &cp
	s.byAttempt[record.AttemptID] = record.ID
	tx.OnRollback(ctx, func() {
		s.locked(func() {
			delete(s.records, record.ID)
			delete(s.byAttempt, record.AttemptID)
		})
	})
	return nil
}

func (s *InMemoryStore) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *InMemoryStore) FindByAttempt(_ context.Context, attemptID id.AttemptID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vid, ok := s.byAttempt[attemptID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.records[vid]
	return &cp, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, verificationID id.VerificationID) (*models.VerificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[verificationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	return &cp, nil
}
