package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"landverify/internal/platform/postgres"
	"landverify/internal/verification/models"
	id "landverify/pkg/domain"
	"landverify/pkg/platform/sentinel"
	txcontext "landverify/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// PostgresStore persists subjects and verification records. Calls join the
// transaction carried in ctx, if any.
type PostgresStore struct {
	db        *sql.DB
	txTimeout time.Duration
}

type PostgresOption func(*PostgresStore)

// WithTxTimeout bounds transactions started without a caller deadline.
func WithTxTimeout(d time.Duration) PostgresOption {
	return func(s *PostgresStore) {
		if d > 0 {
			s.txTimeout = d
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, txTimeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunInTx runs fn in one transaction; store calls made with the ctx passed
// to fn join it.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return txcontext.Run(ctx, s.db, s.txTimeout, fn)
}

func (s *PostgresStore) UpsertSubject(ctx context.Context, subject *models.Subject) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO subjects (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
		SET display_name = CASE WHEN EXCLUDED.display_name = '' THEN subjects.display_name ELSE EXCLUDED.display_name END,
		    updated_at = now()
	`, uuid.UUID(subject.ID), subject.DisplayName)
	if err != nil {
		return fmt.Errorf("upsert subject: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSubject(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	var (
		subject    = &models.Subject{ID: subjectID}
		verifiedAt sql.NullTime
	)
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT display_name, is_verified, verified_at FROM subjects WHERE id = $1
	`, uuid.UUID(subjectID)).Scan(&subject.DisplayName, &subject.IsVerified, &verifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find subject: %w", err)
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		subject.VerifiedAt = &t
	}
	return subject, nil
}

func (s *PostgresStore) MarkSubjectVerified(ctx context.Context, subjectID id.SubjectID, at time.Time) error {
	_, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO subjects (id, is_verified, verified_at)
		VALUES ($1, TRUE, $2)
		ON CONFLICT (id) DO UPDATE
		SET is_verified = TRUE, verified_at = EXCLUDED.verified_at, updated_at = now()
	`, uuid.UUID(subjectID), at)
	if err != nil {
		return fmt.Errorf("mark subject verified: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertRecord(ctx context.Context, record *models.VerificationRecord) error {
	stage1, err := json.Marshal(record.Stage1)
	if err != nil {
		return fmt.Errorf("marshal stage1: %w", err)
	}
	stage2, err := json.Marshal(record.Stage2)
	if err != nil {
		return fmt.Errorf("marshal stage2: %w", err)
	}
	stage3, err := json.Marshal(record.Stage3)
	if err != nil {
		return fmt.Errorf("marshal stage3: %w", err)
	}
	// JSONB values are sent as text; lib/pq would encode []byte as bytea.
	// location stays NULL when no check was accepted.
	var location any
	if record.Location != nil {
		raw, err := json.Marshal(record.Location)
		if err != nil {
			return fmt.Errorf("marshal location: %w", err)
		}
		location = string(raw)
	}

	_, err = txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO verifications (
			id, attempt_id, subject_id, status, verified_name, survey_no, district,
			land_classification, display_address, suitability_score,
			stage1, stage2, geofence, stage3, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		uuid.UUID(record.ID),
		uuid.UUID(record.AttemptID),
		uuid.UUID(record.SubjectID),
		record.Status,
		string(record.Stage1.PurchaserName),
		string(record.Stage1.SurveyNumber),
		record.Stage1.District,
		string(record.Stage2.LandClassification),
		record.Stage2.GeoTarget.DisplayAddress(),
		record.Stage3.SuitabilityScore,
		string(stage1), string(stage2), location, string(stage3),
		record.CreatedAt,
	)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

const selectRecord = `
	SELECT id, attempt_id, subject_id, status, stage1, stage2, geofence, stage3, created_at
	FROM verifications
`

func (s *PostgresStore) FindByAttempt(ctx context.Context, attemptID id.AttemptID) (*models.VerificationRecord, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectRecord+` WHERE attempt_id = $1`, uuid.UUID(attemptID))
	return scanRecord(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, verificationID id.VerificationID) (*models.VerificationRecord, error) {
	row := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, selectRecord+` WHERE id = $1`, uuid.UUID(verificationID))
	return scanRecord(row)
}

func scanRecord(row *sql.Row) (*models.VerificationRecord, error) {
	var (
		record                           models.VerificationRecord
		recordID, attemptID, subjectID   uuid.UUID
		stage1, stage2, location, stage3 []byte
	)
	err := row.Scan(&recordID, &attemptID, &subjectID, &record.Status, &stage1, &stage2, &location, &stage3, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan verification: %w", err)
	}
	record.ID = id.VerificationID(recordID)
	record.AttemptID = id.AttemptID(attemptID)
	record.SubjectID = id.SubjectID(subjectID)

	if err := json.Unmarshal(stage1, &record.Stage1); err != nil {
		return nil, fmt.Errorf("decode stage1: %w", err)
	}
	if err := json.Unmarshal(stage2, &record.Stage2); err != nil {
		return nil, fmt.Errorf("decode stage2: %w", err)
	}
	if err := json.Unmarshal(stage3, &record.Stage3); err != nil {
		return nil, fmt.Errorf("decode stage3: %w", err)
	}
	if len(location) > 0 {
		record.Location = &models.LocationCheck{}
		if err := json.Unmarshal(location, record.Location); err != nil {
			return nil, fmt.Errorf("decode location: %w", err)
		}
	}
	return &record, nil
}
