package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "landverify/pkg/domain-errors"
)

// Typed identifiers keep subject, attempt and record references from being
// swapped at call sites. All are UUIDs on the wire.
type (
	SubjectID      uuid.UUID
	AttemptID      uuid.UUID
	VerificationID uuid.UUID
)

const maxIDLength = 64

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

// ParseSubjectID validates an external subject reference.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID("subject id", s)
	return SubjectID(u), err
}

// ParseAttemptID validates an attempt reference supplied by a client.
func ParseAttemptID(s string) (AttemptID, error) {
	u, err := parseUUID("attempt id", s)
	return AttemptID(u), err
}

// ParseVerificationID validates a persisted record reference.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID("verification id", s)
	return VerificationID(u), err
}

func NewAttemptID() AttemptID           { return AttemptID(uuid.New()) }
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

func (id SubjectID) String() string      { return uuid.UUID(id).String() }
func (id AttemptID) String() string      { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }

func (id SubjectID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AttemptID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id SubjectID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AttemptID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id VerificationID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SubjectID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = SubjectID(u)
	return nil
}

func (id *AttemptID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = AttemptID(u)
	return nil
}

func (id *VerificationID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = VerificationID(u)
	return nil
}
