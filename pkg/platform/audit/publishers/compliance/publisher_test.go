package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "landverify/pkg/domain"
	audit "landverify/pkg/platform/audit"
	"landverify/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("db down") }

func TestEmit_PersistsWithTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	pub := New(store, WithClock(func() time.Time { return fixed }))
	subject := id.SubjectID(uuid.New())

	err := pub.Emit(context.Background(), audit.Event{
		SubjectID: subject,
		AttemptID: "a-1",
		Action:    string(audit.EventGovernmentLandRejected),
		Decision:  "rejected",
	})
	require.NoError(t, err)

	events, err := store.ListBySubject(context.Background(), subject)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestEmit_RequiresSubjectAndAction(t *testing.T) {
	pub := New(memory.NewInMemoryStore())

	err := pub.Emit(context.Background(), audit.Event{Action: "x"})
	assert.Error(t, err)

	err = pub.Emit(context.Background(), audit.Event{SubjectID: id.SubjectID(uuid.New())})
	assert.Error(t, err)
}

func TestEmit_FailsClosed(t *testing.T) {
	pub := New(failingStore{})
	err := pub.Emit(context.Background(), audit.Event{
		SubjectID: id.SubjectID(uuid.New()),
		Action:    string(audit.EventVerificationCompleted),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
