package ops

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "landverify/pkg/domain"
	audit "landverify/pkg/platform/audit"
	"landverify/pkg/platform/audit/store/memory"
	"landverify/pkg/platform/circuit"
)

type countingFailStore struct{ calls atomic.Int32 }

func (s *countingFailStore) Append(context.Context, audit.Event) error {
	s.calls.Add(1)
	return errors.New("unavailable")
}

func TestTracker_FlushesOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	tr := New(store, WithFlushInterval(time.Hour))
	subject := id.SubjectID(uuid.New())

	tr.Track(audit.Event{SubjectID: subject, Action: string(audit.EventIdentityMatched)})
	tr.Track(audit.Event{SubjectID: subject, Action: string(audit.EventSiteVideoAnalyzed)})
	require.NoError(t, tr.Close())

	events, err := store.ListBySubject(context.Background(), subject)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(audit.EventIdentityMatched), events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestTracker_SamplesOutZeroRateActions(t *testing.T) {
	store := memory.NewInMemoryStore()
	tr := New(store, WithActionRate(string(audit.EventGeofenceResolved), 0))

	tr.Track(audit.Event{Action: string(audit.EventGeofenceResolved)})
	require.NoError(t, tr.Close())

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTracker_BreakerShedsAfterFailures(t *testing.T) {
	store := &countingFailStore{}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	tr := New(store, WithBreaker(breaker), WithFlushInterval(time.Hour))

	for range 5 {
		tr.Track(audit.Event{Action: string(audit.EventAttemptStarted)})
	}
	require.NoError(t, tr.Close())

	assert.Equal(t, int32(2), store.calls.Load())
	assert.True(t, breaker.IsOpen())
}

func TestRingBuffer_DropsOldestWhenFull(t *testing.T) {
	b := newRingBuffer(2)
	assert.False(t, b.enqueue(audit.Event{Action: "a"}))
	assert.False(t, b.enqueue(audit.Event{Action: "b"}))
	assert.True(t, b.enqueue(audit.Event{Action: "c"}))

	batch := b.dequeueBatch(10)
	require.Len(t, batch, 2)
	assert.Equal(t, "b", batch[0].Action)
	assert.Equal(t, "c", batch[1].Action)
	assert.Equal(t, int64(1), b.droppedTotal())
}
