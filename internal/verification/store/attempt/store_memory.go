package attempt

import (
	"context"
	"sync"
	"time"

	"landverify/internal/verification/pipeline"
	id "landverify/pkg/domain"
	"landverify/pkg/platform/sentinel"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// InMemoryStore is a process-local attempt store for development and tests.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[id.AttemptID]entry
	ttl     time.Duration
	now     func() time.Time
}

type MemoryOption func(*InMemoryStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryStore) { s.now = now }
}

func NewInMemory(ttl time.Duration, opts ...MemoryOption) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &InMemoryStore{
		entries: make(map[id.AttemptID]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a and restarts its TTL.
func (s *InMemoryStore) Save(_ context.Context, a *pipeline.Attempt) error {
	data, err := encode(a)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.evictExpired(now)
	s.entries[a.ID] = entry{data: data, expiresAt: now.Add(s.ttl)}
	return nil
}

// Find returns the attempt, or sentinel.ErrNotFound when it is unknown or expired.
func (s *InMemoryStore) Find(_ context.Context, attemptID id.AttemptID) (*pipeline.Attempt, error) {
	s.mu.Lock()
	e, ok := s.entries[attemptID]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.entries, attemptID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return decode(e.data)
}

func (s *InMemoryStore) evictExpired(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}
