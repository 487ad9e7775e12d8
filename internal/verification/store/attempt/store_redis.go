package attempt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"landverify/internal/verification/pipeline"
	id "landverify/pkg/domain"
	"landverify/pkg/platform/sentinel"
)

const attemptKeyPrefix = "landverify:attempt:"

// RedisStore keeps attempts in Redis with a TTL so any instance can serve
// the next stage of a run.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func attemptKey(attemptID id.AttemptID) string {
	return attemptKeyPrefix + attemptID.String()
}

// Save stores a and restarts its TTL.
func (s *RedisStore) Save(ctx context.Context, a *pipeline.Attempt) error {
	data, err := encode(a)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, attemptKey(a.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save attempt: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// Find returns the attempt, or sentinel.ErrNotFound when it is unknown or expired.
func (s *RedisStore) Find(ctx context.Context, attemptID id.AttemptID) (*pipeline.Attempt, error) {
	data, err := s.client.Get(ctx, attemptKey(attemptID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find attempt: %w: %w", sentinel.ErrUnavailable, err)
	}
	return decode(data)
}
