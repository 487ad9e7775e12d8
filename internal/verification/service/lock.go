package service

import (
	"context"
	"sync"
	"time"

	dErrors "landverify/pkg/domain-errors"
)

// Commits to one attempt are serialized on a shard picked by the attempt id.
// Stage work runs outside the lock; only the reload-compare-save step holds it.
const numAttemptShards = 128

const defaultCommitTimeout = 5 * time.Second

type attemptLocks struct {
	shards  [numAttemptShards]sync.Mutex
	timeout time.Duration
}

func (l *attemptLocks) withLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := l.timeout
	if timeout == 0 {
		timeout = defaultCommitTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := &l.shards[hashKey(key)%numAttemptShards]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// hashKey is FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
