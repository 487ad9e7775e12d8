package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisBucketStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBucketStore(client), mr
}

func TestRedisBucketStore(t *testing.T) {
	ctx := context.Background()

	t.Run("denies past the limit", func(t *testing.T) {
		store, _ := newRedisStore(t)
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		for i := range testLimit {
			result, err := store.Allow(ctx, "rl:redis", testLimit, testWindow)
			require.NoError(t, err)
			assert.True(t, result.Allowed)
			assert.Equal(t, testLimit-1-i, result.Remaining)
		}

		now = now.Add(15 * time.Minute)
		result, err := store.Allow(ctx, "rl:redis", testLimit, testWindow)
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 45*60, result.RetryAfter)
	})

	t.Run("requests leave the window", func(t *testing.T) {
		store, _ := newRedisStore(t)
		now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		for range testLimit {
			_, err := store.Allow(ctx, "rl:slide", testLimit, testWindow)
			require.NoError(t, err)
		}
		now = now.Add(testWindow + time.Second)
		result, err := store.Allow(ctx, "rl:slide", testLimit, testWindow)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("reset clears the key", func(t *testing.T) {
		store, mr := newRedisStore(t)
		_, err := store.Allow(ctx, "rl:reset", testLimit, testWindow)
		require.NoError(t, err)
		require.True(t, mr.Exists("rl:reset"))

		require.NoError(t, store.Reset(ctx, "rl:reset"))
		assert.False(t, mr.Exists("rl:reset"))
	})

	t.Run("connection failure surfaces", func(t *testing.T) {
		store, mr := newRedisStore(t)
		mr.Close()
		_, err := store.Allow(ctx, "rl:down", testLimit, testWindow)
		assert.Error(t, err)
	})
}
