//go:build integration

package attempt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landverify/pkg/testutil/containers"
)

func TestRedisStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.NewRedisContainer(t)
	store := NewRedis(rc.Client, time.Hour)

	exerciseStore(t, store)

	t.Run("keys carry the attempt TTL", func(t *testing.T) {
		a := sampleAttempt(time.Now())
		require.NoError(t, store.Save(context.Background(), a))

		ttl, err := rc.Client.TTL(context.Background(), attemptKey(a.ID)).Result()
		require.NoError(t, err)
		assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)
	})
}
