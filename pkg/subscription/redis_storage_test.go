package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
)

func TestNewRedisStorageFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed connection url", func(t *testing.T) {
		storage, err := subscription.NewRedisStorageFromConfig(ctx, redis.Config{
			ConnectionURL:  "definitely-not-redis",
			RetryAttempts:  1,
			RetryInterval:  time.Millisecond,
			ConnectTimeout: time.Second,
		})
		require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
		require.Nil(t, storage)
	})

	t.Run("unreachable server", func(t *testing.T) {
		storage, err := subscription.NewRedisStorageFromConfig(ctx, redis.Config{
			ConnectionURL:  "redis://127.0.0.1:1/0",
			RetryAttempts:  1,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		require.ErrorIs(t, err, redis.ErrRedisNotReady)
		require.Nil(t, storage)
	})

	t.Run("close without owned client is a no-op", func(t *testing.T) {
		storage := subscription.NewRedisStorage(nil)
		require.NoError(t, storage.Close())
	})
}
