package idempotency

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestReserve_SecondCallRejected(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, 0)
	key := "order:test:" + uuid.NewString()
	defer store.Release(ctx, key)

	ok, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRelease_AllowsRetry(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, 0)
	key := "order:test:" + uuid.NewString()

	ok, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Release(ctx, key))

	ok, err = store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, store.Release(ctx, key))
}

func TestNewRedisStore_DefaultTTL(t *testing.T) {
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: "localhost:0"}), 0)
	assert.Equal(t, DefaultTTL, store.ttl)
}
