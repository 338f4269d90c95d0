package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisDedupeCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisDedupeCache(client), mr
}

func TestRedisDedupeCache_Reserve(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	reserved, err := cache.Reserve(ctx, "user:post_assigned:abc", 30*time.Second)
	require.NoError(t, err)
	require.True(t, reserved, "first reservation wins")

	reserved, err = cache.Reserve(ctx, "user:post_assigned:abc", 30*time.Second)
	require.NoError(t, err)
	require.False(t, reserved, "second reservation within window is rejected")

	// The window elapses; the key becomes reservable again.
	mr.FastForward(31 * time.Second)

	reserved, err = cache.Reserve(ctx, "user:post_assigned:abc", 30*time.Second)
	require.NoError(t, err)
	require.True(t, reserved)
}

func TestRedisDedupeCache_DistinctKeys(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	reserved, err := cache.Reserve(ctx, "user:post_assigned:abc", 30*time.Second)
	require.NoError(t, err)
	require.True(t, reserved)

	reserved, err = cache.Reserve(ctx, "user:post_assigned:def", 30*time.Second)
	require.NoError(t, err)
	require.True(t, reserved, "different keys do not collide")
}
