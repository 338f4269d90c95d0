package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeCache is an optional fast-path for the suppression check: reserving
// a key succeeds exactly once per window, so a second reservation within the
// window means an equivalent notification was just recorded. The
// store-backed ShouldSuppress scan remains the fallback when no cache is
// configured or the cache is unreachable.
type DedupeCache interface {
	// Reserve attempts to claim key for window. Returns false when the key
	// is already held, meaning the candidate should be suppressed.
	Reserve(ctx context.Context, key string, window time.Duration) (bool, error)
}

// RedisDedupeCache implements DedupeCache with SET NX + TTL, so expiry of
// the dedupe window is handled entirely by redis.
type RedisDedupeCache struct {
	client *redis.Client
	prefix string
}

// NewRedisDedupeCache creates a redis-backed dedupe cache.
func NewRedisDedupeCache(client *redis.Client) *RedisDedupeCache {
	return &RedisDedupeCache{
		client: client,
		prefix: "notify:dedupe:",
	}
}

// Reserve claims the key with the window as TTL.
func (c *RedisDedupeCache) Reserve(ctx context.Context, key string, window time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, c.prefix+key, 1, window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve dedupe key: %w", err)
	}
	return ok, nil
}
