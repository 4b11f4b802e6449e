package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UnreadCache caches per-user unread counts. Implementations must treat the
// cache as advisory; the Manager falls back to storage on any error.
type UnreadCache interface {
	Get(ctx context.Context, userID uuid.UUID) (count int, ok bool, err error)
	Set(ctx context.Context, userID uuid.UUID, count int) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// RedisUnreadCache is a Redis-backed unread-count cache.
type RedisUnreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUnreadCache creates an unread-count cache with the given TTL.
// A zero ttl defaults to one minute; counts are cheap to recompute, so a
// short TTL bounds staleness without meaningful load on Postgres.
func NewRedisUnreadCache(client *redis.Client, ttl time.Duration) *RedisUnreadCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisUnreadCache{client: client, ttl: ttl}
}

func unreadKey(userID uuid.UUID) string {
	return "notify:unread:" + userID.String()
}

func (c *RedisUnreadCache) Get(ctx context.Context, userID uuid.UUID) (int, bool, error) {
	count, err := c.client.Get(ctx, unreadKey(userID)).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read unread count: %w", err)
	}
	return count, true, nil
}

func (c *RedisUnreadCache) Set(ctx context.Context, userID uuid.UUID, count int) error {
	if err := c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache unread count: %w", err)
	}
	return nil
}

func (c *RedisUnreadCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, unreadKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate unread count: %w", err)
	}
	return nil
}
