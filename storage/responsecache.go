package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const quotaTTL = 48 * time.Hour

// ResponseCache is a Redis-backed cache for proxied upstream responses. It
// also tracks upstream quota usage for the status endpoint. A nil Redis
// client disables it entirely; cache failures never surface to callers.
type ResponseCache struct {
	redis *redis.Client
}

// NewResponseCache creates a ResponseCache over the given Redis client.
func NewResponseCache(client *redis.Client) *ResponseCache {
	return &ResponseCache{redis: client}
}

// GetJSON loads a cached response into v, reporting whether it was present.
// Undecodable entries are dropped and reported as misses.
func (c *ResponseCache) GetJSON(ctx context.Context, key string, v any) bool {
	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

// SetJSON stores a response under key for ttl. A non-positive ttl skips the
// write.
func (c *ResponseCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.redis == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, ttl).Err()
}

// RecordQuota accumulates upstream points spent today.
func (c *ResponseCache) RecordQuota(ctx context.Context, pointsUsed float64) {
	if c.redis == nil || pointsUsed <= 0 {
		return
	}
	key := quotaKey(time.Now().UTC())
	if err := c.redis.IncrByFloat(ctx, key, pointsUsed).Err(); err != nil {
		return
	}
	_ = c.redis.Expire(ctx, key, quotaTTL).Err()
}

// QuotaPointsToday returns the points recorded for the current UTC day.
func (c *ResponseCache) QuotaPointsToday(ctx context.Context) (float64, error) {
	if c.redis == nil {
		return 0, nil
	}
	points, err := c.redis.Get(ctx, quotaKey(time.Now().UTC())).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	return points, err
}

// Available reports whether the cache backend answers pings.
func (c *ResponseCache) Available(ctx context.Context) bool {
	if c.redis == nil {
		return false
	}
	return c.redis.Ping(ctx).Err() == nil
}

func quotaKey(day time.Time) string {
	return "spoonacular:points:" + day.Format("2006-01-02")
}
