package segment

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/customer-insights/internal/pkg/logger"
)

// CountCache keeps the freshest resolved count per segment in Redis so
// list views can show a better number than the persisted cached_count
// without paying for a full resolution. Purely advisory, like the
// persisted count: a miss or a Redis outage degrades to the stored
// value, never to an error.
type CountCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewCountCache creates a cache with the given entry TTL. A zero TTL
// defaults to one hour.
func NewCountCache(client *redis.Client, ttl time.Duration) *CountCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CountCache{redis: client, ttl: ttl}
}

func countKey(id uuid.UUID) string {
	return fmt.Sprintf("segment:count:%s", id)
}

// Get returns the cached live count for a segment, if present.
func (c *CountCache) Get(ctx context.Context, id uuid.UUID) (int, bool) {
	if c == nil || c.redis == nil {
		return 0, false
	}

	val, err := c.redis.Get(ctx, countKey(id)).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		logger.Warn("count cache read failed", "segment_id", id.String(), "error", err.Error())
		return 0, false
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return count, true
}

// Set records the live count for a segment. Failures are logged and
// swallowed: the cache is never on the critical path.
func (c *CountCache) Set(ctx context.Context, id uuid.UUID, count int) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, countKey(id), count, c.ttl).Err(); err != nil {
		logger.Warn("count cache write failed", "segment_id", id.String(), "error", err.Error())
	}
}

// Invalidate drops a segment's cached count, e.g. after deletion.
func (c *CountCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, countKey(id)).Err(); err != nil {
		logger.Warn("count cache invalidate failed", "segment_id", id.String(), "error", err.Error())
	}
}
