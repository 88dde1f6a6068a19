package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arena-hq/arena-engine/pkg/models"
)

// SnapshotCache stores the latest classification per request. Get returns
// (nil, nil) on a miss.
type SnapshotCache interface {
	Get(ctx context.Context, requestID string) (*models.ClassifiedVendorList, error)
	Set(ctx context.Context, requestID string, list models.ClassifiedVendorList) error
	Delete(ctx context.Context, requestID string) error
}

// NoopSnapshotCache satisfies SnapshotCache without storing anything. Every
// read misses, so classifications are always recomputed.
type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(ctx context.Context, requestID string) (*models.ClassifiedVendorList, error) {
	return nil, nil
}

func (NoopSnapshotCache) Set(ctx context.Context, requestID string, list models.ClassifiedVendorList) error {
	return nil
}

func (NoopSnapshotCache) Delete(ctx context.Context, requestID string) error {
	return nil
}

// RedisSnapshotCache caches classifications in redis. Staleness is bounded by
// the service's write-through on requirement updates, not by the TTL; the TTL
// only caps memory for abandoned requests.
type RedisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{
		client: client,
		ttl:    ttl,
	}
}

func snapshotKey(requestID string) string {
	return "classification:" + requestID
}

func (c *RedisSnapshotCache) Get(ctx context.Context, requestID string) (*models.ClassifiedVendorList, error) {
	data, err := c.client.Get(ctx, snapshotKey(requestID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read classification snapshot: %w", err)
	}

	var list models.ClassifiedVendorList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode classification snapshot: %w", err)
	}
	return &list, nil
}

func (c *RedisSnapshotCache) Set(ctx context.Context, requestID string, list models.ClassifiedVendorList) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode classification snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(requestID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write classification snapshot: %w", err)
	}
	return nil
}

// PingContext probes redis connectivity for health checks.
func (c *RedisSnapshotCache) PingContext(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSnapshotCache) Delete(ctx context.Context, requestID string) error {
	if err := c.client.Del(ctx, snapshotKey(requestID)).Err(); err != nil {
		return fmt.Errorf("failed to delete classification snapshot: %w", err)
	}
	return nil
}
