package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ratewise/feedback-system/internal/core/ports"
)

const statsTTL = 5 * time.Minute

// AggregateCache caches per-resource rating aggregates in Redis.
// Key format: feedback:stats:<resource_id>
type AggregateCache struct {
	client *redis.Client
}

// NewAggregateCache creates an AggregateCache wrapping the given Redis client.
func NewAggregateCache(client *redis.Client) *AggregateCache {
	return &AggregateCache{client: client}
}

// Get returns the cached stats for the resource, or (nil, nil) on a miss.
func (c *AggregateCache) Get(ctx context.Context, resourceID string) (*ports.ResourceStats, error) {
	raw, err := c.client.Get(ctx, c.key(resourceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("stats cache get: %w", err)
	}

	var stats ports.ResourceStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("stats cache decode: %w", err)
	}
	return &stats, nil
}

// Set stores the stats for the resource (expires after statsTTL).
func (c *AggregateCache) Set(ctx context.Context, resourceID string, stats ports.ResourceStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("stats cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(resourceID), raw, statsTTL).Err()
}

// Invalidate drops the cached stats after a write touches the resource.
func (c *AggregateCache) Invalidate(ctx context.Context, resourceID string) error {
	return c.client.Del(ctx, c.key(resourceID)).Err()
}

func (c *AggregateCache) key(resourceID string) string {
	return "feedback:stats:" + resourceID
}
