package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anhbaysgalan1/leaderboardd/internal/models"
	"github.com/go-redis/redis/v8"
)

const (
	topCachePrefix = "leaderboard:top:"

	// Short TTL: top lists tolerate a few seconds of staleness, resets
	// invalidate explicitly so a zeroed board shows up immediately.
	topCacheTTL = 15 * time.Second
)

// TopCache caches top-N query results in Redis. It only ever sits on the
// read path; mutations go straight to the store. A nil *TopCache is valid
// and behaves as a permanent miss, so callers never branch on whether
// caching is configured.
type TopCache struct {
	client *redis.Client
}

func NewTopCache(client *redis.Client) *TopCache {
	return &TopCache{client: client}
}

func topKey(period string, limit int) string {
	return fmt.Sprintf("%s%s:%d", topCachePrefix, period, limit)
}

// GetTop returns the cached list for (period, limit), or ok=false on a miss.
// Cache failures degrade to a miss; the store remains the source of truth.
func (c *TopCache) GetTop(ctx context.Context, period string, limit int) ([]models.PlayerRecord, bool) {
	if c == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, topKey(period, limit)).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("Top cache read failed", "period", period, "error", err)
		}
		return nil, false
	}

	var records []models.PlayerRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		slog.Warn("Top cache entry corrupt, discarding", "period", period, "error", err)
		return nil, false
	}

	return records, true
}

func (c *TopCache) SetTop(ctx context.Context, period string, limit int, records []models.PlayerRecord) {
	if c == nil {
		return
	}

	data, err := json.Marshal(records)
	if err != nil {
		slog.Warn("Failed to marshal top cache entry", "period", period, "error", err)
		return
	}

	if err := c.client.Set(ctx, topKey(period, limit), data, topCacheTTL).Err(); err != nil {
		slog.Warn("Top cache write failed", "period", period, "error", err)
	}
}

// Invalidate drops every cached top list. Called after bulk resets.
func (c *TopCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}

	iter := c.client.Scan(ctx, 0, topCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			slog.Warn("Top cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		slog.Warn("Top cache scan failed", "error", err)
	}
}
