package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// LeaderboardCachePrefix namespaces rendered leaderboards.
const LeaderboardCachePrefix = "leaderboard:"

// JSONCache stores JSON encoded values under a key prefix with a fixed TTL.
// A version counter kept outside the prefix is bumped by every invalidation;
// callers put the version they read into their keys so a value computed
// before an invalidation can never be served after it.
type JSONCache struct {
	client     rueidis.Client
	prefix     string
	versionKey string
	ttl        time.Duration
	logger     *zap.Logger
}

// NewJSONCache creates a cache. A non-positive TTL disables caching: Get always
// misses and Set does nothing.
func NewJSONCache(client rueidis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *JSONCache {
	return &JSONCache{
		client:     client,
		prefix:     prefix,
		versionKey: "version:" + prefix,
		ttl:        ttl,
		logger:     logger.Named("redis_cache"),
	}
}

// Version returns the current invalidation counter, 0 before the first
// invalidation.
func (c *JSONCache) Version(ctx context.Context) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}

	version, err := c.client.Do(ctx, c.client.B().Get().Key(c.versionKey).Build()).AsInt64()
	if rueidis.IsRedisNil(err) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("failed to read cache version: %w", err)
	}

	return version, nil
}

// Enabled reports whether the cache stores anything.
func (c *JSONCache) Enabled() bool {
	return c.ttl > 0
}

// Get decodes the cached value for key into dest and reports whether it was found.
func (c *JSONCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsBytes()
	if rueidis.IsRedisNil(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}

	if err := sonic.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}

	return true, nil
}

// Set stores value under key.
func (c *JSONCache) Set(ctx context.Context, key string, value any) error {
	if !c.Enabled() {
		return nil
	}

	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}

	err = c.client.Do(ctx, c.client.B().Set().
		Key(c.prefix+key).
		Value(rueidis.BinaryString(data)).
		Px(c.ttl).
		Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}

	return nil
}

// Invalidate bumps the cache version and deletes every entry of this cache.
func (c *JSONCache) Invalidate(ctx context.Context) error {
	version, err := c.client.Do(ctx, c.client.B().Incr().Key(c.versionKey).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to bump cache version: %w", err)
	}

	var cursor uint64

	for {
		entry, err := c.client.Do(ctx, c.client.B().Scan().
			Cursor(cursor).
			Match(c.prefix+"*").
			Count(100).
			Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("failed to scan cache entries: %w", err)
		}

		if len(entry.Elements) > 0 {
			if err := c.client.Do(ctx, c.client.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return fmt.Errorf("failed to delete cache entries: %w", err)
			}
		}

		if entry.Cursor == 0 {
			break
		}

		cursor = entry.Cursor
	}

	c.logger.Debug("Invalidated cache", zap.String("prefix", c.prefix), zap.Int64("version", version))

	return nil
}
