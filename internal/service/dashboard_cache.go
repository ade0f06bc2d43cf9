package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/portal-metrics-api/internal/observability"
)

const studentDashboardPrefix = "dashboard:student:"

// DashboardCache stores rendered student dashboards in Redis. A nil client
// disables caching.
type DashboardCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewDashboardCache builds the cache shared by the dashboard services.
func NewDashboardCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *DashboardCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "dashboard_cache").Logger(),
	}
}

func studentCacheKey(studentID string) string {
	return studentDashboardPrefix + studentID
}

func (c *DashboardCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *DashboardCache) load(ctx context.Context, key string, target interface{}) bool {
	if !c.enabled() {
		return false
	}

	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read dashboard cache")
		}
		observability.DashboardCache().WithLabelValues("miss").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(cached), target); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding unreadable dashboard cache entry")
		observability.DashboardCache().WithLabelValues("miss").Inc()
		return false
	}

	observability.DashboardCache().WithLabelValues("hit").Inc()
	return true
}

func (c *DashboardCache) store(ctx context.Context, key string, value interface{}) {
	if !c.enabled() {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode dashboard cache entry")
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store dashboard cache")
	}
}

// InvalidateStudents drops the cached dashboards of the given students.
func (c *DashboardCache) InvalidateStudents(ctx context.Context, studentIDs ...string) {
	if !c.enabled() || len(studentIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		keys = append(keys, studentCacheKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Int("count", len(keys)).Msg("failed to invalidate dashboard cache")
	}
}

// InvalidateAll drops every cached student dashboard and returns how many
// entries were removed.
func (c *DashboardCache) InvalidateAll(ctx context.Context) (int, error) {
	if !c.enabled() {
		return 0, nil
	}

	removed := 0
	iter := c.client.Scan(ctx, 0, studentDashboardPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		deleted, err := c.client.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, err
		}
		removed += int(deleted)
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, nil
}
