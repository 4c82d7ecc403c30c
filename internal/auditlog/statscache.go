package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	statsKeyFormat = "auditlog:stats:%d"
	rollupKey      = "auditlog:iprollup"
)

// StatsCache serves statistics and the IP rollup from Redis, rebuilding
// through the service on miss. Rebuilds are singleflighted per key so a
// stampede of dashboard loads costs one repository pass. Redis being down
// fails open to direct reads.
type StatsCache struct {
	service   *Service
	client    *redis.Client
	logger    *slog.Logger
	statsTTL  time.Duration
	rollupTTL time.Duration
	group     singleflight.Group
}

// NewStatsCache constructs the cache layer.
func NewStatsCache(service *Service, client *redis.Client, logger *slog.Logger, statsTTL, rollupTTL time.Duration) *StatsCache {
	if logger == nil {
		logger = slog.Default()
	}
	if statsTTL <= 0 {
		statsTTL = 5 * time.Minute
	}
	if rollupTTL <= 0 {
		rollupTTL = 15 * time.Minute
	}
	return &StatsCache{
		service:   service,
		client:    client,
		logger:    logger,
		statsTTL:  statsTTL,
		rollupTTL: rollupTTL,
	}
}

// Statistics returns cached counters for the day window.
func (c *StatsCache) Statistics(ctx context.Context, days int) (*Statistics, error) {
	if days <= 0 {
		days = 7
	}
	key := fmt.Sprintf(statsKeyFormat, days)

	if cached, ok := c.fetch(ctx, key); ok {
		var stats Statistics
		if err := json.Unmarshal(cached, &stats); err == nil {
			return &stats, nil
		}
		c.logger.Warn("decode cached statistics", slog.String("key", key))
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		stats, err := c.service.Statistics(ctx, days)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, stats, c.statsTTL)
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*Statistics), nil
}

// IPLocations returns the cached per-IP rollup.
func (c *StatsCache) IPLocations(ctx context.Context) ([]IPRollupRow, error) {
	if cached, ok := c.fetch(ctx, rollupKey); ok {
		var rows []IPRollupRow
		if err := json.Unmarshal(cached, &rows); err == nil {
			return rows, nil
		}
		c.logger.Warn("decode cached ip rollup")
	}

	value, err, _ := c.group.Do(rollupKey, func() (interface{}, error) {
		rows, err := c.service.IPLocations(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, rollupKey, rows, c.rollupTTL)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]IPRollupRow), nil
}

// Warm recomputes and stores the statistics for one day window. Used by the
// background worker.
func (c *StatsCache) Warm(ctx context.Context, days int) error {
	stats, err := c.service.Statistics(ctx, days)
	if err != nil {
		return err
	}
	c.store(ctx, fmt.Sprintf(statsKeyFormat, days), stats, c.statsTTL)
	return nil
}

// WarmRollup recomputes and stores the IP rollup.
func (c *StatsCache) WarmRollup(ctx context.Context) error {
	rows, err := c.service.IPLocations(ctx)
	if err != nil {
		return err
	}
	c.store(ctx, rollupKey, rows, c.rollupTTL)
	return nil
}

func (c *StatsCache) fetch(ctx context.Context, key string) ([]byte, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("stats cache get", slog.String("key", key), slog.Any("error", err))
		}
		return nil, false
	}
	return data, true
}

func (c *StatsCache) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("stats cache encode", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Warn("stats cache set", slog.String("key", key), slog.Any("error", err))
	}
}
