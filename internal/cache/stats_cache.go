package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shop_api/internal/model"

	"github.com/redis/go-redis/v9"
)

const categoryStatsKey = "shop:category_stats"

// StatsCache holds the last computed category statistics.
type StatsCache interface {
	// Get reports false when nothing is cached.
	Get(ctx context.Context) ([]model.CategoryStat, bool, error)
	Set(ctx context.Context, stats []model.CategoryStat) error
	Invalidate(ctx context.Context) error
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient builds a client with short timeouts; the cache is optional
// and must never stall a request for long.
func NewRedisClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

type RedisStatsCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStatsCache(rdb redis.Cmdable, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context) ([]model.CategoryStat, bool, error) {
	raw, err := c.rdb.Get(ctx, categoryStatsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read stats cache: %w", err)
	}

	var stats []model.CategoryStat
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("failed to decode stats cache: %w", err)
	}
	return stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, stats []model.CategoryStat) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := c.rdb.Set(ctx, categoryStatsKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write stats cache: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, categoryStatsKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	return nil
}

// NoopStatsCache never holds anything.
type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context) ([]model.CategoryStat, bool, error) {
	return nil, false, nil
}
func (NoopStatsCache) Set(context.Context, []model.CategoryStat) error { return nil }
func (NoopStatsCache) Invalidate(context.Context) error                { return nil }
