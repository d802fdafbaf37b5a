package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/slidexpress/workflow-service/internal/config"
	"github.com/slidexpress/workflow-service/internal/domain"
)

const teamIndexKey = "workflow:team-index"

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. An
// unreachable server is logged, not fatal: the team index falls back to
// Postgres on every read.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// TeamIndexCache stores the grouped team view as JSON under a single key.
type TeamIndexCache struct {
	client *redis.Client
	ttl    time.Duration
}

// TeamIndexCache returns a cache that expires entries after ttl. A nil
// receiver yields a cache that always misses.
func (r *Redis) TeamIndexCache(ttl time.Duration) *TeamIndexCache {
	if r == nil {
		return &TeamIndexCache{ttl: ttl}
	}
	return &TeamIndexCache{client: r.Client, ttl: ttl}
}

func (c *TeamIndexCache) Get(ctx context.Context) (domain.TeamIndex, bool, error) {
	if c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, teamIndexKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var idx domain.TeamIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, false, err
	}
	return idx, true, nil
}

func (c *TeamIndexCache) Set(ctx context.Context, index domain.TeamIndex) error {
	if c.client == nil {
		return nil
	}
	raw, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, teamIndexKey, raw, c.ttl).Err()
}

// Invalidate drops the cached index so the next read rebuilds it.
func (c *TeamIndexCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, teamIndexKey).Err()
}
