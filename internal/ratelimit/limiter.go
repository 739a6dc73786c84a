// Package ratelimit throttles write-heavy endpoints per caller.
package ratelimit

import (
	"context"

	"github.com/redis/go-redis/v9"

	"complaint-service/internal/config"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// New picks the redis limiter when an address is configured so replicas share counters.
func New(cfg config.RateLimitConfig, redisCfg config.RedisConfig) Limiter {
	if redisCfg.Addr == "" {
		return NewMemoryLimiter(cfg.PerMinute, cfg.Burst)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	return NewRedisLimiter(client, cfg.PerMinute)
}
