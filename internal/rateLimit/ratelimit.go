package rateLimit

import (
	"context"
	"time"

	redisadapter "github.com/roomstay/booking-orders/internal/adapters/redis"
)

type RateLimiter struct {
	redis *redisadapter.Cache
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	if rl == nil || rl.redis == nil {
		return true
	}
	fullKey := "rl:" + key

	pipe := rl.redis.Client().Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, period)

	_, err := pipe.Exec(ctx)
	if err != nil {
		// Redis trouble must not take the API down with it.
		return true
	}

	return incr.Val() <= int64(rate)
}
