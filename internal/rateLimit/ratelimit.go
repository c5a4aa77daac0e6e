package rateLimit

import (
	"context"
	"time"

	redisadapter "github.com/robertarktes/travel-agency/internal/adapters/redis"
)

type RateLimiter struct {
	redis *redisadapter.Cache
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow counts one hit against key in a fixed window of length period.
// A redis failure is returned to the caller, which decides whether to fail open.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) (bool, error) {
	n, err := rl.redis.IncrWindow(ctx, "rl:"+key, period)
	if err != nil {
		return false, err
	}
	return n <= int64(rate), nil
}
