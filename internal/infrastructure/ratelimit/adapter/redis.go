package adapter

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Jordy525/Back-gabonmarquethub2-sub000/internal/infrastructure/ratelimit/port"
)

// RedisLimiter counts actions per key in a fixed Redis window so the limit
// holds across server instances. INCR + EXPIRE keeps it to one round trip on
// the steady path.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedisLimiter allows `limit` actions per `window` per key.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &RedisLimiter{client: client, prefix: prefix, limit: int64(limit), window: window}
}

// Ensure interface compliance at compile time
var _ port.Limiter = (*RedisLimiter)(nil)

func (r *RedisLimiter) Allow(ctx context.Context, key string) port.Decision {
	redisKey := r.prefix + ":" + key

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		// fail open: a broken limiter backend must not take messaging down
		return port.Decision{Allowed: true}
	}
	if count == 1 {
		r.client.Expire(ctx, redisKey, r.window)
	}
	if count > r.limit {
		ttl, err := r.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = r.window
		}
		return port.Decision{Allowed: false, RetryAfter: ttl}
	}
	return port.Decision{Allowed: true}
}
