package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// counter is the subset of redis.Cmdable used by RedisLimiter.
type counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter counts requests in fixed windows stored as expiring keys,
// so every server instance sharing the Redis sees the same budget.
type RedisLimiter struct {
	rdb    counter
	prefix string
	limit  int
	period time.Duration
	now    func() time.Time
}

func NewRedisLimiter(rdb redis.Cmdable, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		prefix: "ratelimit:",
		limit:  limit,
		period: period,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Limit() int            { return l.limit }
func (l *RedisLimiter) Period() time.Duration { return l.period }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	k := l.prefix + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("redis incr: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.period).Err(); err != nil {
			return Result{}, fmt.Errorf("redis expire: %w", err)
		}
	}

	ttl, err := l.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("redis pttl: %w", err)
	}
	// A key without expiry is left over from a crash between INCR and
	// EXPIRE; give it one now so the client is not locked out forever.
	if ttl < 0 {
		ttl = l.period
		_ = l.rdb.Expire(ctx, k, l.period).Err()
	}

	res := Result{
		Allowed: n <= int64(l.limit),
		Limit:   l.limit,
		Reset:   l.now().Add(ttl),
	}
	if res.Allowed {
		res.Remaining = l.limit - int(n)
	}
	return res, nil
}
