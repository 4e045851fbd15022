package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter gives every key a token bucket holding limit requests that
// refills completely over one period. Buckets live in process memory.
type MemoryLimiter struct {
	mu       sync.Mutex
	limit    int
	period   time.Duration
	interval time.Duration
	buckets  map[string]*bucket
	calls    int
	now      func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// sweepEvery is how many calls pass between sweeps of idle keys.
const sweepEvery = 1024

func NewMemoryLimiter(limit int, period time.Duration) *MemoryLimiter {
	if limit < 1 {
		limit = 1
	}
	return &MemoryLimiter{
		limit:    limit,
		period:   period,
		interval: period / time.Duration(limit),
		buckets:  make(map[string]*bucket),
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Limit() int            { return l.limit }
func (l *MemoryLimiter) Period() time.Duration { return l.period }

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweep(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(l.interval), l.limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := Result{Limit: l.limit}
	if tokens := b.lim.TokensAt(now); tokens < 1 || !b.lim.AllowN(now, 1) {
		res.Reset = now.Add(l.refillTime(1 - tokens))
		return res, nil
	}

	tokens := b.lim.TokensAt(now)
	res.Allowed = true
	res.Remaining = int(tokens)
	res.Reset = now.Add(l.refillTime(float64(l.limit) - tokens))
	return res, nil
}

// Keys reports how many clients currently have a bucket.
func (l *MemoryLimiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// refillTime is how long the bucket needs to gain n tokens.
func (l *MemoryLimiter) refillTime(n float64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n * float64(l.interval))
}

// sweep drops buckets idle for a whole period. Such a bucket is full, so
// dropping it changes nothing for its key.
func (l *MemoryLimiter) sweep(now time.Time) {
	cutoff := now.Add(-l.period)
	for k, b := range l.buckets {
		if !b.lastSeen.After(cutoff) {
			delete(l.buckets, k)
		}
	}
}
