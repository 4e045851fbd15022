// Package ratelimit counts requests per client key over a fixed period.
// The in-memory limiter uses per-key token buckets and serves a single node;
// the Redis limiter uses a fixed window shared by every node.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the state of a key's window after a call to Allow.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when a denied caller may try again, or when an allowed
	// caller has its whole budget back.
	Reset time.Time
}

// RetryAfter is how long the caller should wait before trying again.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if d := r.Reset.Sub(now); d > 0 {
		return d
	}
	return 0
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
	Limit() int
	Period() time.Duration
}
