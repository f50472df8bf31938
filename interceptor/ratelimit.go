package interceptor

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/gaborage/logbricks/logger"
)

// RateLimiter drops entries beyond a token-bucket rate, either globally or per tag.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	perTag  bool
	exempt  logger.Level
	global  *rate.Limiter
	mu      sync.Mutex
	tags    map[string]*rate.Limiter
	dropped atomic.Uint64
}

// RateLimitOption customises a RateLimiter.
type RateLimitOption func(*RateLimiter)

// PerTag keeps one bucket per entry tag instead of a single shared bucket.
func PerTag() RateLimitOption {
	return func(r *RateLimiter) {
		r.perTag = true
	}
}

// ExemptFrom lets entries at level or above through regardless of the rate.
func ExemptFrom(level logger.Level) RateLimitOption {
	return func(r *RateLimiter) {
		r.exempt = level
	}
}

// RateLimit allows limit entries per second with bursts of up to burst entries.
func RateLimit(limit rate.Limit, burst int, opts ...RateLimitOption) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	r := &RateLimiter{
		limit: limit,
		burst: burst,
		tags:  make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.global = rate.NewLimiter(limit, burst)
	return r
}

// Intercept implements logger.Interceptor.
func (r *RateLimiter) Intercept(_ context.Context, e logger.Entry) (logger.Entry, error) {
	if r.exempt.Valid() && e.Level.AtLeast(r.exempt) {
		return e, nil
	}
	if r.limiter(e.Tag).AllowN(e.Timestamp, 1) {
		return e, nil
	}
	r.dropped.Add(1)
	return e, logger.ErrDrop
}

// Dropped returns how many entries were rejected.
func (r *RateLimiter) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *RateLimiter) limiter(tag string) *rate.Limiter {
	if !r.perTag {
		return r.global
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.tags[tag]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.tags[tag] = l
	}
	return l
}
