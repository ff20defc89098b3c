package tmux

import (
	"golang.org/x/time/rate"
)

// RateLimiter lets through at most perSecond events per second, with no
// burst beyond a single event.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter for perSecond events per second.
func NewRateLimiter(perSecond int) *RateLimiter {
	if perSecond <= 0 {
		perSecond = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Allow reports whether an event may happen now.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Coalesce runs fn if an event is allowed now and drops it otherwise.
func (r *RateLimiter) Coalesce(fn func()) {
	if r.Allow() {
		fn()
	}
}
