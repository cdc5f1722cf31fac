// Package middleware holds request-level guards shared by the API
// handlers.
package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Chat defaults: one model round trip every two seconds per user, with
// a small burst so quick follow-ups are not punished.
const (
	defaultInterval = 2 * time.Second
	defaultBurst    = 5
)

// RateLimiter tracks a token bucket per key (user UID).
type RateLimiter struct {
	interval time.Duration
	burst    int

	mu     sync.Mutex
	limits map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter with the chat defaults.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(defaultInterval, defaultBurst)
}

// NewRateLimiterWithConfig creates a limiter allowing one request per
// interval with the given burst.
func NewRateLimiterWithConfig(interval time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		burst:    burst,
		limits:   make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}

	limiter := rate.NewLimiter(rate.Every(rl.interval), rl.burst)
	rl.limits[key] = limiter
	return limiter
}

// Allow reports whether a request for the key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}

// Wait blocks until the key's bucket has a token or the context ends.
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.getLimiter(key).Wait(ctx)
}
