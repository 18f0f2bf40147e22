package usecase

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces page navigations at least 1s/rps apart.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing rps navigations per second.
func NewRateLimiter(rps float64) *RateLimiter {
	interval := time.Duration(float64(time.Second) / rps)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Throttle blocks until the next navigation may start. The first call
// returns immediately.
func (r *RateLimiter) Throttle(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
