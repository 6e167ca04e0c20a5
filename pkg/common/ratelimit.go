package common

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter caps the intake rate of scan submissions so a misbehaving
// scanner station cannot flood the database behind the API.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a RateLimiter allowing rps events per second with
// the given burst headroom for short scan bursts at a station.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the limiter admits an event or the context is canceled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}
