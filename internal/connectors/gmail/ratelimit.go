package gmail

import (
	"context"

	"golang.org/x/time/rate"
)

// Conservative defaults, well below Gmail's actual quota units.
const (
	requestsPerSecond = 2.0
	burstSize         = 5
)

// RateLimiter paces Gmail API requests with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter with the package defaults.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burstSize),
	}
}

// Wait blocks until a request may proceed or the context is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
