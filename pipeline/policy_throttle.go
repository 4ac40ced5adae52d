package pipeline

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// ThrottleConfig configures client-side rate limiting.
type ThrottleConfig struct {
	// RequestsPerSecond is the maximum sustained request rate.
	RequestsPerSecond float64

	// Burst is the number of requests allowed in a burst above the
	// sustained rate.
	Burst int

	// WaitOnLimit selects behavior when the limit is hit. If true, calls
	// wait for a token respecting the context deadline; if false they fail
	// fast with ErrThrottled.
	WaitOnLimit bool
}

// DefaultThrottleConfig returns 100 requests per second with a burst of 10,
// waiting when the limit is hit.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{
		RequestsPerSecond: 100,
		Burst:             10,
		WaitOnLimit:       true,
	}
}

// ThrottlePolicy applies client-side rate limiting ahead of the rest of the
// chain.
type ThrottlePolicy struct {
	limiter *rate.Limiter
	wait    bool
}

// NewThrottlePolicy creates a ThrottlePolicy.
func NewThrottlePolicy(cfg ThrottleConfig) *ThrottlePolicy {
	if cfg.RequestsPerSecond <= 0 {
		cfg = DefaultThrottleConfig()
	}
	return &ThrottlePolicy{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		wait:    cfg.WaitOnLimit,
	}
}

// Do implements Policy.
func (p *ThrottlePolicy) Do(cc *CallContext, next *Next) (*Response, error) {
	if p.wait {
		if err := p.limiter.Wait(cc.Context()); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, ErrThrottled
		}
	} else if !p.limiter.Allow() {
		return nil, ErrThrottled
	}
	return next.Do()
}
