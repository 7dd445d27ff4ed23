package retry

import (
	"context"
	"math"
	"time"
)

// ExponentialPolicy grows the wait between attempts geometrically up to a cap.
type ExponentialPolicy struct {
	attempted   int
	attempts    int
	infinite    bool
	jitter      float64
	base        float64
	minInterval time.Duration
	maxInterval time.Duration
	maxReached  bool
}

var _ Policy = (*ExponentialPolicy)(nil)

// Exponential creates a policy allowing the given number of attempts, waiting
// minInterval before the first retry and growing up to maxInterval. Zero
// attempts means no limit.
func Exponential(attempts int, minInterval, maxInterval time.Duration) *ExponentialPolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	if minInterval <= 0 {
		panic("minInterval can't be <= 0")
	}
	if minInterval >= maxInterval {
		panic("minInterval can't be >= maxInterval")
	}

	return &ExponentialPolicy{
		attempts:    attempts,
		infinite:    attempts == 0,
		minInterval: minInterval,
		maxInterval: maxInterval,
		base:        2,
		jitter:      0.1,
	}
}

func (r *ExponentialPolicy) WithBase(base float64) *ExponentialPolicy {
	if base <= 1 {
		panic("base can't be <= 1")
	}
	r.base = base
	return r
}

func (r *ExponentialPolicy) WithJitter(jitter float64) *ExponentialPolicy {
	if jitter < 0 {
		panic("jitter can't be < 0")
	}
	if jitter >= 1 {
		panic("jitter can't be >= 1")
	}
	r.jitter = jitter
	return r
}

func (r *ExponentialPolicy) Attempt(ctx context.Context) (ok bool) {
	defer func() {
		if ok {
			r.attempted += 1
		}
	}()

	if r.attempted == 0 {
		return true
	}

	if !r.infinite && r.attempted >= r.attempts {
		return false
	}

	var interval time.Duration
	if r.maxReached {
		interval = r.maxInterval
	} else {
		multiplier := time.Duration(math.Pow(r.base, float64(r.attempted-1)))
		interval = r.minInterval * multiplier
		if interval > r.maxInterval {
			r.maxReached = true
			interval = r.maxInterval
		}
	}

	return wait(ctx, interval, r.jitter)
}

func (r *ExponentialPolicy) Derive() Policy {
	return Exponential(r.attempts, r.minInterval, r.maxInterval).
		WithBase(r.base).
		WithJitter(r.jitter)
}
