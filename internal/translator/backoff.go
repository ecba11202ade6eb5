package translator

import (
	"math/rand"
	"strconv"
	"time"
)

// maxJitter is added on top of every computed delay to avoid synchronized
// retries from parallel invocations of the tool.
const maxJitter = 500 * time.Millisecond

// backoff computes retry delays for one batch: exponential growth from base
// up to max, overridable by the service's Retry-After header. Each call to
// next advances the attempt counter. The jitter source is injectable so
// tests can assert exact delays.
type backoff struct {
	base    time.Duration
	max     time.Duration
	attempt int
	jitter  func() float64 // in [0, 1)
}

func newBackoff(policy RetryPolicy, jitter func() float64) *backoff {
	if jitter == nil {
		jitter = rand.Float64
	}
	return &backoff{
		base:   policy.BackoffBase,
		max:    policy.BackoffMax,
		jitter: jitter,
	}
}

// next returns the delay before the next attempt. retryAfter, when
// non-empty, is the service's Retry-After header value in seconds and takes
// precedence over the exponential schedule (still capped at max).
func (b *backoff) next(retryAfter string) time.Duration {
	delay := b.exponential()
	if retryAfter != "" {
		if secs, err := strconv.ParseFloat(retryAfter, 64); err == nil && secs >= 0 {
			delay = time.Duration(secs * float64(time.Second))
			if delay > b.max {
				delay = b.max
			}
		}
	}
	b.attempt++
	return delay + time.Duration(b.jitter()*float64(maxJitter))
}

func (b *backoff) exponential() time.Duration {
	delay := b.base << b.attempt
	if delay > b.max || delay <= 0 {
		delay = b.max
	}
	return delay
}
