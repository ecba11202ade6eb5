package translator

import (
	"context"
	"time"
)

// Service is a remote machine-translation backend. TranslateBatch sends one
// batch of source strings and returns the translations in the same order
// and count, or a kind-tagged error (see internal/apperrors) describing why
// the whole batch failed. Re-sending an already-translated batch is safe.
type Service interface {
	Name() string
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
	IsAvailable(ctx context.Context) error
}

// RetryPolicy bounds the throttling recovery loop shared by the backends.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries per batch including the
	// first (1 = no retries).
	MaxAttempts int
	// BackoffBase is the delay before the first retry; subsequent delays
	// double up to BackoffMax.
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DefaultRetryPolicy mirrors the rate limits of the free service tiers:
// patient retries with a generous cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 12,
		BackoffBase: 1 * time.Second,
		BackoffMax:  15 * time.Second,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = def.BackoffBase
	}
	if p.BackoffMax <= 0 {
		p.BackoffMax = def.BackoffMax
	}
	return p
}
