package translator

import (
	"testing"
	"time"
)

func noJitter() float64 { return 0 }

func TestBackoff_ExponentialSchedule(t *testing.T) {
	bo := newBackoff(RetryPolicy{
		MaxAttempts: 5,
		BackoffBase: time.Second,
		BackoffMax:  15 * time.Second,
	}, noJitter)

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		15 * time.Second, // capped
		15 * time.Second,
	}
	for i, w := range want {
		if got := bo.next(""); got != w {
			t.Errorf("attempt %d: got %s, want %s", i, got, w)
		}
	}
}

func TestBackoff_RetryAfterOverrides(t *testing.T) {
	bo := newBackoff(RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		BackoffMax:  15 * time.Second,
	}, noJitter)

	if got := bo.next("7"); got != 7*time.Second {
		t.Errorf("expected Retry-After to win: got %s", got)
	}
	// The attempt counter still advanced, so the schedule continues.
	if got := bo.next(""); got != 2*time.Second {
		t.Errorf("expected 2s after one prior attempt, got %s", got)
	}
}

func TestBackoff_RetryAfterCapped(t *testing.T) {
	bo := newBackoff(RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		BackoffMax:  15 * time.Second,
	}, noJitter)

	if got := bo.next("3600"); got != 15*time.Second {
		t.Errorf("expected Retry-After capped at max, got %s", got)
	}
}

func TestBackoff_UnparseableRetryAfterFallsBack(t *testing.T) {
	bo := newBackoff(RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		BackoffMax:  15 * time.Second,
	}, noJitter)

	if got := bo.next("soon"); got != time.Second {
		t.Errorf("expected exponential fallback, got %s", got)
	}
}

func TestBackoff_JitterAdded(t *testing.T) {
	bo := newBackoff(RetryPolicy{
		MaxAttempts: 3,
		BackoffBase: time.Second,
		BackoffMax:  15 * time.Second,
	}, func() float64 { return 1 })

	got := bo.next("")
	if got != time.Second+maxJitter {
		t.Errorf("expected full jitter added, got %s", got)
	}
}
