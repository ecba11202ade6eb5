package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_Wrapped(t *testing.T) {
	base := Quota(errors.New("403 from upstream"))
	wrapped := fmt.Errorf("batch 3 failed: %w", base)

	kind, ok := KindOf(wrapped)
	if !ok {
		t.Fatal("expected kind to be recoverable from wrapped error")
	}
	if kind != KindQuota {
		t.Errorf("expected KindQuota, got %s", kind)
	}
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	if ok {
		t.Error("expected no kind for a plain error")
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Throttled(nil), true},
		{Transient(nil), true},
		{Quota(nil), false},
		{Auth(nil), false},
		{Format("bad header"), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := IsRetryable(tc.err); got != tc.want {
			t.Errorf("IsRetryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestIsFatal(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Quota(nil), true},
		{Auth(nil), true},
		{Config("missing key"), true},
		{Format("bad header"), true},
		{Throttled(nil), false},
		{Transient(nil), false},
		{errors.New("plain"), false},
	}
	for _, tc := range cases {
		if got := IsFatal(tc.err); got != tc.want {
			t.Errorf("IsFatal(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestError_DefaultMessage(t *testing.T) {
	err := Quota(errors.New("upstream detail"))
	if err.Error() == "" {
		t.Error("expected a default safe message")
	}
	if !errors.Is(err, err) {
		t.Error("errors.Is should match itself")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(KindTransient, "something broke", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
}
