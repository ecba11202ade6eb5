// Package apperrors classifies failures into the kinds the pipeline cares
// about: whether an error fails a single batch, the whole run, or is worth
// retrying at all.
package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	// KindFormat: malformed input table, missing required columns.
	KindFormat Kind = "format"
	// KindConfig: missing credentials, bad language code, invalid options.
	KindConfig Kind = "config"
	// KindThrottled: rate limited by the translation service; transient.
	KindThrottled Kind = "throttled"
	// KindQuota: service quota exhausted; nothing else will succeed this run.
	KindQuota Kind = "quota"
	// KindAuth: rejected credentials.
	KindAuth Kind = "auth"
	// KindTransient: network or upstream hiccups worth retrying.
	KindTransient Kind = "transient"
	// KindBadRequest: the service rejected the request itself.
	KindBadRequest Kind = "bad_request"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindFormat:
		return "Input table is malformed."
	case KindConfig:
		return "Configuration is incomplete or invalid."
	case KindThrottled:
		return "Rate limit exceeded. Please try again later."
	case KindQuota:
		return "Translation quota exhausted."
	case KindAuth:
		return "Authentication failed. Please verify your API key and region."
	case KindTransient:
		return "Temporary upstream error. Please try again."
	case KindBadRequest:
		return "Request rejected by the translation service."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Format(msg string) error { return New(KindFormat, msg, nil) }

func Config(msg string) error { return New(KindConfig, msg, nil) }

func Throttled(cause error) error { return New(KindThrottled, "", cause) }

func Quota(cause error) error { return New(KindQuota, "", cause) }

func Auth(cause error) error { return New(KindAuth, "", cause) }

func Transient(cause error) error { return New(KindTransient, "", cause) }

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// IsRetryable reports whether the same request may succeed if repeated.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindThrottled || e.Kind == KindTransient
}

// IsFatal reports whether the error invalidates the whole run: further
// batches cannot succeed (quota, auth) or the input/setup is unusable
// (format, config).
func IsFatal(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindQuota, KindAuth, KindFormat, KindConfig:
		return true
	}
	return false
}
