package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/valpere/tabtran/internal/apperrors"
)

// GoogleConfig carries credentials and retry policy for the Google Cloud
// Translation backend.
type GoogleConfig struct {
	// Credentials is a path to a service-account JSON file. Empty means
	// application default credentials.
	Credentials string
	Retry       RetryPolicy
}

// GoogleService translates batches via the Google Cloud Translation API.
type GoogleService struct {
	credentials string
	retry       RetryPolicy

	sleep  func(time.Duration)
	jitter func() float64
}

func NewGoogleService(cfg GoogleConfig) *GoogleService {
	return &GoogleService{
		credentials: cfg.Credentials,
		retry:       cfg.Retry.withDefaults(),
		sleep:       time.Sleep,
	}
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	// Application default credentials may come from the environment, so
	// an empty path is not an error here.
	return nil
}

func (s *GoogleService) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	targetTag, err := language.Parse(targetLang)
	if err != nil {
		return nil, apperrors.Config(fmt.Sprintf("invalid target language %q: %v", targetLang, err))
	}
	var opts *translate.Options
	if sourceLang != "" && sourceLang != "auto" {
		sourceTag, err := language.Parse(sourceLang)
		if err != nil {
			return nil, apperrors.Config(fmt.Sprintf("invalid source language %q: %v", sourceLang, err))
		}
		opts = &translate.Options{Source: sourceTag}
	}

	var clientOpts []option.ClientOption
	if s.credentials != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(s.credentials))
	}
	client, err := translate.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, apperrors.Auth(fmt.Errorf("failed to create translate client: %w", err))
	}
	defer client.Close()

	bo := newBackoff(s.retry, s.jitter)
	var lastErr error

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		translations, err := client.Translate(ctx, texts, targetTag, opts)
		if err == nil {
			if len(translations) != len(texts) {
				return nil, apperrors.Transient(fmt.Errorf("expected %d translations, got %d", len(texts), len(translations)))
			}
			out := make([]string, len(translations))
			for i, tr := range translations {
				out[i] = tr.Text
			}
			return out, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		classified := classifyGoogleError(err)
		if !apperrors.IsRetryable(classified) {
			return nil, classified
		}
		lastErr = classified
		if attempt < s.retry.MaxAttempts {
			s.sleep(bo.next(""))
		}
	}

	return nil, apperrors.New(apperrors.KindThrottled,
		fmt.Sprintf("still rate limited after %d attempts", s.retry.MaxAttempts), lastErr)
}

// classifyGoogleError maps googleapi status codes onto the run's error
// taxonomy: 429 throttled, 403 quota, 401 auth, 5xx transient, the rest
// bad requests.
func classifyGoogleError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// Transport-level failures (DNS, sockets, timeouts) are usually
		// transient.
		return apperrors.Transient(err)
	}
	switch {
	case gerr.Code == 429:
		return apperrors.Throttled(err)
	case gerr.Code == 403:
		return apperrors.Quota(err)
	case gerr.Code == 401:
		return apperrors.Auth(err)
	case gerr.Code >= 500:
		return apperrors.Transient(err)
	default:
		return apperrors.New(apperrors.KindBadRequest, "", err)
	}
}
