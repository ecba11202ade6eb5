package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/valpere/tabtran/internal/apperrors"
)

// DefaultAzureEndpoint is the global Azure Translator endpoint.
const DefaultAzureEndpoint = "https://api.cognitive.microsofttranslator.com"

// AzureConfig carries the credentials and retry policy for the Azure
// Translator v3 backend. Key and Region come from configuration; the
// pipeline never reads the environment itself.
type AzureConfig struct {
	Endpoint string
	Key      string
	Region   string
	Retry    RetryPolicy
}

// AzureService translates batches via the Azure Translator v3 REST API.
type AzureService struct {
	endpoint string
	key      string
	region   string
	retry    RetryPolicy

	client *http.Client
	sleep  func(time.Duration)
	jitter func() float64
}

func NewAzureService(cfg AzureConfig) *AzureService {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultAzureEndpoint
	}
	return &AzureService{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      cfg.Key,
		region:   cfg.Region,
		retry:    cfg.Retry.withDefaults(),
		client:   &http.Client{Timeout: 60 * time.Second},
		sleep:    time.Sleep,
	}
}

func (s *AzureService) Name() string {
	return "azure"
}

// IsAvailable checks that credentials are present. It does not call the
// service; a bad key surfaces as an auth error on the first batch.
func (s *AzureService) IsAvailable(ctx context.Context) error {
	if s.key == "" || s.region == "" {
		return apperrors.Config("Azure Translator key and region are required")
	}
	return nil
}

// TranslateBatch sends texts as one request. Throttling (429) and transient
// 5xx responses retry the same batch with exponential backoff, honoring
// Retry-After; quota (403) and auth (401) errors fail fast without retrying.
func (s *AzureService) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body := make([]map[string]string, len(texts))
	for i, text := range texts {
		body[i] = map[string]string{"text": text}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	params := url.Values{}
	params.Set("api-version", "3.0")
	if sourceLang != "" && sourceLang != "auto" {
		params.Set("from", strings.ToLower(sourceLang))
	}
	params.Set("to", strings.ToLower(targetLang))
	reqURL := fmt.Sprintf("%s/translate?%s", s.endpoint, params.Encode())

	bo := newBackoff(s.retry, s.jitter)
	var lastErr error

	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Ocp-Apim-Subscription-Key", s.key)
		httpReq.Header.Set("Ocp-Apim-Subscription-Region", s.region)

		resp, err := s.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Network errors are usually transient; retry on the same
			// schedule as throttling.
			lastErr = err
			if attempt < s.retry.MaxAttempts {
				s.wait(ctx, bo.next(""))
			}
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			out, decErr := decodeAzureResponse(resp.Body, len(texts))
			resp.Body.Close()
			return out, decErr

		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			drain(resp)
			lastErr = fmt.Errorf("rate limited (429)")
			if attempt == s.retry.MaxAttempts {
				break
			}
			delay := bo.next(retryAfter)
			slog.Debug("azure throttled, backing off",
				"attempt", attempt, "max_attempts", s.retry.MaxAttempts, "delay", delay)
			if err := s.wait(ctx, delay); err != nil {
				return nil, err
			}

		case resp.StatusCode >= 500:
			drain(resp)
			lastErr = fmt.Errorf("service error (%d)", resp.StatusCode)
			if attempt == s.retry.MaxAttempts {
				break
			}
			if err := s.wait(ctx, bo.next("")); err != nil {
				return nil, err
			}

		case resp.StatusCode == http.StatusUnauthorized:
			detail := readError(resp)
			return nil, apperrors.Auth(fmt.Errorf("azure rejected credentials (401): %s", detail))

		case resp.StatusCode == http.StatusForbidden:
			detail := readError(resp)
			return nil, apperrors.Quota(fmt.Errorf("azure quota exceeded (403): %s", detail))

		default:
			detail := readError(resp)
			return nil, apperrors.New(apperrors.KindBadRequest,
				fmt.Sprintf("azure rejected the request (%d)", resp.StatusCode),
				fmt.Errorf("%s", detail))
		}
	}

	return nil, apperrors.New(apperrors.KindThrottled,
		fmt.Sprintf("still rate limited after %d attempts", s.retry.MaxAttempts), lastErr)
}

// wait sleeps for d unless the context is cancelled first.
func (s *AzureService) wait(ctx context.Context, d time.Duration) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.sleep(d)
	return nil
}

func decodeAzureResponse(r io.Reader, want int) ([]string, error) {
	var items []struct {
		Translations []struct {
			Text string `json:"text"`
			To   string `json:"to"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, apperrors.Transient(fmt.Errorf("failed to decode response: %w", err))
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if len(item.Translations) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, item.Translations[0].Text)
	}
	if len(out) != want {
		return nil, apperrors.Transient(fmt.Errorf("expected %d translations, got %d", want, len(out)))
	}
	return out, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func readError(resp *http.Response) string {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return strings.TrimSpace(string(body))
}
