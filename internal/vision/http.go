package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxErrorBody bounds how much of an upstream error body is kept.
const maxErrorBody = 2048

// httpAdapter holds the transport pieces shared by the real providers.
type httpAdapter struct {
	name       string
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newHTTPAdapter(name string, opts Options, defaultModel, defaultBaseURL string) httpAdapter {
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return httpAdapter{
		name:       name,
		apiKey:     opts.APIKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    newLimiter(opts.RequestsPerMinute),
	}
}

// newLimiter returns a limiter allowing rpm requests per minute. Zero or a
// negative value disables pacing.
func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// postJSON sends body as JSON and decodes a 200 response into out. Non-200
// responses are returned as *APIError.
func (a *httpAdapter) postJSON(ctx context.Context, url string, headers map[string]string, body, out any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(respBody) > maxErrorBody {
			respBody = respBody[:maxErrorBody]
		}
		return &APIError{Provider: a.name, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// result parses model text into a normalized result, keeping the raw text.
func (a *httpAdapter) result(text string) (*AnalysisResult, error) {
	items, err := parseItems(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	return NewAnalysisResult(a.name, items).WithRaw(text), nil
}
