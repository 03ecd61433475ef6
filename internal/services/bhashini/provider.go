// File: internal/services/bhashini/provider.go
package bhashini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Logger matches the application logger without importing it.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Provider is the raw language gateway. The service facade layers the
// degradation policy on top of it.
type Provider interface {
	Recognize(ctx context.Context, req ASRRequest) (*ASRResponse, error)
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)
	Synthesize(ctx context.Context, req TTSRequest) (*TTSResponse, error)
	ExtractText(ctx context.Context, req OCRRequest) (*OCRResponse, error)
}

// HTTPProvider talks to a Bhashini-compatible gateway over JSON/HTTP.
type HTTPProvider struct {
	config     *Config
	httpClient *http.Client
	logger     Logger
}

func NewHTTPProvider(config *Config, logger Logger) (*HTTPProvider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewConfigError("new_provider", "invalid configuration", err)
	}
	return &HTTPProvider{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}, nil
}

func (p *HTTPProvider) Recognize(ctx context.Context, req ASRRequest) (*ASRResponse, error) {
	if req.AudioContent == "" {
		return nil, NewAPIError("asr", "audio content is required", nil)
	}
	var resp ASRResponse
	if err := p.post(ctx, "asr", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *HTTPProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if req.Text == "" {
		return nil, NewAPIError("mt", "text is required", nil)
	}
	var resp TranslateResponse
	if err := p.post(ctx, "mt", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *HTTPProvider) Synthesize(ctx context.Context, req TTSRequest) (*TTSResponse, error) {
	if req.Text == "" {
		return nil, NewAPIError("tts", "text is required", nil)
	}
	if req.Voice == "" {
		req.Voice = p.config.DefaultVoice
	}
	var resp TTSResponse
	if err := p.post(ctx, "tts", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (p *HTTPProvider) ExtractText(ctx context.Context, req OCRRequest) (*OCRResponse, error) {
	if req.ImageContent == "" {
		return nil, NewAPIError("ocr", "image content is required", nil)
	}
	var resp OCRResponse
	if err := p.post(ctx, "ocr", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends one JSON request to {base}/bhashini/{endpoint} with retry on
// transport failures and 5xx responses.
func (p *HTTPProvider) post(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return NewAPIError(endpoint, "failed to encode request", err)
	}

	url := fmt.Sprintf("%s/bhashini/%s", strings.TrimRight(p.config.BaseURL, "/"), endpoint)

	var lastErr error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return NewConnectionError(endpoint, "request cancelled", ctx.Err())
			case <-time.After(p.config.RetryDelay * time.Duration(attempt-1)):
			}
			p.logger.Debug("Retrying language gateway call", "endpoint", endpoint, "attempt", attempt)
		}

		lastErr = p.doOnce(ctx, url, endpoint, body, out)
		if lastErr == nil {
			return nil
		}
		if bridgeErr, ok := lastErr.(*BridgeError); ok && bridgeErr.Type == ErrorTypeAPI {
			// Client-side rejections do not improve on retry.
			return lastErr
		}
	}

	p.logger.Error("Language gateway call failed after retries",
		"endpoint", endpoint, "attempts", p.config.MaxRetries, "error", lastErr)
	return lastErr
}

func (p *HTTPProvider) doOnce(ctx context.Context, url, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return NewConnectionError(endpoint, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return NewConnectionError(endpoint, "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return NewConnectionError(endpoint, "failed to read response", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return NewConnectionError(endpoint,
			fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return NewAPIError(endpoint,
			fmt.Sprintf("gateway rejected request with status %d: %s", resp.StatusCode, truncate(string(data), 200)), nil)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return NewDecodeError(endpoint, "failed to decode response", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
