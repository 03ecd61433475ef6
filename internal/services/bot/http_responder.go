// File: internal/services/bot/http_responder.go
package bot

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

type processMessageRequest struct {
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
	UserID  string `json:"user_id"`
}

type processMessageResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Response string `json:"response,omitempty"`
}

// HTTPResponder delegates reply generation to an external bot service
// speaking the /bot/process-message contract.
type HTTPResponder struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger
}

func NewHTTPResponder(baseURL string, timeout time.Duration, logger Logger) (*HTTPResponder, error) {
	if baseURL == "" {
		return nil, NewConfigError("new_responder", "bot service URL is required", nil)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPResponder{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

func (r *HTTPResponder) Reply(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(processMessageRequest{
		ChatID:  req.ThreadID,
		Content: req.Content,
		UserID:  req.UserID,
	})
	if err != nil {
		return "", NewAPIError("process_message", "failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/bot/process-message", bytes.NewReader(body))
	if err != nil {
		return "", NewConnectionError("process_message", "failed to build request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", NewConnectionError("process_message", "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", NewConnectionError("process_message", "failed to read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", NewAPIError("process_message",
			fmt.Sprintf("bot service returned status %d", resp.StatusCode), nil)
	}

	var parsed processMessageResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", NewAPIError("process_message", "failed to decode response", err)
	}
	if parsed.Status != "success" {
		return "", NewAPIError("process_message",
			fmt.Sprintf("bot service reported status %q: %s", parsed.Status, parsed.Message), nil)
	}
	if parsed.Response == "" {
		return "", NewAPIError("process_message", "bot service returned empty reply", nil)
	}
	return parsed.Response, nil
}
