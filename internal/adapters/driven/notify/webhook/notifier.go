// Package webhook delivers sync notifications to an operator webhook,
// e.g. a Slack-compatible incoming webhook endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/backworkai/vectorsync/internal/core/ports/driven"
)

// Ensure Notifier implements the interface.
var _ driven.Notifier = (*Notifier)(nil)

// DefaultTimeout is the per-request timeout. Notifications are
// best-effort, so this stays short.
const DefaultTimeout = 10 * time.Second

// Config holds configuration for the webhook notifier.
type Config struct {
	// URL is the webhook endpoint (required).
	URL string

	// Timeout is the request timeout (default: 10s).
	Timeout time.Duration
}

// Notifier posts JSON notification payloads to a webhook URL.
type Notifier struct {
	client *http.Client
	url    string
}

// payload is the webhook request body.
type payload struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// NewNotifier creates a new webhook notifier.
func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook: URL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Notifier{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    cfg.URL,
	}, nil
}

// Notify sends a message with the given severity.
func (n *Notifier) Notify(ctx context.Context, message string, severity driven.Severity) error {
	jsonBody, err := json.Marshal(payload{
		Message:  message,
		Severity: string(severity),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
