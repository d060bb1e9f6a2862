package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// WebhookAlert posts operational alerts to a chat webhook. Alerts are
// best-effort side output: a failed post is logged and swallowed so it
// can never block or fail a scan.
type WebhookAlert struct {
	url    string
	http   *http.Client
	logger zerolog.Logger
}

// NewWebhookAlert creates an alert channel. An empty URL disables
// posting entirely.
func NewWebhookAlert(url string, logger zerolog.Logger) *WebhookAlert {
	return &WebhookAlert{
		url:    url,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Post sends one message. Always returns nil.
func (w *WebhookAlert) Post(ctx context.Context, message string) error {
	if w.url == "" {
		return nil
	}

	payload, _ := json.Marshal(map[string]string{"text": message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		w.logger.Warn().Err(err).Msg("alert webhook request build failed")
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		w.logger.Warn().Err(err).Msg("alert webhook post failed")
		return nil
	}
	drain(resp)
	if resp.StatusCode >= 300 {
		w.logger.Warn().Int("status", resp.StatusCode).Msg("alert webhook rejected post")
	}
	return nil
}
