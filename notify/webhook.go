package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vigil/core"

	"go.uber.org/zap"
)

// DefaultWebhookTimeout bounds a single webhook delivery. The dispatch
// contract carries no timeout of its own; bounding lives here.
const DefaultWebhookTimeout = 10 * time.Second

// WebhookConfig holds HTTP transport configuration for webhook notifications.
type WebhookConfig struct {
	Timeout time.Duration     `mapstructure:"timeout"`
	Headers map[string]string `mapstructure:"headers"`
}

// WebhookSender sends alert notifications as HTTP POST requests carrying the
// alert as a JSON payload. The target URL comes from the rule.
type WebhookSender struct {
	config WebhookConfig
	client *http.Client
	logger *zap.SugaredLogger
}

// NewWebhookSender creates a webhook sender with a bounded HTTP client.
func NewWebhookSender(config WebhookConfig, logger *zap.SugaredLogger) *WebhookSender {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
	return &WebhookSender{config: config, client: client, logger: logger}
}

// Kind identifies the channel.
func (s *WebhookSender) Kind() string {
	return "webhook"
}

// Configured reports whether the rule has a webhook URL.
func (s *WebhookSender) Configured(rule *core.Rule) bool {
	return rule.Notify.Webhook != ""
}

// Send POSTs the alert to the rule's webhook URL. Any non-2xx status is a
// delivery failure.
func (s *WebhookSender) Send(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rule.Notify.Webhook, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Vigil/1.0")
	for key, value := range s.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Debugf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
	}

	s.logger.Infow("Sent webhook notification", "alert_id", alert.ID)
	return nil
}
