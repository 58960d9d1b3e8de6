package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"vigil/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func webhookTestSetup(t *testing.T, config WebhookConfig) (*MockHTTPServer, *WebhookSender, *core.Rule) {
	t.Helper()

	server, err := NewMockHTTPServer()
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	sender := NewWebhookSender(config, zap.NewNop().Sugar())
	rule := &core.Rule{
		ID:     "rule-1",
		Name:   "Test rule",
		Notify: core.NotifyTargets{Webhook: server.URL() + "/hooks/vigil"},
	}
	return server, sender, rule
}

func TestWebhookSender_Send(t *testing.T) {
	server, sender, rule := webhookTestSetup(t, WebhookConfig{})

	alert := CreateTestAlert(core.SeverityCritical, "rule-1", "Test rule")
	err := sender.Send(context.Background(), alert, rule)
	require.NoError(t, err)

	requests := server.GetRequests()
	require.Len(t, requests, 1)

	req := requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/hooks/vigil", req.URL)
	assert.Equal(t, "application/json", req.Headers["Content-Type"])
	assert.Equal(t, "Vigil/1.0", req.Headers["User-Agent"])

	var payload core.Alert
	require.NoError(t, json.Unmarshal([]byte(req.Body), &payload))
	assert.Equal(t, alert.ID, payload.ID)
	assert.Equal(t, core.SeverityCritical, payload.Severity)
	assert.Equal(t, "login_failure", payload.Event.Type)
}

func TestWebhookSender_CustomHeaders(t *testing.T) {
	server, sender, rule := webhookTestSetup(t, WebhookConfig{
		Headers: map[string]string{"Authorization": "Bearer token123"},
	})

	err := sender.Send(context.Background(), CreateTestAlert(core.SeverityLow, "rule-1", "r"), rule)
	require.NoError(t, err)

	requests := server.GetRequests()
	require.Len(t, requests, 1)
	assert.Equal(t, "Bearer token123", requests[0].Headers["Authorization"])
}

func TestWebhookSender_Non2xxIsFailure(t *testing.T) {
	server, sender, rule := webhookTestSetup(t, WebhookConfig{})
	server.SetShouldFail(true, http.StatusBadGateway)

	err := sender.Send(context.Background(), CreateTestAlert(core.SeverityLow, "rule-1", "r"), rule)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookSender_Timeout(t *testing.T) {
	server, sender, rule := webhookTestSetup(t, WebhookConfig{Timeout: 100 * time.Millisecond})
	server.SetDelay(500 * time.Millisecond)

	err := sender.Send(context.Background(), CreateTestAlert(core.SeverityLow, "rule-1", "r"), rule)
	require.Error(t, err)
}

func TestWebhookSender_UnreachableTarget(t *testing.T) {
	sender := NewWebhookSender(WebhookConfig{Timeout: time.Second}, zap.NewNop().Sugar())
	rule := &core.Rule{
		ID:     "rule-1",
		Notify: core.NotifyTargets{Webhook: "http://127.0.0.1:1/unroutable"},
	}

	err := sender.Send(context.Background(), CreateTestAlert(core.SeverityLow, "rule-1", "r"), rule)
	require.Error(t, err)
}

func TestWebhookSender_Configured(t *testing.T) {
	sender := NewWebhookSender(WebhookConfig{}, zap.NewNop().Sugar())

	assert.False(t, sender.Configured(&core.Rule{}))
	assert.True(t, sender.Configured(&core.Rule{Notify: core.NotifyTargets{Webhook: "https://x"}}))
}
