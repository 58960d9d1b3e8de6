package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vigil/core"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamAlerts(t *testing.T) {
	h := newTestServer(t)

	ts := httptest.NewServer(h.server.Handler())
	defer ts.Close()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/alerts/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the subscription a moment to register before publishing.
	require.Eventually(t, func() bool {
		return h.server.bus.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	id := h.submitMatchingEvent(t)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var alert core.Alert
	require.NoError(t, conn.ReadJSON(&alert))
	assert.Equal(t, id, alert.ID)
	assert.Equal(t, core.AlertStatusPending, alert.Status)
}

func TestStreamAlerts_ClientDisconnectUnsubscribes(t *testing.T) {
	h := newTestServer(t)

	ts := httptest.NewServer(h.server.Handler())
	defer ts.Close()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/alerts/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.server.bus.SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return h.server.bus.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
