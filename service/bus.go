// Package service wires the rule engine, alert store, and notification
// dispatcher into the operations the API layer exposes: event submission,
// alert queries, and lifecycle transitions.
package service

import (
	"sync"

	"vigil/core"

	"go.uber.org/zap"
)

// AlertBus fans out newly created alerts to live subscribers (the websocket
// stream). Delivery is best-effort: a subscriber whose buffer is full misses
// the alert rather than blocking event processing.
type AlertBus struct {
	mu          sync.RWMutex
	subscribers map[chan *core.Alert]struct{}
	logger      *zap.SugaredLogger
}

// Buffer size per subscriber; a websocket writer that falls this far behind
// starts dropping.
const subscriberBuffer = 64

func NewAlertBus(logger *zap.SugaredLogger) *AlertBus {
	return &AlertBus{
		subscribers: make(map[chan *core.Alert]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe function. The channel is closed on unsubscribe.
func (b *AlertBus) Subscribe() (<-chan *core.Alert, func()) {
	ch := make(chan *core.Alert, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsubscribe
}

// Publish delivers the alert to every subscriber without blocking.
func (b *AlertBus) Publish(alert *core.Alert) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- alert:
		default:
			b.logger.Warnw("Alert stream subscriber too slow, dropping alert",
				"alert_id", alert.ID)
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (b *AlertBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
