// Package notify implements notification delivery for the Vigil alert
// engine: channel senders behind a common contract and a dispatcher that
// fans an alert out to every channel configured on its rule.
package notify

import (
	"context"
	"fmt"

	"vigil/core"
)

// Sender delivers an alert to one notification channel kind. Implementations
// own transport specifics (SMTP, HTTP) and any per-send timeout; the
// dispatcher only iterates configured channels. Retry policy, if any, also
// belongs to the implementation.
type Sender interface {
	// Kind identifies the channel ("email", "webhook", future kinds).
	Kind() string
	// Configured reports whether the rule carries targets for this channel.
	Configured(rule *core.Rule) bool
	// Send delivers the alert to the rule's targets for this channel.
	Send(ctx context.Context, alert *core.Alert, rule *core.Rule) error
}

// ChannelSendError wraps a single channel's delivery failure. It is captured
// by the dispatcher and recorded on the alert, never re-raised through the
// alert lifecycle.
type ChannelSendError struct {
	Channel string
	Err     error
}

// Error implements the error interface.
func (e *ChannelSendError) Error() string {
	return fmt.Sprintf("%s send failed: %v", e.Channel, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ChannelSendError) Unwrap() error {
	return e.Err
}
