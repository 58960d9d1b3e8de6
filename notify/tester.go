package notify

import (
	"context"
	"fmt"

	"vigil/core"

	"go.uber.org/zap"
)

// Tester sends a probe notification over a single named channel so
// operators can verify channel settings independently of the rule set.
type Tester struct {
	senders map[string]Sender
	logger  *zap.SugaredLogger
}

func NewTester(senders []Sender, logger *zap.SugaredLogger) *Tester {
	byKind := make(map[string]Sender, len(senders))
	for _, sender := range senders {
		byKind[sender.Kind()] = sender
	}
	return &Tester{senders: byKind, logger: logger}
}

// SendTest sends a synthetic low-severity alert to the given target over
// the named channel. The target is an email address for the email channel
// and a URL for the webhook channel.
func (t *Tester) SendTest(ctx context.Context, channel, target string) error {
	sender, ok := t.senders[channel]
	if !ok {
		return fmt.Errorf("unknown notification channel %q", channel)
	}

	rule := &core.Rule{
		ID:       "test",
		Name:     "Test Notification",
		Severity: core.SeverityLow,
	}
	switch channel {
	case "email":
		rule.Notify.Email = []string{target}
	case "webhook":
		rule.Notify.Webhook = target
	}

	alert := core.NewAlert(rule, core.NewEvent("notification_test",
		map[string]any{"message": "This is a test notification from Vigil"}, "vigil", "normal"))

	if !sender.Configured(rule) {
		return fmt.Errorf("invalid target %q for channel %q", target, channel)
	}

	t.logger.Infow("Sending test notification", "channel", channel, "target", target)
	return sender.Send(ctx, alert, rule)
}
