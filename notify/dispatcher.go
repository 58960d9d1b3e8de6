package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vigil/core"
	"vigil/metrics"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Dispatcher fans an alert out to every channel configured on its rule.
// All channel sends for one alert run concurrently, so dispatch latency is
// bounded by the slowest channel rather than the sum. The outcome is
// aggregate: every send must succeed for the dispatch to succeed; zero
// configured channels succeed trivially. No retries happen here.
type Dispatcher struct {
	senders []Sender
	logger  *zap.SugaredLogger
}

// NewDispatcher creates a dispatcher over the injected channel senders.
func NewDispatcher(senders []Sender, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{senders: senders, logger: logger}
}

// Dispatch sends the alert across all channels configured on the rule and
// returns the aggregated error, nil meaning every channel succeeded. A
// panicking sender is captured and treated as that channel's failure; it
// never crosses the dispatcher boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		result *multierror.Error
	)

	for _, sender := range d.senders {
		if !sender.Configured(rule) {
			continue
		}

		wg.Add(1)
		go func(sender Sender) {
			defer wg.Done()

			err := d.send(ctx, sender, alert, rule)
			if err != nil {
				metrics.NotificationsSent.WithLabelValues(sender.Kind(), "failure").Inc()
				d.logger.Errorw("Channel send failed",
					"alert_id", alert.ID,
					"rule_id", rule.ID,
					"channel", sender.Kind(),
					"error", err)
				mu.Lock()
				result = multierror.Append(result, &ChannelSendError{Channel: sender.Kind(), Err: err})
				mu.Unlock()
				return
			}

			metrics.NotificationsSent.WithLabelValues(sender.Kind(), "success").Inc()
		}(sender)
	}

	wg.Wait()
	return result.ErrorOrNil()
}

// send invokes one sender with panic recovery.
func (d *Dispatcher) send(ctx context.Context, sender Sender, alert *core.Alert, rule *core.Rule) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorw("Sender panicked",
				"channel", sender.Kind(),
				"alert_id", alert.ID,
				"panic", r)
			err = &ChannelSendError{Channel: sender.Kind(), Err: &panicError{value: r}}
		}
	}()
	return sender.Send(ctx, alert, rule)
}

// panicError carries a recovered panic value as an error.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("sender panic: %v", e.value)
}
