package notify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"vigil/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRule() *core.Rule {
	return &core.Rule{
		ID:       "rule-1",
		Name:     "Test rule",
		Severity: core.SeverityHigh,
		Notify: core.NotifyTargets{
			Email:   []string{"ops@example.com"},
			Webhook: "https://example.com/hook",
		},
	}
}

func TestDispatcher_AllChannelsSucceed(t *testing.T) {
	var sent int32
	senders := []Sender{
		&FuncSender{ChannelKind: "email", SendFn: func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
			atomic.AddInt32(&sent, 1)
			return nil
		}},
		&FuncSender{ChannelKind: "webhook", SendFn: func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
			atomic.AddInt32(&sent, 1)
			return nil
		}},
	}

	d := NewDispatcher(senders, zap.NewNop().Sugar())
	alert := CreateTestAlert(core.SeverityHigh, "rule-1", "Test rule")

	err := d.Dispatch(context.Background(), alert, testRule())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&sent))
}

func TestDispatcher_OneChannelFails(t *testing.T) {
	senders := []Sender{
		&FuncSender{ChannelKind: "email"},
		&FuncSender{ChannelKind: "webhook", SendFn: func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
			return errors.New("connection refused")
		}},
	}

	d := NewDispatcher(senders, zap.NewNop().Sugar())
	alert := CreateTestAlert(core.SeverityHigh, "rule-1", "Test rule")

	err := d.Dispatch(context.Background(), alert, testRule())
	require.Error(t, err)

	var channelErr *ChannelSendError
	require.True(t, errors.As(err, &channelErr))
	assert.Equal(t, "webhook", channelErr.Channel)
}

func TestDispatcher_AllChannelsFail(t *testing.T) {
	failing := func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
		return errors.New("boom")
	}
	senders := []Sender{
		&FuncSender{ChannelKind: "email", SendFn: failing},
		&FuncSender{ChannelKind: "webhook", SendFn: failing},
	}

	d := NewDispatcher(senders, zap.NewNop().Sugar())
	alert := CreateTestAlert(core.SeverityCritical, "rule-1", "Test rule")

	err := d.Dispatch(context.Background(), alert, testRule())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "webhook")
}

func TestDispatcher_NoConfiguredChannels(t *testing.T) {
	senders := []Sender{
		&FuncSender{
			ChannelKind:  "email",
			ConfiguredFn: func(rule *core.Rule) bool { return false },
			SendFn: func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
				t.Error("Send must not be called for an unconfigured channel")
				return nil
			},
		},
	}

	d := NewDispatcher(senders, zap.NewNop().Sugar())
	alert := CreateTestAlert(core.SeverityLow, "rule-1", "Test rule")

	err := d.Dispatch(context.Background(), alert, &core.Rule{ID: "rule-1", Name: "no targets"})
	require.NoError(t, err)
}

func TestDispatcher_SenderPanicIsChannelFailure(t *testing.T) {
	senders := []Sender{
		&FuncSender{ChannelKind: "email"},
		&FuncSender{ChannelKind: "webhook", SendFn: func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
			panic("template blew up")
		}},
	}

	d := NewDispatcher(senders, zap.NewNop().Sugar())
	alert := CreateTestAlert(core.SeverityHigh, "rule-1", "Test rule")

	err := d.Dispatch(context.Background(), alert, testRule())
	require.Error(t, err)

	var channelErr *ChannelSendError
	require.True(t, errors.As(err, &channelErr))
	assert.Equal(t, "webhook", channelErr.Channel)
	assert.Contains(t, err.Error(), "template blew up")
}

func TestDispatcher_ChannelsRunConcurrently(t *testing.T) {
	const delay = 150 * time.Millisecond

	slow := func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
		time.Sleep(delay)
		return nil
	}
	senders := []Sender{
		&FuncSender{ChannelKind: "a", SendFn: slow},
		&FuncSender{ChannelKind: "b", SendFn: slow},
		&FuncSender{ChannelKind: "c", SendFn: slow},
	}

	d := NewDispatcher(senders, zap.NewNop().Sugar())
	alert := CreateTestAlert(core.SeverityHigh, "rule-1", "Test rule")

	start := time.Now()
	err := d.Dispatch(context.Background(), alert, testRule())
	elapsed := time.Since(start)

	require.NoError(t, err)
	// Sequential sends would take 3x the delay.
	assert.Less(t, elapsed, 2*delay, "dispatch took %v, channels appear serialized", elapsed)
	assert.GreaterOrEqual(t, elapsed, delay)
}

func TestDispatcher_ManyAlertsRandomizedLatency(t *testing.T) {
	var failures int32
	senders := []Sender{
		&FuncSender{ChannelKind: "email", SendFn: func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
			time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
			return nil
		}},
		&FuncSender{ChannelKind: "webhook", SendFn: func(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
			time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
			if rand.Intn(4) == 0 {
				atomic.AddInt32(&failures, 1)
				return errors.New("flaky")
			}
			return nil
		}},
	}

	d := NewDispatcher(senders, zap.NewNop().Sugar())
	rule := testRule()

	var gotErrors int32
	for i := 0; i < 100; i++ {
		alert := CreateTestAlert(core.SeverityMedium, rule.ID, fmt.Sprintf("alert %d", i))
		if err := d.Dispatch(context.Background(), alert, rule); err != nil {
			atomic.AddInt32(&gotErrors, 1)
		}
	}

	// Every flaky failure must surface as a failed dispatch, and only those.
	assert.Equal(t, atomic.LoadInt32(&failures), atomic.LoadInt32(&gotErrors))
}
