// Package cmd holds Vigil's CLI subcommands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"vigil/bootstrap"
	"vigil/config"
	"vigil/notify"

	"github.com/spf13/cobra"
)

var notifyTimeout time.Duration

// NewNotifyCmd creates the notify command for smoke-testing notification
// channels from the shell without starting the server.
func NewNotifyCmd() *cobra.Command {
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Send test notifications",
		Long: `Send a test notification over a configured channel.

Reads the same config.yaml / VIGIL_ environment variables as the server,
so a successful test means the server would deliver over that channel too.`,
	}

	notifyCmd.PersistentFlags().DurationVar(&notifyTimeout, "timeout", 30*time.Second, "Send timeout")

	notifyCmd.AddCommand(newNotifyTestCmd("email", "Send a test email", "recipient address"))
	notifyCmd.AddCommand(newNotifyTestCmd("webhook", "Send a test webhook POST", "target URL"))

	return notifyCmd
}

func newNotifyTestCmd(channel, short, targetDesc string) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <%s>", channel, targetDesc),
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tester, err := buildTester()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), notifyTimeout)
			defer cancel()

			if err := tester.SendTest(ctx, channel, args[0]); err != nil {
				return fmt.Errorf("%s test failed: %w", channel, err)
			}
			fmt.Printf("%s test notification sent to %s\n", channel, args[0])
			return nil
		},
	}
}

func buildTester() (*notify.Tester, error) {
	_, sugar, err := bootstrap.InitLogger()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	senders := []notify.Sender{
		notify.NewEmailSender(cfg.SMTP, sugar),
		notify.NewWebhookSender(cfg.Webhook, sugar),
	}
	return notify.NewTester(senders, sugar), nil
}
