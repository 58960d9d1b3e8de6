package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"vigil/core"

	"go.uber.org/zap"
)

// EmailConfig holds SMTP transport configuration for email notifications.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// EmailSender sends alert notifications over SMTP. Recipients come from the
// rule's notification targets; transport settings come from configuration.
type EmailSender struct {
	config EmailConfig
	logger *zap.SugaredLogger
}

// NewEmailSender creates an email sender.
func NewEmailSender(config EmailConfig, logger *zap.SugaredLogger) *EmailSender {
	return &EmailSender{config: config, logger: logger}
}

// Kind identifies the channel.
func (s *EmailSender) Kind() string {
	return "email"
}

// Configured reports whether the rule has email recipients.
func (s *EmailSender) Configured(rule *core.Rule) bool {
	return len(rule.Notify.Email) > 0
}

// Send delivers the alert to all of the rule's email recipients as a single
// message. CRAM-MD5 auth is tried first, with a PLAIN fallback for servers
// that do not offer it.
func (s *EmailSender) Send(ctx context.Context, alert *core.Alert, rule *core.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	to := rule.Notify.Email
	if len(to) == 0 {
		return fmt.Errorf("no recipients configured for rule %s", rule.ID)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", Subject(alert))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(FormatAlertBody(alert))

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var err error
	if s.config.Username == "" {
		// Unauthenticated relay (local or test server).
		err = smtp.SendMail(addr, nil, s.config.From, to, []byte(msg.String()))
	} else {
		auth := smtp.CRAMMD5Auth(s.config.Username, s.config.Password)
		err = smtp.SendMail(addr, auth, s.config.From, to, []byte(msg.String()))
		if err != nil {
			plain := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
			err = smtp.SendMail(addr, plain, s.config.From, to, []byte(msg.String()))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}

	s.logger.Infow("Sent email notification",
		"alert_id", alert.ID,
		"recipients", len(to))
	return nil
}
