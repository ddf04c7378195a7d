// Package mail provides the SMTP-backed notification sink used to deliver
// one-time codes, plus a logging sink for environments without SMTP.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/campushub/identity-service/internal/core/port"
	"github.com/campushub/identity-service/internal/infra/config"
	"github.com/campushub/identity-service/internal/infra/logger"
)

// Mailer delivers messages over SMTP using go-mail.
type Mailer struct {
	cfg config.SMTPSettings
}

// NewMailer validates the SMTP settings and returns a mailer.
func NewMailer(cfg config.SMTPSettings) (*Mailer, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from address is required")
	}
	return &Mailer{cfg: cfg}, nil
}

// Send delivers a plain-text message to the recipient.
func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if m.cfg.FromName != "" {
		if err := msg.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return fmt.Errorf("set from address: %w", err)
		}
	} else {
		if err := msg.From(m.cfg.From); err != nil {
			return fmt.Errorf("set from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("set to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
	}

	if m.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if m.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	return nil
}

// LoggingNotifier records deliveries without sending anything. Used in
// development when SMTP is not configured.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier constructs a notifier backed by structured logging.
func NewLoggingNotifier(log *zap.Logger) port.Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingNotifier{logger: log}
}

// Send logs the delivery with the recipient masked.
func (n *LoggingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.logger.Info("notification delivered to log sink",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}
