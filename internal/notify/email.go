package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/teplocom/support-triage/internal/config"
)

// SMTPMailer sends plain-text replies over SMTP. When mail credentials are
// absent it degrades to logging the would-be message, so local runs work
// without a mailbox.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPMailer constructs the mailer.
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if !cfg.Enabled() {
		logger.Warn("smtp not configured; outbound mail disabled")
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers one message. The exchange runs under the context plus the
// configured SMTP deadline, whichever expires first; a stalled server fails
// the send instead of blocking the caller.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.cfg.Enabled() {
		m.logger.Info("mail suppressed (smtp disabled)",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout())
	defer cancel()

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	done := make(chan error, 1)
	go func() {
		// gomail carries no deadline support; the goroutine is abandoned on
		// timeout and exits once the connection attempt resolves.
		done <- dialer.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp exchange with %s: %w", m.cfg.Host, ctx.Err())
	case err := <-done:
		if err != nil {
			return err
		}
	}
	m.logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
