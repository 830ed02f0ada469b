// Package notify holds the outbound channels the triage pipeline talks to:
// transactional mail to the customer and chat alerts to the operator.
package notify

import "context"

// EmailSender delivers one transactional email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// AlertSender pushes a short text to the operator channel.
type AlertSender interface {
	Push(ctx context.Context, text string) error
}
