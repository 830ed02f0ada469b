package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/teplocom/support-triage/internal/mailbox"
)

// StartMailboxWorker runs the inbox poller in the background.
func StartMailboxWorker(ctx context.Context, poller *mailbox.Poller, logger *zap.Logger) {
	if poller == nil {
		logger.Info("mailbox polling disabled")
		return
	}
	go poller.Run(ctx)
}
