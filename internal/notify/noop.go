package notify

import (
	"context"
	"log/slog"
)

// NoopNotifier logs the message and delivers nothing.
type NoopNotifier struct {
	log *slog.Logger
}

func NewNoopNotifier(log *slog.Logger) *NoopNotifier {
	return &NoopNotifier{log: log}
}

func (n *NoopNotifier) Send(ctx context.Context, msg Message) error {
	n.log.InfoContext(ctx, "Notification skipped", "op", "notify.Noop.Send", "to", msg.To, "subject", msg.Subject)
	return nil
}
