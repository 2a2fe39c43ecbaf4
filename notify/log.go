package notify

import (
	"context"
	"log/slog"

	"github.com/JuanKhanjar/inbox/store"
)

// LogNotifier logs incoming messages instead of dispatching email.
// Useful as a default and in development environments.
type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that writes to l, or slog.Default()
// when l is nil.
func NewLogNotifier(l *slog.Logger) *LogNotifier {
	if l == nil {
		l = slog.Default()
	}
	return &LogNotifier{logger: l}
}

// Notify logs the message summary. Never fails.
func (n *LogNotifier) Notify(_ context.Context, msg store.Message) error {
	n.logger.Info("new message received",
		"id", msg.GetID(),
		"sender", msg.GetSenderEmail(),
		"subject", msg.GetSubject(),
	)
	return nil
}
