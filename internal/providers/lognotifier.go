package providers

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes notifications to the log instead of sending mail.
// Used when no SMTP relay is configured, which pairs naturally with dry
// run: the operator sees what would have been sent.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs the notification and reports success.
func (n *LogNotifier) Send(_ context.Context, to, subject, _ string) error {
	n.logger.Info().Str("to", to).Str("subject", subject).Msg("notification (smtp not configured)")
	return nil
}
