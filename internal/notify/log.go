package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/health"
)

// LogNotifier writes notifications to the service log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event, at error level for error severity and info
// level otherwise.
func (n *LogNotifier) Notify(_ context.Context, event health.Event) error {
	evt := n.logger.Info()
	if event.Severity == health.SeverityError {
		evt = n.logger.Error()
	}

	evt.
		Str("provider", event.Provider).
		Str("kind", string(event.Kind)).
		Str("severity", string(event.Severity)).
		Msg(event.Message)
	return nil
}

// Ensure LogNotifier implements Notifier.
var _ Notifier = (*LogNotifier)(nil)
