package watch

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/providerpulse/providerpulse/internal/health"
)

const meterName = "github.com/providerpulse/providerpulse/internal/watch"

// metrics holds the watcher's OpenTelemetry instruments. A nil receiver
// records nothing.
type metrics struct {
	polls         metric.Int64Counter
	notifications metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	meter := otel.Meter(meterName)

	polls, err := meter.Int64Counter(
		"watcher.poll.total",
		metric.WithDescription("Total number of poll cycles"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter(
		"watcher.notification.total",
		metric.WithDescription("Total number of emitted notifications"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	return &metrics{
		polls:         polls,
		notifications: notifications,
	}, nil
}

func (m *metrics) recordPoll(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.polls.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

func (m *metrics) recordNotification(ctx context.Context, event health.Event) {
	if m == nil {
		return
	}
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("severity", string(event.Severity)),
		attribute.String("kind", string(event.Kind)),
	))
}
