// Package notify delivers health-transition events to their sinks:
// logs, webhooks, Pub/Sub, an in-memory history, or a plain callback
// registered by the host.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/health"
)

// Notifier delivers a single health-transition event.
type Notifier interface {
	Notify(ctx context.Context, event health.Event) error
}

// Func adapts a plain (message, severity) callback to the Notifier
// interface. This is the shape hosts typically register to surface
// notifications as toasts or log lines.
type Func func(message string, severity health.Severity)

// Notify calls f with the event's message and severity.
func (f Func) Notify(_ context.Context, event health.Event) error {
	f(event.Message, event.Severity)
	return nil
}

// Nop is a Notifier that discards every event.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, health.Event) error {
	return nil
}

// Multi fans an event out to every listener. A listener that returns an
// error or panics is logged and does not prevent delivery to the
// others.
type Multi struct {
	listeners []Notifier
	logger    zerolog.Logger
}

// NewMulti creates a fan-out notifier over the given listeners.
func NewMulti(logger zerolog.Logger, listeners ...Notifier) *Multi {
	return &Multi{
		listeners: listeners,
		logger:    logger,
	}
}

// Notify delivers the event to every listener. It always returns nil;
// delivery failures are logged, not propagated, so one broken sink
// cannot abort a poll cycle.
func (m *Multi) Notify(ctx context.Context, event health.Event) error {
	for i, listener := range m.listeners {
		m.deliver(ctx, i, listener, event)
	}
	return nil
}

func (m *Multi) deliver(ctx context.Context, index int, listener Notifier, event health.Event) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Int("listener", index).
				Interface("panic", r).
				Str("provider", event.Provider).
				Msg("notification listener panicked")
		}
	}()

	if err := listener.Notify(ctx, event); err != nil {
		m.logger.Error().
			Err(err).
			Int("listener", index).
			Str("provider", event.Provider).
			Msg("notification delivery failed")
	}
}

// Ensure the adapters implement Notifier.
var (
	_ Notifier = (Func)(nil)
	_ Notifier = Nop{}
	_ Notifier = (*Multi)(nil)
)
