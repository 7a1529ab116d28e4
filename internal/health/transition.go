package health

import "fmt"

// EventKind identifies the transition that produced a notification.
type EventKind string

const (
	KindRecovered EventKind = "recovered"
	KindOffline   EventKind = "offline"
	KindDegraded  EventKind = "degraded"
)

// Event is a single health-transition notification.
type Event struct {
	// Provider is the name of the provider that transitioned.
	Provider string

	// Kind is the transition that fired.
	Kind EventKind

	// Severity is how the notification should be surfaced.
	Severity Severity

	// Message is the user-facing notification text.
	Message string
}

// Classify compares two observations of the same provider and returns
// the notification event for the transition between them, if any.
//
// The rules are evaluated in order and the first match wins:
//
//	recovered: was offline, now below the threshold
//	offline:   was below the threshold, now offline
//	degraded:  had zero failures, now failing but not yet offline
//
// Everything else is silent, including a provider accumulating further
// failures while already degraded (1 -> 2) or already offline.
func Classify(prev, curr ProviderHealth) (Event, bool) {
	switch {
	case prev.ConsecutiveFailures >= OfflineThreshold && curr.ConsecutiveFailures < OfflineThreshold:
		return Event{
			Provider: curr.Name,
			Kind:     KindRecovered,
			Severity: SeveritySuccess,
			Message:  fmt.Sprintf("Provider Recovered: %s", curr.Name),
		}, true

	case prev.ConsecutiveFailures < OfflineThreshold && curr.ConsecutiveFailures >= OfflineThreshold:
		msg := fmt.Sprintf("Provider Offline: %s", curr.Name)
		if curr.LastError != "" {
			msg += " - " + curr.LastError
		}
		return Event{
			Provider: curr.Name,
			Kind:     KindOffline,
			Severity: SeverityError,
			Message:  msg,
		}, true

	case prev.ConsecutiveFailures == 0 && curr.ConsecutiveFailures > 0 && curr.ConsecutiveFailures < OfflineThreshold:
		return Event{
			Provider: curr.Name,
			Kind:     KindDegraded,
			Severity: SeverityError,
			Message:  fmt.Sprintf("Provider Degraded: %s - %d consecutive failures", curr.Name, curr.ConsecutiveFailures),
		}, true
	}

	return Event{}, false
}
