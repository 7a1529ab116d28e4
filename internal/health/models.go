// Package health defines the provider health domain: observed health
// records, the derived per-provider state, and the transition events
// that the watcher turns into notifications.
package health

import (
	"sort"
	"time"
)

// OfflineThreshold is the number of consecutive failures at or above
// which a provider is considered offline.
const OfflineThreshold = 3

// Severity indicates how a notification should be surfaced.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// State is the health state derived from a provider's failure count.
type State string

const (
	// StateHealthy means the last health check succeeded.
	StateHealthy State = "HEALTHY"

	// StateFlaky means recent checks failed but the provider is not yet
	// considered offline.
	StateFlaky State = "FLAKY"

	// StateOffline means the provider failed at least OfflineThreshold
	// checks in a row.
	StateOffline State = "OFFLINE"
)

// ProviderHealth is the most recently observed health of one named
// provider. Records are replaced wholesale each poll cycle, never
// partially mutated.
type ProviderHealth struct {
	// Name is the provider identifier (unique key).
	Name string `json:"providerName"`

	// ConsecutiveFailures counts sequential failed health checks since
	// the provider's last success.
	ConsecutiveFailures int `json:"consecutiveFailures"`

	// LastError is the most recent error message, if any.
	LastError string `json:"lastError,omitempty"`

	// LastCheckedAt is when the provider was last checked.
	LastCheckedAt time.Time `json:"lastCheckTime"`
}

// IsHealthy reports whether the provider is below the offline threshold.
func (p ProviderHealth) IsHealthy() bool {
	return p.ConsecutiveFailures < OfflineThreshold
}

// State derives the provider's state from its failure count.
func (p ProviderHealth) State() State {
	switch {
	case p.ConsecutiveFailures == 0:
		return StateHealthy
	case p.ConsecutiveFailures < OfflineThreshold:
		return StateFlaky
	default:
		return StateOffline
	}
}

// Snapshot is the full set of provider health records as of one poll
// cycle, keyed by provider name.
type Snapshot map[string]ProviderHealth

// NewSnapshot builds a snapshot from a list of records. If a name
// appears more than once the last record wins.
func NewSnapshot(records []ProviderHealth) Snapshot {
	snap := make(Snapshot, len(records))
	for _, rec := range records {
		snap[rec.Name] = rec
	}
	return snap
}

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for name, rec := range s {
		out[name] = rec
	}
	return out
}

// Names returns the provider names in the snapshot, sorted.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
