package models

// Health represents the health status of the service.
type Health struct {
	Status  HealthStatus           `json:"status"`
	Time    Timestamp              `json:"time"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemStatus represents the overall system status.
type SystemStatus struct {
	Status        HealthStatus     `json:"status"`
	Time          Timestamp        `json:"time"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptimeSeconds"`
	Watcher       WatcherStatus    `json:"watcher"`
	Upstreams     []UpstreamStatus `json:"upstreams"`
}

// WatcherStatus describes the polling loop.
type WatcherStatus struct {
	Running         bool       `json:"running"`
	Seeded          bool       `json:"seeded"`
	IntervalSeconds int        `json:"intervalSeconds"`
	CooldownSeconds int        `json:"cooldownSeconds"`
	LastPollAt      *Timestamp `json:"lastPollAt,omitempty"`
	LastPollError   string     `json:"lastPollError,omitempty"`
	ProviderCount   int        `json:"providerCount"`
	MutedCount      int        `json:"mutedCount"`
}

// UpstreamStatus describes one outbound dependency (circuit state and
// last outcomes).
type UpstreamStatus struct {
	Name          string       `json:"name"`
	Status        HealthStatus `json:"status"`
	CircuitState  string       `json:"circuitState"`
	LastSuccessAt *Timestamp   `json:"lastSuccessAt,omitempty"`
	LastFailureAt *Timestamp   `json:"lastFailureAt,omitempty"`
	LastError     string       `json:"lastError,omitempty"`
}
