package models

// ProviderSummary is one provider in the snapshot listing.
type ProviderSummary struct {
	Name                string     `json:"name"`
	State               string     `json:"state"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastError           string     `json:"lastError,omitempty"`
	LastCheckedAt       *Timestamp `json:"lastCheckedAt,omitempty"`
	Muted               bool       `json:"muted"`
}

// ProvidersResponse is the body of GET /api/v1/providers.
type ProvidersResponse struct {
	Providers []ProviderSummary `json:"providers"`
	Count     int               `json:"count"`
	Time      Timestamp         `json:"time"`
}

// NotificationSummary is one entry in the notification history listing.
type NotificationSummary struct {
	ID         string    `json:"id"`
	Provider   string    `json:"provider"`
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	OccurredAt Timestamp `json:"occurredAt"`
}

// NotificationsResponse is the body of GET /api/v1/notifications.
type NotificationsResponse struct {
	Notifications []NotificationSummary `json:"notifications"`
	Count         int                   `json:"count"`
}

// PollResult is the body of POST /api/v1/poll.
type PollResult struct {
	Status        string    `json:"status"`
	ProviderCount int       `json:"providerCount"`
	Time          Timestamp `json:"time"`
}
