package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/health"
	"github.com/providerpulse/providerpulse/internal/resilience"
)

// WebhookConfig holds configuration for the webhook notifier.
type WebhookConfig struct {
	// URL is the endpoint notifications are posted to.
	URL string

	// AuthToken, if set, is sent as a bearer token.
	AuthToken string

	// HTTPClient is the resilient HTTP client to use. If nil, a default
	// client named "webhook" is created.
	HTTPClient *resilience.Client

	// Logger for delivery diagnostics.
	Logger zerolog.Logger
}

// WebhookNotifier posts each event as JSON to an HTTP endpoint. The
// payload carries the message under "text", so a Slack incoming webhook
// works unmodified; richer consumers can read the extra fields.
type WebhookNotifier struct {
	url        string
	authToken  string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

type webhookPayload struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
}

// NewWebhookNotifier creates a webhook-backed notifier.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = resilience.NewClient(resilience.DefaultClientConfig("webhook"))
	}

	return &WebhookNotifier{
		url:        cfg.URL,
		authToken:  cfg.AuthToken,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
}

// Notify posts the event to the configured endpoint.
func (n *WebhookNotifier) Notify(ctx context.Context, event health.Event) error {
	payload := webhookPayload{
		Text:     event.Message,
		Provider: event.Provider,
		Kind:     string(event.Kind),
		Severity: string(event.Severity),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.authToken)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug().
		Str("provider", event.Provider).
		Str("kind", string(event.Kind)).
		Msg("webhook notification delivered")
	return nil
}

// Ensure WebhookNotifier implements Notifier.
var _ Notifier = (*WebhookNotifier)(nil)
