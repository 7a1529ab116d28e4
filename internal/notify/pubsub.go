package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/health"
)

// PubSubConfig holds configuration for the Pub/Sub notifier.
type PubSubConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// PubSubNotifier publishes each event to a Pub/Sub topic so other
// systems (dashboards, on-call tooling) can consume transitions.
type PubSubNotifier struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// pubsubEvent is the published message payload.
type pubsubEvent struct {
	Provider   string    `json:"provider"`
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewPubSubNotifier creates a Pub/Sub-backed notifier.
func NewPubSubNotifier(ctx context.Context, cfg PubSubConfig) (*PubSubNotifier, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubNotifier{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// Notify publishes the event and waits for server acknowledgement.
func (n *PubSubNotifier) Notify(ctx context.Context, event health.Event) error {
	data, err := json.Marshal(pubsubEvent{
		Provider:   event.Provider,
		Kind:       string(event.Kind),
		Severity:   string(event.Severity),
		Message:    event.Message,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	result := n.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"provider": event.Provider,
			"severity": string(event.Severity),
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	n.logger.Debug().
		Str("message_id", id).
		Str("topic", n.topicName).
		Str("provider", event.Provider).
		Msg("event published")
	return nil
}

// Close flushes pending publishes and closes the client.
func (n *PubSubNotifier) Close() error {
	n.publisher.Stop()
	return n.client.Close()
}

// Ensure PubSubNotifier implements Notifier.
var _ Notifier = (*PubSubNotifier)(nil)
