// Package watch implements the health watcher: it polls a health
// source on a fixed interval, diffs consecutive snapshots, and turns
// provider state transitions into rate-limited notifications.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/providerpulse/providerpulse/internal/health"
	"github.com/providerpulse/providerpulse/internal/kvstore"
)

// StateKey is the key the watcher state is persisted under.
const StateKey = "notification_state"

// NotificationState is the watcher's durable state: the last observed
// snapshot, per-provider cooldown timestamps, and the mute set.
type NotificationState struct {
	// LastProviders is the most recent successfully fetched snapshot.
	LastProviders health.Snapshot `json:"lastProviders"`

	// LastNotificationTime records when each provider was last notified
	// about, for cooldown tracking.
	LastNotificationTime map[string]time.Time `json:"lastNotificationTime"`

	// MutedProviders is the set of providers whose transitions are
	// suppressed.
	MutedProviders map[string]bool `json:"mutedProviders"`
}

// NewNotificationState returns an empty state.
func NewNotificationState() *NotificationState {
	return &NotificationState{
		LastProviders:        make(health.Snapshot),
		LastNotificationTime: make(map[string]time.Time),
		MutedProviders:       make(map[string]bool),
	}
}

// normalize replaces maps a JSON decode may have left nil.
func (s *NotificationState) normalize() {
	if s.LastProviders == nil {
		s.LastProviders = make(health.Snapshot)
	}
	if s.LastNotificationTime == nil {
		s.LastNotificationTime = make(map[string]time.Time)
	}
	if s.MutedProviders == nil {
		s.MutedProviders = make(map[string]bool)
	}
}

// StateStore persists NotificationState in a key-value store under a
// fixed key.
type StateStore struct {
	kv  kvstore.Store
	key string
}

// NewStateStore creates a state store over kv.
func NewStateStore(kv kvstore.Store) *StateStore {
	return &StateStore{kv: kv, key: StateKey}
}

// Load reads the persisted state. Missing data yields a fresh empty
// state with no error; unreadable or corrupt data yields a fresh empty
// state together with the error, so the caller can log it and carry on.
func (s *StateStore) Load(ctx context.Context) (*NotificationState, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return NewNotificationState(), fmt.Errorf("reading state: %w", err)
	}
	if data == nil {
		return NewNotificationState(), nil
	}

	var state NotificationState
	if err := json.Unmarshal(data, &state); err != nil {
		return NewNotificationState(), fmt.Errorf("parsing state: %w", err)
	}

	state.normalize()
	return &state, nil
}

// Save writes the full state.
func (s *StateStore) Save(ctx context.Context, state *NotificationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	return nil
}

// Ping verifies the backing store is reachable. Used by the readiness
// endpoint.
func (s *StateStore) Ping(ctx context.Context) error {
	_, err := s.kv.Get(ctx, s.key)
	return err
}
