package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/providerpulse/providerpulse/internal/health"
)

// DefaultHistoryCapacity is the number of notifications retained when
// no capacity is configured.
const DefaultHistoryCapacity = 100

// HistoryEntry is one recorded notification.
type HistoryEntry struct {
	ID         string           `json:"id"`
	Provider   string           `json:"provider"`
	Kind       health.EventKind `json:"kind"`
	Severity   health.Severity  `json:"severity"`
	Message    string           `json:"message"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// History is an in-memory ring of the most recently emitted
// notifications. It implements Notifier so it can sit in the fan-out
// next to the external sinks, and it feeds the notifications API.
type History struct {
	mu       sync.RWMutex
	entries  []HistoryEntry
	capacity int
}

// NewHistory creates a history retaining up to capacity entries. A
// non-positive capacity uses DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		entries:  make([]HistoryEntry, 0, capacity),
		capacity: capacity,
	}
}

// Notify records the event, evicting the oldest entry when full.
func (h *History) Notify(_ context.Context, event health.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := HistoryEntry{
		ID:         uuid.New().String(),
		Provider:   event.Provider,
		Kind:       event.Kind,
		Severity:   event.Severity,
		Message:    event.Message,
		OccurredAt: time.Now().UTC(),
	}

	if len(h.entries) == h.capacity {
		copy(h.entries, h.entries[1:])
		h.entries[len(h.entries)-1] = entry
		return nil
	}

	h.entries = append(h.entries, entry)
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive
// limit returns all retained entries.
func (h *History) Recent(limit int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}

	out := make([]HistoryEntry, 0, limit)
	for i := len(h.entries) - 1; i >= len(h.entries)-limit; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Ensure History implements Notifier.
var _ Notifier = (*History)(nil)
