package health_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/providerpulse/providerpulse/internal/health"
)

func TestProviderHealth_State(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		state    health.State
		healthy  bool
	}{
		{name: "zero failures is healthy", failures: 0, state: health.StateHealthy, healthy: true},
		{name: "one failure is flaky", failures: 1, state: health.StateFlaky, healthy: true},
		{name: "two failures is flaky", failures: 2, state: health.StateFlaky, healthy: true},
		{name: "threshold is offline", failures: 3, state: health.StateOffline, healthy: false},
		{name: "beyond threshold is offline", failures: 7, state: health.StateOffline, healthy: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := health.ProviderHealth{Name: "ollama", ConsecutiveFailures: tt.failures}
			assert.Equal(t, tt.state, rec.State())
			assert.Equal(t, tt.healthy, rec.IsHealthy())
		})
	}
}

func TestNewSnapshot(t *testing.T) {
	now := time.Now()
	records := []health.ProviderHealth{
		{Name: "ollama", ConsecutiveFailures: 0, LastCheckedAt: now},
		{Name: "replicate", ConsecutiveFailures: 4, LastError: "connection refused", LastCheckedAt: now},
	}

	snap := health.NewSnapshot(records)
	require.Len(t, snap, 2)
	assert.Equal(t, 0, snap["ollama"].ConsecutiveFailures)
	assert.Equal(t, 4, snap["replicate"].ConsecutiveFailures)
	assert.Equal(t, "connection refused", snap["replicate"].LastError)
}

func TestNewSnapshot_DuplicateNamesLastWins(t *testing.T) {
	snap := health.NewSnapshot([]health.ProviderHealth{
		{Name: "ollama", ConsecutiveFailures: 1},
		{Name: "ollama", ConsecutiveFailures: 5},
	})

	require.Len(t, snap, 1)
	assert.Equal(t, 5, snap["ollama"].ConsecutiveFailures)
}

func TestSnapshot_Clone(t *testing.T) {
	orig := health.NewSnapshot([]health.ProviderHealth{
		{Name: "ollama", ConsecutiveFailures: 2},
	})

	clone := orig.Clone()
	clone["ollama"] = health.ProviderHealth{Name: "ollama", ConsecutiveFailures: 9}

	assert.Equal(t, 2, orig["ollama"].ConsecutiveFailures, "clone must not share storage")
	assert.Nil(t, health.Snapshot(nil).Clone())
}

func TestSnapshot_Names(t *testing.T) {
	snap := health.NewSnapshot([]health.ProviderHealth{
		{Name: "replicate"},
		{Name: "anthropic"},
		{Name: "ollama"},
	})

	assert.Equal(t, []string{"anthropic", "ollama", "replicate"}, snap.Names())
}
