package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/providerpulse/providerpulse/internal/api/models"
	"github.com/providerpulse/providerpulse/internal/api/response"
	"github.com/providerpulse/providerpulse/internal/watch"
)

// ProviderHandler handles provider snapshot and mute endpoints.
type ProviderHandler struct {
	watcher *watch.Watcher
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(watcher *watch.Watcher) *ProviderHandler {
	return &ProviderHandler{watcher: watcher}
}

// ListProviders handles GET /api/v1/providers - last observed snapshot.
func (h *ProviderHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	snapshot := h.watcher.Snapshot()

	providers := make([]models.ProviderSummary, 0, len(snapshot))
	for _, name := range snapshot.Names() {
		rec := snapshot[name]
		summary := models.ProviderSummary{
			Name:                rec.Name,
			State:               string(rec.State()),
			ConsecutiveFailures: rec.ConsecutiveFailures,
			LastError:           rec.LastError,
			Muted:               h.watcher.IsProviderMuted(rec.Name),
		}
		if !rec.LastCheckedAt.IsZero() {
			at := models.Timestamp(rec.LastCheckedAt)
			summary.LastCheckedAt = &at
		}
		providers = append(providers, summary)
	}

	response.JSON(w, r, http.StatusOK, models.ProvidersResponse{
		Providers: providers,
		Count:     len(providers),
		Time:      models.Timestamp(time.Now()),
	})
}

// MuteProvider handles POST /api/v1/providers/{name}/mute.
// Muting accepts any name so an operator can pre-mute a provider that
// has not been observed yet.
func (h *ProviderHandler) MuteProvider(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, r, "provider name is required", nil)
		return
	}

	// The mute is active in memory even if persistence fails, and the
	// state is rewritten every poll cycle, so a failed save self-heals.
	_ = h.watcher.MuteProvider(r.Context(), name)

	response.NoContent(w, r)
}

// UnmuteProvider handles DELETE /api/v1/providers/{name}/mute.
func (h *ProviderHandler) UnmuteProvider(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		response.BadRequest(w, r, "provider name is required", nil)
		return
	}

	if !h.watcher.IsProviderMuted(name) {
		response.NotFound(w, r, "provider is not muted")
		return
	}

	_ = h.watcher.UnmuteProvider(r.Context(), name)

	response.NoContent(w, r)
}
