// Package handler provides HTTP handlers for the monitor API.
package handler

import (
	"net/http"
	"time"

	"github.com/providerpulse/providerpulse/internal/api/models"
	"github.com/providerpulse/providerpulse/internal/api/response"
	"github.com/providerpulse/providerpulse/internal/resilience"
	"github.com/providerpulse/providerpulse/internal/watch"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	startedAt time.Time
	watcher   *watch.Watcher
	store     *watch.StateStore
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(version, buildTime string, watcher *watch.Watcher, store *watch.StateStore, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		startedAt: time.Now(),
		watcher:   watcher,
		store:     store,
		registry:  registry,
	}
}

// HealthCheck handles GET /healthz - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /readyz - readiness check.
// Not ready until the state store answers and the watcher loop runs.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		response.ServiceUnavailable(w, r, "state store unreachable")
		return
	}

	if !h.watcher.Running() {
		response.ServiceUnavailable(w, r, "watcher is not running")
		return
	}

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /api/v1/status - watcher and upstream status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	ws := h.watcher.Status()

	watcherStatus := models.WatcherStatus{
		Running:         ws.Running,
		Seeded:          ws.Seeded,
		IntervalSeconds: int(ws.Interval / time.Second),
		CooldownSeconds: int(ws.Cooldown / time.Second),
		LastPollError:   ws.LastPollError,
		ProviderCount:   ws.ProviderCount,
		MutedCount:      ws.MutedCount,
	}
	if !ws.LastPollAt.IsZero() {
		at := models.Timestamp(ws.LastPollAt)
		watcherStatus.LastPollAt = &at
	}

	overall := models.HealthStatusOK
	if !ws.Running || ws.LastPollError != "" {
		overall = models.HealthStatusDegraded
	}

	upstreams := make([]models.UpstreamStatus, 0, h.registry.Count())
	for _, u := range h.registry.AllHealth() {
		status := models.HealthStatusOK
		switch {
		case u.Degraded():
			status = models.HealthStatusDegraded
		case !u.Healthy():
			status = models.HealthStatusFail
			overall = models.HealthStatusDegraded
		}

		us := models.UpstreamStatus{
			Name:         u.Name,
			Status:       status,
			CircuitState: u.CircuitState.String(),
			LastError:    u.LastError,
		}
		if u.LastSuccessAt != nil {
			at := models.Timestamp(*u.LastSuccessAt)
			us.LastSuccessAt = &at
		}
		if u.LastFailureAt != nil {
			at := models.Timestamp(*u.LastFailureAt)
			us.LastFailureAt = &at
		}
		upstreams = append(upstreams, us)
	}

	status := models.SystemStatus{
		Status:        overall,
		Time:          models.Timestamp(time.Now()),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startedAt) / time.Second),
		Watcher:       watcherStatus,
		Upstreams:     upstreams,
	}
	response.JSON(w, r, http.StatusOK, status)
}

// TriggerPoll handles POST /api/v1/poll - run one poll cycle now.
func (h *OpsHandler) TriggerPoll(w http.ResponseWriter, r *http.Request) {
	if err := h.watcher.PollNow(r.Context()); err != nil {
		response.ServiceUnavailable(w, r, "health source unreachable: "+err.Error())
		return
	}

	result := models.PollResult{
		Status:        "completed",
		ProviderCount: h.watcher.Status().ProviderCount,
		Time:          models.Timestamp(time.Now()),
	}
	response.JSON(w, r, http.StatusOK, result)
}
