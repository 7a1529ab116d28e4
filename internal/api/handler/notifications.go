package handler

import (
	"net/http"
	"strconv"

	"github.com/providerpulse/providerpulse/internal/api/models"
	"github.com/providerpulse/providerpulse/internal/api/response"
	"github.com/providerpulse/providerpulse/internal/notify"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationHandler handles notification history endpoints.
type NotificationHandler struct {
	history *notify.History
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(history *notify.History) *NotificationHandler {
	return &NotificationHandler{history: history}
}

// ListNotifications handles GET /api/v1/notifications - recent
// notifications, newest first.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := defaultNotificationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, r, "invalid query parameter", []models.FieldError{
				{Field: "limit", Message: "must be a positive integer"},
			})
			return
		}
		limit = parsed
		if limit > maxNotificationLimit {
			limit = maxNotificationLimit
		}
	}

	entries := h.history.Recent(limit)

	notifications := make([]models.NotificationSummary, 0, len(entries))
	for _, entry := range entries {
		notifications = append(notifications, models.NotificationSummary{
			ID:         entry.ID,
			Provider:   entry.Provider,
			Kind:       string(entry.Kind),
			Severity:   string(entry.Severity),
			Message:    entry.Message,
			OccurredAt: models.Timestamp(entry.OccurredAt),
		})
	}

	response.JSON(w, r, http.StatusOK, models.NotificationsResponse{
		Notifications: notifications,
		Count:         len(notifications),
	})
}
