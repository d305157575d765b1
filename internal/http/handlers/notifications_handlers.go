package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/service"
)

// NotificationsHandlers holds the notification history endpoint.
type NotificationsHandlers struct {
	notifier *service.NotificationsService
	logger   *zap.Logger
}

// NewNotificationsHandlers builds handler set.
func NewNotificationsHandlers(notifier *service.NotificationsService, logger *zap.Logger) *NotificationsHandlers {
	return &NotificationsHandlers{notifier: notifier, logger: logger}
}

// List handles GET /api/notifications.
func (h *NotificationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	limit := int64(intQuery(r.URL.Query().Get("limit")))

	notifications, err := h.notifier.History(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("notification history failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read notifications")
		return
	}
	writeList(w, notifications, len(notifications))
}
