package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/repository"
)

// HistoryHandlers serves archived sessions. Wired only when the durable
// archive is configured.
type HistoryHandlers struct {
	archive *repository.ArchiveRepository
	logger  *zap.Logger
}

// NewHistoryHandlers builds handler set.
func NewHistoryHandlers(archive *repository.ArchiveRepository, logger *zap.Logger) *HistoryHandlers {
	return &HistoryHandlers{archive: archive, logger: logger}
}

// List handles GET /api/charging/history.
func (h *HistoryHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	sessions, err := h.archive.ListByUser(r.Context(), userID, intQuery(r.URL.Query().Get("limit")))
	if err != nil {
		h.logger.Error("history lookup failed", zap.String("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read charging history")
		return
	}
	writeList(w, sessions, len(sessions))
}
