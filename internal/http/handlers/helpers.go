package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/watchhill101/smartCharging-sub004/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"success": true, "data": data})
}

func writeList(w http.ResponseWriter, data interface{}, total int) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data, "total": total})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": message})
}

// writeServiceError maps the engine's sentinel errors onto HTTP status
// codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPileUnavailable):
		writeError(w, http.StatusConflict, "pile is not available")
	case errors.Is(err, service.ErrUserHasActiveSession):
		writeError(w, http.StatusConflict, "user already has an active session")
	case errors.Is(err, service.ErrInvalidSessionStatus):
		writeError(w, http.StatusConflict, "session is not in a valid status for this operation")
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, service.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "session belongs to another user")
	case errors.Is(err, service.ErrSessionAlreadyEnded):
		writeError(w, http.StatusGone, "session has already ended")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
