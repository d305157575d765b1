package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/service"
)

// SessionsHandlers holds the session query endpoints.
type SessionsHandlers struct {
	svc    *service.SessionsService
	orders *service.OrdersService
	logger *zap.Logger
}

// NewSessionsHandlers builds handler set.
func NewSessionsHandlers(svc *service.SessionsService, orders *service.OrdersService, logger *zap.Logger) *SessionsHandlers {
	return &SessionsHandlers{svc: svc, orders: orders, logger: logger}
}

// List handles GET /api/charging/sessions.
func (h *SessionsHandlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := service.ListFilter{
		PileID: q.Get("pile_id"),
		UserID: q.Get("user_id"),
		Status: models.SessionStatus(q.Get("status")),
		Limit:  intQuery(q.Get("limit")),
		Offset: intQuery(q.Get("offset")),
	}

	sessions, err := h.svc.ListSessions(r.Context(), filter)
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeList(w, sessions, len(sessions))
}

// Get handles GET /api/charging/sessions/{id}. A user_id query scopes
// visibility to the owner; sessions of other users read as missing.
func (h *SessionsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	session, err := h.svc.GetStatus(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("get session failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read session")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if userID := r.URL.Query().Get("user_id"); userID != "" && session.UserID != userID {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeData(w, http.StatusOK, session)
}

// Order handles GET /api/charging/sessions/{id}/order.
func (h *SessionsHandlers) Order(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	order, err := h.orders.GetOrder(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, order)
}

// Anomalies handles GET /api/charging/sessions/{id}/anomalies.
func (h *SessionsHandlers) Anomalies(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	limit := int64(intQuery(r.URL.Query().Get("limit")))

	reports, err := h.svc.AnomalyHistory(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("anomaly history failed", zap.String("session_id", sessionID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read anomaly history")
		return
	}
	writeList(w, reports, len(reports))
}

func intQuery(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
