package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/service"
)

// ChargingHandlers holds the session lifecycle endpoints.
type ChargingHandlers struct {
	svc    *service.SessionsService
	logger *zap.Logger
}

// NewChargingHandlers builds handler set.
func NewChargingHandlers(svc *service.SessionsService, logger *zap.Logger) *ChargingHandlers {
	return &ChargingHandlers{svc: svc, logger: logger}
}

type stopChargingRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Reason    string `json:"reason"`
}

type sessionActionRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type faultRequest struct {
	SessionID string `json:"session_id"`
	Detail    string `json:"detail"`
}

// Start handles POST /api/charging/start.
func (h *ChargingHandlers) Start(w http.ResponseWriter, r *http.Request) {
	var req service.StartSessionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == "" || req.PileID == "" {
		writeError(w, http.StatusBadRequest, "user_id and pile_id are required")
		return
	}

	session, err := h.svc.StartSession(r.Context(), req)
	if err != nil {
		h.logger.Warn("start charging failed",
			zap.String("user_id", req.UserID), zap.String("pile_id", req.PileID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, session)
}

// Stop handles POST /api/charging/stop.
func (h *ChargingHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	var req stopChargingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "session_id and user_id are required")
		return
	}

	result, err := h.svc.StopSession(r.Context(), req.SessionID, req.UserID, req.Reason)
	if err != nil {
		h.logger.Warn("stop charging failed",
			zap.String("session_id", req.SessionID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

// Pause handles POST /api/charging/pause.
func (h *ChargingHandlers) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "pause charging", h.svc.PauseSession)
}

// Resume handles POST /api/charging/resume.
func (h *ChargingHandlers) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "resume charging", h.svc.ResumeSession)
}

func (h *ChargingHandlers) transition(w http.ResponseWriter, r *http.Request, action string,
	do func(ctx context.Context, sessionID, userID string) (*models.ChargingSession, error)) {
	var req sessionActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "session_id and user_id are required")
		return
	}

	session, err := do(r.Context(), req.SessionID, req.UserID)
	if err != nil {
		h.logger.Warn(action+" failed",
			zap.String("session_id", req.SessionID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, session)
}

// Fault handles POST /api/charging/fault, the collaborator surface for
// unrecoverable pile errors.
func (h *ChargingHandlers) Fault(w http.ResponseWriter, r *http.Request) {
	var req faultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := h.svc.FaultSession(r.Context(), req.SessionID, req.Detail); err != nil {
		h.logger.Warn("fault session failed",
			zap.String("session_id", req.SessionID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"session_id": req.SessionID, "status": string(models.StatusFaulted)})
}
