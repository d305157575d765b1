package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/registry"
)

// PilesHandlers holds the pile query and heartbeat endpoints.
type PilesHandlers struct {
	registry *registry.Registry
	logger   *zap.Logger
}

// NewPilesHandlers builds handler set.
func NewPilesHandlers(reg *registry.Registry, logger *zap.Logger) *PilesHandlers {
	return &PilesHandlers{registry: reg, logger: logger}
}

// List handles GET /api/piles.
func (h *PilesHandlers) List(w http.ResponseWriter, r *http.Request) {
	var piles []models.Pile
	if stationID := r.URL.Query().Get("station_id"); stationID != "" {
		piles = h.registry.ListByStation(stationID)
	} else {
		piles = h.registry.List()
	}
	writeList(w, piles, len(piles))
}

// Get handles GET /api/piles/{id}.
func (h *PilesHandlers) Get(w http.ResponseWriter, r *http.Request) {
	pile, err := h.registry.PileInfo(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "pile not found")
		return
	}
	writeData(w, http.StatusOK, pile)
}

// Heartbeat handles POST /api/piles/{id}/heartbeat.
func (h *PilesHandlers) Heartbeat(w http.ResponseWriter, r *http.Request) {
	pileID := r.PathValue("id")
	pile, err := h.registry.Heartbeat(pileID)
	if err != nil {
		if errors.Is(err, registry.ErrPileNotFound) {
			writeError(w, http.StatusNotFound, "pile not found")
			return
		}
		h.logger.Error("heartbeat failed", zap.String("pile_id", pileID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "heartbeat failed")
		return
	}
	writeData(w, http.StatusOK, pile)
}
