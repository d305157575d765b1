package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/registry"
	"github.com/watchhill101/smartCharging-sub004/internal/service"
)

// ClientCounter reports how many realtime clients are connected.
type ClientCounter interface {
	ClientCount() int
}

// StatsHandlers holds the aggregate statistics endpoint.
type StatsHandlers struct {
	svc      *service.SessionsService
	registry *registry.Registry
	clients  ClientCounter
	logger   *zap.Logger
}

// NewStatsHandlers builds handler set.
func NewStatsHandlers(svc *service.SessionsService, reg *registry.Registry, clients ClientCounter, logger *zap.Logger) *StatsHandlers {
	return &StatsHandlers{svc: svc, registry: reg, clients: clients, logger: logger}
}

// Get handles GET /api/statistics.
func (h *StatsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		h.logger.Error("statistics failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to aggregate statistics")
		return
	}

	payload := map[string]interface{}{
		"active_sessions":    stats.ActiveSessions,
		"sessions_by_status": stats.SessionsByStatus,
		"total_energy_kwh":   stats.TotalEnergyKWh,
		"uptime_seconds":     stats.UptimeSeconds,
		"piles":              h.registry.CountByStatus(),
	}
	if h.clients != nil {
		payload["connected_clients"] = h.clients.ClientCount()
	}
	writeData(w, http.StatusOK, payload)
}
