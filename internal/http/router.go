package httpserver

import (
	"net/http"

	"github.com/watchhill101/smartCharging-sub004/internal/http/handlers"
)

// RouterDeps collects handler dependencies. History, WS and Metrics are
// optional; their routes are registered only when set.
type RouterDeps struct {
	Charging      *handlers.ChargingHandlers
	Sessions      *handlers.SessionsHandlers
	Piles         *handlers.PilesHandlers
	Notifications *handlers.NotificationsHandlers
	Stats         *handlers.StatsHandlers
	History       *handlers.HistoryHandlers
	WS            http.HandlerFunc
	Metrics       http.Handler
	Health        http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", deps.Health)

	mux.HandleFunc("GET /api/piles", deps.Piles.List)
	mux.HandleFunc("GET /api/piles/{id}", deps.Piles.Get)
	mux.HandleFunc("POST /api/piles/{id}/heartbeat", deps.Piles.Heartbeat)

	mux.HandleFunc("POST /api/charging/start", deps.Charging.Start)
	mux.HandleFunc("POST /api/charging/stop", deps.Charging.Stop)
	mux.HandleFunc("POST /api/charging/pause", deps.Charging.Pause)
	mux.HandleFunc("POST /api/charging/resume", deps.Charging.Resume)
	mux.HandleFunc("POST /api/charging/fault", deps.Charging.Fault)

	mux.HandleFunc("GET /api/charging/sessions", deps.Sessions.List)
	mux.HandleFunc("GET /api/charging/sessions/{id}", deps.Sessions.Get)
	mux.HandleFunc("GET /api/charging/sessions/{id}/order", deps.Sessions.Order)
	mux.HandleFunc("GET /api/charging/sessions/{id}/anomalies", deps.Sessions.Anomalies)

	mux.HandleFunc("GET /api/notifications", deps.Notifications.List)
	mux.HandleFunc("GET /api/statistics", deps.Stats.Get)

	if deps.History != nil {
		mux.HandleFunc("GET /api/charging/history", deps.History.List)
	}
	if deps.WS != nil {
		mux.HandleFunc("GET /ws/client", deps.WS)
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	return mux
}
