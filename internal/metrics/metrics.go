// Package metrics exposes Prometheus instrumentation for the charging
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks sessions currently in a non-terminal state.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "charging_active_sessions",
		Help: "Number of charging sessions currently active.",
	})

	// EnergyDeliveredTotal accumulates energy delivered by completed
	// sessions, in kWh.
	EnergyDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "charging_energy_delivered_kwh_total",
		Help: "Total energy delivered across completed sessions in kWh.",
	})

	// TelemetryTicks counts simulator ticks by outcome.
	TelemetryTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charging_telemetry_ticks_total",
		Help: "Telemetry simulator ticks by result.",
	}, []string{"result"})

	// AnomaliesDetected counts recorded anomaly reports by risk level.
	AnomaliesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charging_anomalies_total",
		Help: "Anomaly reports recorded by risk level.",
	}, []string{"risk_level"})

	// NotificationsSent counts dispatched notifications by type.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "charging_notifications_total",
		Help: "Notifications dispatched by type.",
	}, []string{"type"})
)
