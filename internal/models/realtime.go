package models

import "time"

// Session update kinds sent over the realtime transport.
const (
	UpdateTelemetry = "telemetry_update"
	UpdateStatus    = "status_change"
)

// SessionUpdate is the snapshot broadcast after telemetry and lifecycle writes.
type SessionUpdate struct {
	Type            string        `json:"type"`
	SessionID       string        `json:"session_id"`
	UserID          string        `json:"user_id"`
	PileID          string        `json:"pile_id"`
	Status          SessionStatus `json:"status"`
	CurrentPower    float64       `json:"current_power"`
	EnergyDelivered float64       `json:"energy_delivered"`
	Voltage         float64       `json:"voltage"`
	Current         float64       `json:"current"`
	Temperature     float64       `json:"temperature"`
	Cost            float64       `json:"cost"`
	Duration        int64         `json:"duration"`
	Timestamp       time.Time     `json:"timestamp"`
}

// ClientMessage is an envelope pushed to websocket clients.
type ClientMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// SessionEvent is published to the event bus on lifecycle transitions and
// anomaly escalations.
type SessionEvent struct {
	Event           string        `json:"event"`
	SessionID       string        `json:"session_id"`
	UserID          string        `json:"user_id"`
	PileID          string        `json:"pile_id"`
	Status          SessionStatus `json:"status"`
	Reason          string        `json:"reason,omitempty"`
	RiskLevel       RiskLevel     `json:"risk_level,omitempty"`
	EnergyDelivered float64       `json:"energy_delivered,omitempty"`
	TotalCost       float64       `json:"total_cost,omitempty"`
	Timestamp       time.Time     `json:"timestamp"`
}
