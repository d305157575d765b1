package models

import "time"

// SessionStatus is the lifecycle state of a charging session.
type SessionStatus string

const (
	StatusPreparing SessionStatus = "preparing"
	StatusCharging  SessionStatus = "charging"
	StatusSuspended SessionStatus = "suspended"
	StatusFinishing SessionStatus = "finishing"
	StatusCompleted SessionStatus = "completed"
	StatusFaulted   SessionStatus = "faulted"
)

// Terminal reports whether the status permits no further mutation.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFaulted
}

// Stop reasons recorded when a session ends.
const (
	ReasonLocal         = "local"
	ReasonRemote        = "remote"
	ReasonTargetReached = "target_reached"
	ReasonEnergyLimit   = "energy_limit"
	ReasonCostLimit     = "cost_limit"
	ReasonAnomalyStop   = "anomaly_auto_stop"
	ReasonFault         = "fault"
)

// ChargingSession is the central entity owned by the lifecycle engine.
type ChargingSession struct {
	SessionID   string        `json:"session_id"`
	UserID      string        `json:"user_id"`
	PileID      string        `json:"pile_id"`
	PileName    string        `json:"pile_name"`
	StationID   string        `json:"station_id"`
	StationName string        `json:"station_name"`
	Status      SessionStatus `json:"status"`

	TargetSoc       float64 `json:"target_soc,omitempty"`
	MaxEnergy       float64 `json:"max_energy,omitempty"`
	MaxCost         float64 `json:"max_cost,omitempty"`
	BatteryCapacity float64 `json:"battery_capacity,omitempty"`
	InitialSoc      float64 `json:"initial_soc,omitempty"`

	CurrentPower    float64 `json:"current_power"`
	EnergyDelivered float64 `json:"energy_delivered"`
	Voltage         float64 `json:"voltage"`
	Current         float64 `json:"current"`
	Temperature     float64 `json:"temperature"`
	Cost            float64 `json:"cost"`
	Duration        int64   `json:"duration"`

	MaxPower    float64 `json:"max_power"`
	PricePerKwh float64 `json:"price_per_kwh"`

	StopReason string     `json:"stop_reason,omitempty"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// EstimatedSoc returns the state of charge implied by delivered energy, or
// false when the session carries no vehicle profile.
func (s *ChargingSession) EstimatedSoc() (float64, bool) {
	if s.BatteryCapacity <= 0 {
		return 0, false
	}
	soc := s.InitialSoc + s.EnergyDelivered/s.BatteryCapacity*100
	if soc > 100 {
		soc = 100
	}
	return soc, true
}
