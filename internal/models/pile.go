package models

import "time"

// PileStatus is the availability state of a charging pile.
type PileStatus string

const (
	PileAvailable PileStatus = "available"
	PileOccupied  PileStatus = "occupied"
	PileOffline   PileStatus = "offline"
)

// Pile describes a charging pile known to the registry.
type Pile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	StationID     string     `json:"station_id"`
	StationName   string     `json:"station_name"`
	MaxPowerKW    float64    `json:"max_power_kw"`
	PricePerKwh   float64    `json:"price_per_kwh"`
	Status        PileStatus `json:"status"`
	LastHeartbeat time.Time  `json:"last_heartbeat"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
