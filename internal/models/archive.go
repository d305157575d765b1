package models

import "time"

// ArchivedSession is one row of the durable session archive. Sessions
// land here on their terminal transition and outlive the store TTL.
type ArchivedSession struct {
	SessionID  string     `db:"session_id" json:"session_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	PileID     string     `db:"pile_id" json:"pile_id"`
	StationID  string     `db:"station_id" json:"station_id"`
	Status     string     `db:"status" json:"status"`
	StopReason string     `db:"stop_reason" json:"stop_reason,omitempty"`
	EnergyKWh  float64    `db:"energy_kwh" json:"energy_kwh"`
	Duration   int64      `db:"duration_seconds" json:"duration"`
	StartTime  time.Time  `db:"start_time" json:"start_time"`
	EndTime    *time.Time `db:"end_time" json:"end_time,omitempty"`
	OrderID    string     `db:"order_id" json:"order_id,omitempty"`
	TotalCost  *float64   `db:"total_cost" json:"total_cost,omitempty"`
	ArchivedAt time.Time  `db:"archived_at" json:"archived_at"`
}
