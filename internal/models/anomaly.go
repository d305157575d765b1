package models

import "time"

// AnomalySeverity grades a single finding.
type AnomalySeverity string

const (
	SeverityMedium   AnomalySeverity = "medium"
	SeverityHigh     AnomalySeverity = "high"
	SeverityCritical AnomalySeverity = "critical"
)

// RiskLevel is the aggregate classification of one detection pass.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskWarning  RiskLevel = "warning"
	RiskDanger   RiskLevel = "danger"
	RiskCritical RiskLevel = "critical"
)

// Anomaly finding types.
const (
	AnomalyLowPower        = "low_power"
	AnomalyHighTemperature = "high_temperature"
	AnomalyAbnormalVoltage = "abnormal_voltage"
	AnomalyOvercurrent     = "overcurrent"
)

// Anomaly is a single threshold violation observed in one detection pass.
type Anomaly struct {
	Type      string          `json:"type"`
	Severity  AnomalySeverity `json:"severity"`
	Message   string          `json:"message"`
	Value     float64         `json:"value"`
	Threshold float64         `json:"threshold"`
	Timestamp time.Time       `json:"timestamp"`
}

// AnomalyReport is a point-in-time risk assessment of one session's readings.
type AnomalyReport struct {
	SessionID           string    `json:"session_id"`
	Anomalies           []Anomaly `json:"anomalies"`
	RiskLevel           RiskLevel `json:"risk_level"`
	AutoStopRecommended bool      `json:"auto_stop_recommended"`
	DetectedAt          time.Time `json:"detected_at"`
}
