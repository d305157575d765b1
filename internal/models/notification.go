package models

import "time"

// NotificationPriority orders user-facing messages by urgency.
type NotificationPriority string

const (
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Delivery channels requiring out-of-band dispatch.
const (
	ChannelPush = "push"
	ChannelSMS  = "sms"
)

// Notification types.
const (
	NotificationStarted   = "charging_started"
	NotificationCompleted = "charging_completed"
	NotificationAnomaly   = "charging_anomaly"
)

// ChargingNotification is a fire-and-forget user message kept in a bounded history.
type ChargingNotification struct {
	NotificationID string               `json:"notification_id"`
	UserID         string               `json:"user_id"`
	SessionID      string               `json:"session_id,omitempty"`
	Type           string               `json:"type"`
	Title          string               `json:"title"`
	Message        string               `json:"message"`
	Priority       NotificationPriority `json:"priority"`
	Channels       []string             `json:"channels"`
	Sent           bool                 `json:"sent"`
	SentAt         *time.Time           `json:"sent_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}
