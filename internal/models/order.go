package models

import "time"

// PaymentStatus tracks order settlement progress.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// ChargingOrder is the financial projection of exactly one charging session.
type ChargingOrder struct {
	OrderID        string        `json:"order_id"`
	SessionID      string        `json:"session_id"`
	UserID         string        `json:"user_id"`
	PileID         string        `json:"pile_id"`
	EnergyCost     float64       `json:"energy_cost"`
	ServiceFee     float64       `json:"service_fee"`
	ParkingFee     float64       `json:"parking_fee"`
	DiscountAmount float64       `json:"discount_amount"`
	TotalCost      float64       `json:"total_cost"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	CreatedAt      time.Time     `json:"created_at"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
