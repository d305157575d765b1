package service

// Billing constants applied when an order is settled.
const (
	serviceFeeRate     = 0.05
	freeParkingSeconds = 3600
	parkingRatePerHour = 2.0
)

// BillingBreakdown itemizes the final cost of a charging session.
type BillingBreakdown struct {
	EnergyCost     float64 `json:"energy_cost"`
	ServiceFee     float64 `json:"service_fee"`
	ParkingFee     float64 `json:"parking_fee"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalCost      float64 `json:"total_cost"`
}

// CalculateBilling prices a finished session. The first hour of parking
// is free; time beyond it is billed pro rata at a flat hourly rate. The
// total never drops below zero, whatever the discount.
func CalculateBilling(energyKWh, pricePerKwh float64, durationSeconds int64, discount float64) BillingBreakdown {
	if discount < 0 {
		discount = 0
	}
	energyCost := energyKWh * pricePerKwh
	serviceFee := energyCost * serviceFeeRate

	var parkingFee float64
	if durationSeconds > freeParkingSeconds {
		parkingFee = float64(durationSeconds-freeParkingSeconds) / 3600 * parkingRatePerHour
	}

	total := energyCost + serviceFee + parkingFee - discount
	if total < 0 {
		total = 0
	}
	return BillingBreakdown{
		EnergyCost:     energyCost,
		ServiceFee:     serviceFee,
		ParkingFee:     parkingFee,
		DiscountAmount: discount,
		TotalCost:      total,
	}
}
