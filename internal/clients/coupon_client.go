package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// CouponClient asks the coupon service for the discount to apply to an
// order. An empty base URL disables the integration and every lookup
// returns a zero discount.
type CouponClient struct {
	base *BaseClient
}

// NewCouponClient builds a CouponClient. baseURL may be empty.
func NewCouponClient(baseURL string, client HTTPDoer, logger *zap.Logger) *CouponClient {
	c := &CouponClient{}
	if baseURL != "" {
		c.base = NewBaseClient("coupon-service", baseURL, client, logger)
	}
	return c
}

type discountRequest struct {
	UserID    string  `json:"user_id"`
	SessionID string  `json:"session_id"`
	Amount    float64 `json:"amount"`
}

type discountResponse struct {
	Discount float64 `json:"discount"`
}

// ComputeDiscount returns the discount for an order of the given
// amount.
func (c *CouponClient) ComputeDiscount(ctx context.Context, userID, sessionID string, amount float64) (float64, error) {
	if c.base == nil {
		return 0, nil
	}
	payload, err := json.Marshal(discountRequest{UserID: userID, SessionID: sessionID, Amount: amount})
	if err != nil {
		return 0, err
	}
	status, body, err := c.base.Do(ctx, http.MethodPost, "/api/discounts/compute", payload, nil)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("coupon service returned %d", status)
	}
	var resp discountResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode coupon response: %w", err)
	}
	return resp.Discount, nil
}
