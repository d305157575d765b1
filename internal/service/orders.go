package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/storage"
)

// OrdersService manages the order each charging session settles
// against. Every session owns exactly one order, keyed by session id.
type OrdersService struct {
	store     storage.Store
	discounts DiscountProvider
	notifier  *NotificationsService
	ttl       time.Duration
	logger    *zap.Logger
	clock     clockz.Clock
}

// NewOrdersService creates an OrdersService. discounts may be nil when
// no coupon integration is configured.
func NewOrdersService(store storage.Store, discounts DiscountProvider, notifier *NotificationsService, ttl time.Duration, logger *zap.Logger, clock clockz.Clock) *OrdersService {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &OrdersService{
		store:     store,
		discounts: discounts,
		notifier:  notifier,
		ttl:       ttl,
		logger:    logger,
		clock:     clock,
	}
}

// CreateOrder opens the pending order for a freshly started session.
func (s *OrdersService) CreateOrder(ctx context.Context, session *models.ChargingSession) (*models.ChargingOrder, error) {
	now := s.clock.Now().UTC()
	order := &models.ChargingOrder{
		OrderID:       newOrderID(),
		SessionID:     session.SessionID,
		UserID:        session.UserID,
		PileID:        session.PileID,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := writeOrder(ctx, s.store, order, s.ttl); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder returns the order belonging to a session.
func (s *OrdersService) GetOrder(ctx context.Context, sessionID string) (*models.ChargingOrder, error) {
	order, err := readOrder(ctx, s.store, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// CompleteOrder settles the order of an ended session: it prices the
// delivered energy, applies the discount and marks the order paid.
// Settling an already paid order returns it unchanged.
func (s *OrdersService) CompleteOrder(ctx context.Context, sessionID string) (*models.ChargingOrder, error) {
	session, err := readSession(ctx, s.store, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.Status.Terminal() {
		return nil, ErrInvalidSessionStatus
	}

	order, err := s.GetOrder(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == models.PaymentPaid {
		return order, nil
	}

	var discount float64
	if s.discounts != nil {
		amount := session.EnergyDelivered * session.PricePerKwh
		discount, err = s.discounts.ComputeDiscount(ctx, session.UserID, sessionID, amount)
		if err != nil {
			s.logger.Warn("discount lookup failed, settling without discount",
				zap.String("session_id", sessionID), zap.Error(err))
			discount = 0
		}
	}

	bill := CalculateBilling(session.EnergyDelivered, session.PricePerKwh, session.Duration, discount)

	now := s.clock.Now().UTC()
	order.EnergyCost = bill.EnergyCost
	order.ServiceFee = bill.ServiceFee
	order.ParkingFee = bill.ParkingFee
	order.DiscountAmount = bill.DiscountAmount
	order.TotalCost = bill.TotalCost
	order.PaymentStatus = models.PaymentPaid
	order.PaidAt = &now
	order.UpdatedAt = now
	if err := writeOrder(ctx, s.store, order, s.ttl); err != nil {
		return nil, err
	}

	s.notifier.Send(ctx, SendInput{
		UserID:    session.UserID,
		SessionID: sessionID,
		Type:      models.NotificationCompleted,
		Title:     "充电完成",
		Message:   fmt.Sprintf("本次充电 %.2f 度，费用 %.2f 元", session.EnergyDelivered, order.TotalCost),
		Priority:  models.PriorityNormal,
		Channels:  []string{models.ChannelPush},
	})

	s.logger.Info("order settled",
		zap.String("order_id", order.OrderID),
		zap.String("session_id", sessionID),
		zap.Float64("total_cost", order.TotalCost))
	return order, nil
}
