package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
)

func TestCreateOrderOpensPendingOrder(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, nil)

	order, err := env.orders.GetOrder(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !strings.HasPrefix(order.OrderID, "order_") {
		t.Fatalf("unexpected order id: %s", order.OrderID)
	}
	if order.SessionID != sess.SessionID || order.UserID != sess.UserID || order.PileID != sess.PileID {
		t.Fatalf("order does not reference its session: %+v", order)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Fatalf("new order should be pending, got %s", order.PaymentStatus)
	}
	if order.TotalCost != 0 || order.PaidAt != nil {
		t.Fatalf("new order must be unpriced: %+v", order)
	}
}

func TestGetOrderUnknownSession(t *testing.T) {
	env := newTestEnv(t, Config{})

	if _, err := env.orders.GetOrder(context.Background(), "session_nope"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestCompleteOrderRejectsActiveSession(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)

	sess := seedChargingSession(t, env, nil)

	if _, err := env.orders.CompleteOrder(context.Background(), sess.SessionID); !errors.Is(err, ErrInvalidSessionStatus) {
		t.Fatalf("expected ErrInvalidSessionStatus, got %v", err)
	}
}

func TestCompleteOrderMissingSession(t *testing.T) {
	env := newTestEnv(t, Config{})

	if _, err := env.orders.CompleteOrder(context.Background(), "session_nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCompleteOrderSettlesOnce(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.Status = models.StatusCompleted
		s.StopReason = models.ReasonRemote
		s.EnergyDelivered = 22.5
		s.Cost = 33.75
		s.Duration = 5400
	})
	env.discounts.set(1.0, nil)

	order, err := env.orders.CompleteOrder(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("complete order: %v", err)
	}
	if order.EnergyCost != 33.75 || order.ServiceFee != 1.6875 || order.ParkingFee != 1.0 {
		t.Fatalf("unexpected breakdown: %+v", order)
	}
	if order.DiscountAmount != 1.0 || order.TotalCost != 35.4375 {
		t.Fatalf("discount not applied: %+v", order)
	}
	if order.PaymentStatus != models.PaymentPaid || order.PaidAt == nil {
		t.Fatalf("order not marked paid: %+v", order)
	}

	// A second settlement returns the stored order untouched even if the
	// discount service would now answer differently.
	env.discounts.set(5.0, nil)
	again, err := env.orders.CompleteOrder(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if again.DiscountAmount != 1.0 || again.TotalCost != 35.4375 {
		t.Fatalf("settlement was not idempotent: %+v", again)
	}
	if !again.PaidAt.Equal(*order.PaidAt) {
		t.Fatalf("paid timestamp changed on resettle: %v vs %v", again.PaidAt, order.PaidAt)
	}
}

func TestCompleteOrderSurvivesDiscountFailure(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.Status = models.StatusCompleted
		s.StopReason = models.ReasonRemote
		s.EnergyDelivered = 22.5
		s.Duration = 5400
	})
	env.discounts.set(0, errors.New("coupon service down"))

	order, err := env.orders.CompleteOrder(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("complete order: %v", err)
	}
	if order.DiscountAmount != 0 || order.TotalCost != 36.4375 {
		t.Fatalf("discount failure should settle without discount: %+v", order)
	}
}

func TestCompleteOrderNotifiesUser(t *testing.T) {
	env := newTestEnv(t, Config{})
	stubIDs(t)
	ctx := context.Background()

	sess := seedChargingSession(t, env, func(s *models.ChargingSession) {
		s.Status = models.StatusCompleted
		s.StopReason = models.ReasonRemote
		s.EnergyDelivered = 22.5
		s.Duration = 5400
	})

	if _, err := env.orders.CompleteOrder(ctx, sess.SessionID); err != nil {
		t.Fatalf("complete order: %v", err)
	}

	history, err := env.notifier.History(ctx, sess.UserID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) == 0 {
		t.Fatal("settlement should notify the user")
	}
	if history[0].Type != models.NotificationCompleted {
		t.Fatalf("expected completion notification, got %s", history[0].Type)
	}
}
