package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/storage"
)

const sessionKeyPrefix = "charging:session:"

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func userActiveKey(userID string) string {
	return fmt.Sprintf("charging:user_active:%s", userID)
}

func orderKey(sessionID string) string {
	return fmt.Sprintf("charging:order:%s", sessionID)
}

func anomalyListKey(sessionID string) string {
	return fmt.Sprintf("charging:anomalies:%s", sessionID)
}

func notificationListKey(userID string) string {
	return fmt.Sprintf("charging:notifications:%s", userID)
}

func readSession(ctx context.Context, store storage.Store, sessionID string) (*models.ChargingSession, error) {
	raw, err := store.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	var sess models.ChargingSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &sess, nil
}

func writeSession(ctx context.Context, store storage.Store, sess *models.ChargingSession, ttl time.Duration) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.SessionID, err)
	}
	if err := store.SetWithTTL(ctx, sessionKey(sess.SessionID), raw, ttl); err != nil {
		return fmt.Errorf("store session %s: %w", sess.SessionID, err)
	}
	return nil
}

func readOrder(ctx context.Context, store storage.Store, sessionID string) (*models.ChargingOrder, error) {
	raw, err := store.Get(ctx, orderKey(sessionID))
	if err != nil {
		return nil, err
	}
	var order models.ChargingOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("decode order for session %s: %w", sessionID, err)
	}
	return &order, nil
}

func writeOrder(ctx context.Context, store storage.Store, order *models.ChargingOrder, ttl time.Duration) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encode order %s: %w", order.OrderID, err)
	}
	if err := store.SetWithTTL(ctx, orderKey(order.SessionID), raw, ttl); err != nil {
		return fmt.Errorf("store order %s: %w", order.OrderID, err)
	}
	return nil
}
