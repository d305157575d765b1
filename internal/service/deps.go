package service

import (
	"context"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
)

// PileRegistry is the view of the pile fleet the session engine needs.
type PileRegistry interface {
	PileInfo(id string) (models.Pile, error)
	SetStatus(id string, status models.PileStatus) error
}

// Broadcaster fans session updates and notifications out to connected
// realtime clients.
type Broadcaster interface {
	BroadcastSessionUpdate(update models.SessionUpdate)
	NotifyUser(userID string, msg models.ClientMessage)
	NotifySession(sessionID string, msg models.ClientMessage)
}

// EventPublisher emits lifecycle events to the message bus.
type EventPublisher interface {
	PublishSessionEvent(event models.SessionEvent) error
}

// DiscountProvider resolves the discount applied when an order is
// settled.
type DiscountProvider interface {
	ComputeDiscount(ctx context.Context, userID, sessionID string, amount float64) (float64, error)
}

// DeliverySender pushes notifications through out-of-band channels.
type DeliverySender interface {
	Deliver(ctx context.Context, n *models.ChargingNotification) error
}

// SessionArchive keeps a durable record of ended sessions. order is nil
// for faulted sessions that were never billed.
type SessionArchive interface {
	Insert(ctx context.Context, session *models.ChargingSession, order *models.ChargingOrder) error
}
