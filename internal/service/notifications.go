package service

import (
	"context"
	"encoding/json"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/metrics"
	"github.com/watchhill101/smartCharging-sub004/internal/models"
	"github.com/watchhill101/smartCharging-sub004/internal/storage"
)

// NotificationsService records user notifications in a bounded history
// and fans them out to realtime clients and the delivery gateway.
type NotificationsService struct {
	store        storage.Store
	broadcast    Broadcaster
	delivery     DeliverySender
	historyLimit int64
	logger       *zap.Logger
	clock        clockz.Clock
}

// NewNotificationsService creates a NotificationsService.
func NewNotificationsService(store storage.Store, broadcast Broadcaster, delivery DeliverySender, historyLimit int64, logger *zap.Logger, clock clockz.Clock) *NotificationsService {
	if clock == nil {
		clock = clockz.RealClock
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &NotificationsService{
		store:        store,
		broadcast:    broadcast,
		delivery:     delivery,
		historyLimit: historyLimit,
		logger:       logger,
		clock:        clock,
	}
}

// SendInput describes one notification to dispatch.
type SendInput struct {
	UserID    string
	SessionID string
	Type      string
	Title     string
	Message   string
	Priority  models.NotificationPriority
	Channels  []string
}

// Send dispatches the notification and appends it to the user's
// history. Dispatch failures are logged, not returned; the stored
// history entry is the source of truth.
func (s *NotificationsService) Send(ctx context.Context, in SendInput) *models.ChargingNotification {
	now := s.clock.Now().UTC()
	n := &models.ChargingNotification{
		NotificationID: newNotificationID(),
		UserID:         in.UserID,
		SessionID:      in.SessionID,
		Type:           in.Type,
		Title:          in.Title,
		Message:        in.Message,
		Priority:       in.Priority,
		Channels:       in.Channels,
		Sent:           true,
		SentAt:         &now,
		CreatedAt:      now,
	}

	if raw, err := json.Marshal(n); err == nil {
		if err := s.store.PushBounded(ctx, notificationListKey(in.UserID), raw, s.historyLimit); err != nil {
			s.logger.Warn("failed to store notification",
				zap.String("user_id", in.UserID), zap.Error(err))
		}
	}

	s.broadcast.NotifyUser(in.UserID, models.ClientMessage{Type: "notification", Data: n})

	if s.delivery != nil && hasDeliveryChannel(n.Channels) {
		if err := s.delivery.Deliver(ctx, n); err != nil {
			s.logger.Warn("notification delivery failed",
				zap.String("notification_id", n.NotificationID), zap.Error(err))
		}
	}

	metrics.NotificationsSent.WithLabelValues(in.Type).Inc()
	return n
}

func hasDeliveryChannel(channels []string) bool {
	for _, ch := range channels {
		if ch == models.ChannelPush || ch == models.ChannelSMS {
			return true
		}
	}
	return false
}

// History returns the user's notifications, most recent first.
func (s *NotificationsService) History(ctx context.Context, userID string, limit int64) ([]models.ChargingNotification, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	entries, err := s.store.ReadRange(ctx, notificationListKey(userID), 0, limit-1)
	if err != nil {
		return nil, err
	}
	out := make([]models.ChargingNotification, 0, len(entries))
	for _, raw := range entries {
		var n models.ChargingNotification
		if err := json.Unmarshal(raw, &n); err != nil {
			s.logger.Warn("skipping undecodable notification", zap.Error(err))
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
