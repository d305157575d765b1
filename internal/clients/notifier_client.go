package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
)

// NotifierClient forwards notifications to an external push/SMS
// gateway.
type NotifierClient struct {
	base   *BaseClient
	logger *zap.Logger
}

// NewNotifierClient builds a NotifierClient. baseURL may be empty, in
// which case deliveries are skipped.
func NewNotifierClient(baseURL string, client HTTPDoer, logger *zap.Logger) *NotifierClient {
	c := &NotifierClient{logger: logger}
	if baseURL != "" {
		c.base = NewBaseClient("notification-gateway", baseURL, client, logger)
	}
	return c
}

type deliverRequest struct {
	UserID   string   `json:"user_id"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority string   `json:"priority"`
	Channels []string `json:"channels"`
}

// Deliver pushes the notification through the gateway.
func (c *NotifierClient) Deliver(ctx context.Context, n *models.ChargingNotification) error {
	if c.base == nil {
		c.logger.Debug("notification gateway not configured, skipping delivery",
			zap.String("notification_id", n.NotificationID))
		return nil
	}
	payload, err := json.Marshal(deliverRequest{
		UserID:   n.UserID,
		Title:    n.Title,
		Message:  n.Message,
		Priority: string(n.Priority),
		Channels: n.Channels,
	})
	if err != nil {
		return err
	}
	status, _, err := c.base.Do(ctx, http.MethodPost, "/api/notifications/dispatch", payload, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return fmt.Errorf("notification gateway returned %d", status)
	}
	return nil
}
