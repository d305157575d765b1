package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
)

// NATSPublisher publishes session events to NATS subjects of the form
// "<prefix>.sessions.<event>".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *zap.Logger
}

// NewNATSPublisher connects to the NATS server at addr.
func NewNATSPublisher(addr, prefix string, logger *zap.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(addr, nats.Name("charging-service"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("connected to NATS", zap.String("addr", addr))
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}, nil
}

func (p *NATSPublisher) PublishSessionEvent(event models.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	subject := fmt.Sprintf("%s.sessions.%s", p.prefix, event.Event)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
