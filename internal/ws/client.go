package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// controlMessage is the inbound envelope clients send to scope their
// subscriptions.
type controlMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Client represents an active user WebSocket connection.
type Client struct {
	userID       string
	ws           *websocket.Conn
	send         chan []byte
	hub          *Hub
	logger       *zap.Logger
	writeTimeout time.Duration
	onClose      func(*Client)
}

func newClient(userID string, ws *websocket.Conn, hub *Hub, writeTimeout time.Duration, logger *zap.Logger, onClose func(*Client)) *Client {
	return &Client{
		userID:       userID,
		ws:           ws,
		send:         make(chan []byte, 16),
		hub:          hub,
		logger:       logger,
		writeTimeout: writeTimeout,
		onClose:      onClose,
	}
}

// UserID returns identifier.
func (c *Client) UserID() string {
	return c.userID
}

// start launches the read/write pumps.
func (c *Client) start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(1024 * 1024)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Info("client read closed", zap.String("user_id", c.userID), zap.Error(err))
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.logger.Warn("unreadable client message", zap.String("user_id", c.userID), zap.Error(err))
			continue
		}
		switch msg.Type {
		case "subscribe_session":
			if msg.SessionID == "" {
				continue
			}
			c.hub.subscribe(c, msg.SessionID)
			c.logger.Info("client subscribed to session",
				zap.String("user_id", c.userID), zap.String("session_id", msg.SessionID))
		case "unsubscribe_session":
			c.hub.unsubscribe(c, msg.SessionID)
		default:
			c.logger.Debug("ignoring client message", zap.String("type", msg.Type))
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message for writing. A slow client drops messages
// instead of blocking the caller.
func (c *Client) Send(msg []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("attempted to send on closed channel", zap.String("user_id", c.userID))
		}
	}()
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping outgoing message, buffer full", zap.String("user_id", c.userID))
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Client) cleanup() {
	close(c.send)
	_ = c.ws.Close()
	if c.onClose != nil {
		c.onClose(c)
	}
}
