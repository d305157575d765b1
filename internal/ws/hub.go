// Package ws pushes session updates and notifications to connected
// user clients over WebSockets.
package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
)

// Hub tracks client connections by user and by session subscription.
// Sends are fire-and-forget; a dead client never blocks the engine.
type Hub struct {
	mu       sync.RWMutex
	users    map[string]map[*Client]struct{}
	sessions map[string]map[*Client]struct{}
	count    int
	logger   *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		users:    make(map[string]map[*Client]struct{}),
		sessions: make(map[string]map[*Client]struct{}),
		logger:   logger,
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.users[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[c.userID] = set
	}
	set[c] = struct{}{}
	h.count++
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.userID)
	}
	for id, subs := range h.sessions {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.sessions, id)
		}
	}
	h.count--
}

func (h *Hub) subscribe(c *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[sessionID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) unsubscribe(c *Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.sessions, sessionID)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// BroadcastSessionUpdate delivers a session snapshot to its owner and
// to every client subscribed to the session.
func (h *Hub) BroadcastSessionUpdate(u models.SessionUpdate) {
	raw, err := json.Marshal(u)
	if err != nil {
		h.logger.Warn("failed to encode session update", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make(map[*Client]struct{})
	for c := range h.users[u.UserID] {
		targets[c] = struct{}{}
	}
	for c := range h.sessions[u.SessionID] {
		targets[c] = struct{}{}
	}
	h.mu.RUnlock()

	for c := range targets {
		c.Send(raw)
	}
}

// NotifyUser delivers a message to every connection of one user.
func (h *Hub) NotifyUser(userID string, msg models.ClientMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to encode client message", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.users[userID]))
	for c := range h.users[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(raw)
	}
}

// NotifySession delivers a message to the session's subscribers.
func (h *Hub) NotifySession(sessionID string, msg models.ClientMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("failed to encode client message", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.sessions[sessionID]))
	for c := range h.sessions[sessionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(raw)
	}
}
