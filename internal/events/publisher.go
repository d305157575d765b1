// Package events publishes session lifecycle events for downstream
// consumers.
package events

import "github.com/watchhill101/smartCharging-sub004/internal/models"

// Publisher emits session lifecycle events.
type Publisher interface {
	PublishSessionEvent(event models.SessionEvent) error
	Close() error
}

// NoopPublisher drops every event. It stands in when no message broker
// is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSessionEvent(models.SessionEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
