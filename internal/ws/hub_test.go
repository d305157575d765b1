package ws

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/watchhill101/smartCharging-sub004/internal/models"
)

func addClient(h *Hub, userID string) *Client {
	c := newClient(userID, nil, h, time.Second, zap.NewNop(), nil)
	h.add(c)
	return c
}

func pending(c *Client) int {
	return len(c.send)
}

func TestHubRoutesUpdatesToOwnerAndSubscribers(t *testing.T) {
	h := NewHub(zap.NewNop())
	owner := addClient(h, "user_001")
	stranger := addClient(h, "user_002")
	watcher := addClient(h, "user_003")
	h.subscribe(watcher, "session_abc")

	h.BroadcastSessionUpdate(models.SessionUpdate{
		Type:      models.UpdateTelemetry,
		SessionID: "session_abc",
		UserID:    "user_001",
	})

	if pending(owner) != 1 {
		t.Fatalf("owner should receive the update, got %d", pending(owner))
	}
	if pending(watcher) != 1 {
		t.Fatalf("subscriber should receive the update, got %d", pending(watcher))
	}
	if pending(stranger) != 0 {
		t.Fatalf("unrelated client received %d messages", pending(stranger))
	}
}

func TestHubSendsOnceToSubscribedOwner(t *testing.T) {
	h := NewHub(zap.NewNop())
	owner := addClient(h, "user_001")
	h.subscribe(owner, "session_abc")

	h.BroadcastSessionUpdate(models.SessionUpdate{
		Type:      models.UpdateStatus,
		SessionID: "session_abc",
		UserID:    "user_001",
	})

	if pending(owner) != 1 {
		t.Fatalf("owner subscribed to own session should get one copy, got %d", pending(owner))
	}
}

func TestNotifyUserReachesEveryConnection(t *testing.T) {
	h := NewHub(zap.NewNop())
	first := addClient(h, "user_001")
	second := addClient(h, "user_001")

	h.NotifyUser("user_001", models.ClientMessage{Type: "notification"})

	if pending(first) != 1 || pending(second) != 1 {
		t.Fatalf("both connections should be notified: %d, %d", pending(first), pending(second))
	}
	if h.ClientCount() != 2 {
		t.Fatalf("expected 2 clients, got %d", h.ClientCount())
	}
}

func TestHubRemoveDropsSubscriptions(t *testing.T) {
	h := NewHub(zap.NewNop())
	watcher := addClient(h, "user_001")
	h.subscribe(watcher, "session_abc")

	h.remove(watcher)

	h.NotifySession("session_abc", models.ClientMessage{Type: "anomaly_report"})
	if pending(watcher) != 0 {
		t.Fatal("removed client still receives session messages")
	}
	if h.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", h.ClientCount())
	}

	// Removing twice must not corrupt the count.
	h.remove(watcher)
	if h.ClientCount() != 0 {
		t.Fatalf("double remove skewed the count: %d", h.ClientCount())
	}
}

func TestClientSendDropsWhenBufferFull(t *testing.T) {
	h := NewHub(zap.NewNop())
	c := addClient(h, "user_001")

	for i := 0; i < cap(c.send)+5; i++ {
		c.Send([]byte("{}"))
	}
	if pending(c) != cap(c.send) {
		t.Fatalf("full buffer should drop, queue has %d", pending(c))
	}
}
