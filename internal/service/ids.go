package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// idGenerator is swapped in tests for deterministic ids.
var idGenerator = generateID

func generateID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s_%s", prefix, raw[:8])
}

func newSessionID() string      { return idGenerator("session") }
func newOrderID() string        { return idGenerator("order") }
func newNotificationID() string { return idGenerator("notif") }
