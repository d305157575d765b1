package service

import "errors"

// Sentinel errors returned by the lifecycle operations. Handlers map
// them to HTTP status codes.
var (
	ErrPileUnavailable      = errors.New("pile is not available")
	ErrUserHasActiveSession = errors.New("user already has an active session")
	ErrSessionNotFound      = errors.New("session not found")
	ErrForbidden            = errors.New("session belongs to another user")
	ErrSessionAlreadyEnded  = errors.New("session already ended")
	ErrInvalidSessionStatus = errors.New("operation not allowed in current session status")
	ErrOrderNotFound        = errors.New("order not found")
)
