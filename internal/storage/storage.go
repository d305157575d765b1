// Package storage defines the key-value contract the charging services
// run on, with Redis and in-memory implementations.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Store is the persistence surface shared by sessions, orders and
// bounded histories. Scalar values are opaque byte slices; list keys
// hold newest-first histories with LRANGE-style range reads.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// SetWithTTL stores value under key. A non-positive ttl keeps the
	// key until it is deleted.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ScanPrefix returns every live key that starts with prefix.
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)

	// PushBounded prepends value to the list at listKey and trims the
	// list to at most maxLen entries.
	PushBounded(ctx context.Context, listKey string, value []byte, maxLen int64) error

	// ReadRange returns list entries between from and to inclusive,
	// following Redis LRANGE index rules. Negative indexes count from
	// the end of the list.
	ReadRange(ctx context.Context, listKey string, from, to int64) ([][]byte, error)
}
