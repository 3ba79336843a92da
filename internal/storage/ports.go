package storage

import (
	"context"
	"errors"
)

var (
	// ErrQuotaExceeded is returned when a value does not fit the backend's
	// size limit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrEmptyKey      = errors.New("empty key")
)

// KeyValue is a synchronous key-value store holding opaque blobs. A write
// replaces the whole value of a key.
type KeyValue interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
