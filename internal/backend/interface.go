package backend

import (
	"context"

	"growly/internal/amqp"
	"growly/internal/services"
	"growly/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the storage backend and, when enabled, the change
// feed client.
type BackendResult struct {
	Store   storage.KeyValue
	Feed    *amqp.Client
	Cleanup CleanupFunc
}

// Publisher returns the change feed as a services.ChangePublisher, or nil
// when the feed is disabled.
func (r *BackendResult) Publisher() services.ChangePublisher {
	if r == nil || r.Feed == nil {
		return nil
	}
	return r.Feed
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Memory specific. A positive quota caps stored bytes; Seed names a JSON
	// file loaded as the initial blob.
	MemoryQuota int
	MemorySeed  string
	StorageKey  string

	// Change feed, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
