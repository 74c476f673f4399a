package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed message IDs to prevent duplicate processing
type IdempotencyStore interface {
	// MarkProcessed marks a message as processed with a TTL
	// Returns true if the message was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, messageID string, ttl time.Duration) (bool, error)

	// IsProcessed checks if a message has already been processed
	IsProcessed(ctx context.Context, messageID string) (bool, error)

	// Release forgets a message so a redelivery is processed again
	Release(ctx context.Context, messageID string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed message ID is remembered
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}

// Locker serialises work on a single key across processes
type Locker interface {
	// Acquire obtains the lock for key. The returned release func must be
	// called once the critical section ends.
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}
