package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks keys that have already been processed so that
// at-least-once deliveries do not produce duplicate effects.
type IdempotencyStore interface {
	// MarkProcessed atomically records the key with a TTL.
	// It returns true if the key was newly recorded, false if it already existed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key has already been recorded.
	IsProcessed(ctx context.Context, key string) (bool, error)
}

// IdempotencyConfig controls idempotency checking
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		Enabled: true,
		TTL:     24 * time.Hour,
	}
}
