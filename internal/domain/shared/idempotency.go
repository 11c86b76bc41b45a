package shared

import (
	"context"
	"time"
)

// IdempotencyStore tracks processed request keys so that retried
// submissions are detected and skipped.
type IdempotencyStore interface {
	// MarkProcessed marks a key as processed. Returns true if the key was
	// newly marked, false if it had already been processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// IdempotencyConfig holds idempotency settings
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
