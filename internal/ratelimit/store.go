package ratelimit

import (
	"context"
	"time"
)

// Store is a counter keyed by string whose entries expire a fixed window
// after their first increment. Every method must be atomic per key.
type Store interface {
	// Count returns the live value for key, zero when absent or expired.
	Count(ctx context.Context, key string) (int64, error)
	// Increment adds one to key. The increment that creates the entry starts
	// its window; later increments do not extend it.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	// IncrementBelow adds one to key only when its live value is below limit
	// and reports whether it did.
	IncrementBelow(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
	// Decrement removes one from a live, positive counter without touching its expiry.
	Decrement(ctx context.Context, key string) error
	Close() error
}
