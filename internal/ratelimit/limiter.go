// Package ratelimit gates friend-request creation with a per-user
// fixed-window counter.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultLimit is the number of friend requests a user may send per window.
	DefaultLimit = 3
	// DefaultWindow is the lifetime of a counter from its first increment.
	DefaultWindow = time.Minute
)

// Limiter counts friend requests per sender. A window opens on the first
// request and closes DefaultWindow later regardless of further activity.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewLimiter constructs a Limiter over store. Non-positive arguments fall back
// to the defaults.
func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	if store == nil {
		panic("ratelimit: store must not be nil")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, limit: int64(limit), window: window}
}

// Allow reports whether userID is below the limit in the current window. It
// does not count anything; pair it with Record, or use Acquire.
func (l *Limiter) Allow(ctx context.Context, userID string) (bool, error) {
	n, err := l.store.Count(ctx, key(userID))
	if err != nil {
		return false, err
	}
	return n < l.limit, nil
}

// Record counts one request for userID.
func (l *Limiter) Record(ctx context.Context, userID string) error {
	_, err := l.store.Increment(ctx, key(userID), l.window)
	return err
}

// Acquire checks and counts in one atomic step, so concurrent callers for the
// same user cannot both slip under the limit.
func (l *Limiter) Acquire(ctx context.Context, userID string) (bool, error) {
	return l.store.IncrementBelow(ctx, key(userID), l.limit, l.window)
}

// Release returns a slot taken by Acquire whose request was never persisted.
func (l *Limiter) Release(ctx context.Context, userID string) error {
	return l.store.Decrement(ctx, key(userID))
}

// Limit returns the configured threshold.
func (l *Limiter) Limit() int { return int(l.limit) }

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration { return l.window }

func key(userID string) string {
	return fmt.Sprintf("ratelimit:friend-requests:%s", userID)
}
