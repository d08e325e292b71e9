package friends

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrRateLimited indicates the sender exhausted the friend requests allowed in the current window.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrForbidden indicates the actor is not the recipient of the request.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrNotFound indicates the friend request or a referenced user does not exist.
	ErrNotFound = errors.New("not found")
)

// RateLimitError carries the quota a refused sender ran into. It matches
// ErrRateLimited under errors.Is.
type RateLimitError struct {
	Limit  int
	Window time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s", e.Limit, WindowPhrase(e.Window))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// WindowPhrase renders a window for client messages: "minute", "5 minutes",
// "30 seconds", or the duration itself.
func WindowPhrase(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "minute"
	case d == time.Hour:
		return "hour"
	case d > 0 && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d > 0 && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	case d > 0 && d%time.Second == 0:
		return fmt.Sprintf("%d seconds", d/time.Second)
	default:
		return d.String()
	}
}
