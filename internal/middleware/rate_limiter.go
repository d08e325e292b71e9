package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter throttles anonymous endpoints such as /login and
// /register per client key with a token bucket. Idle keys are forgotten after
// ttl.
type ClientRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

// NewClientRateLimiter allows perMinute events per key on average, with up to
// burst events at once.
func NewClientRateLimiter(perMinute, burst int, ttl time.Duration) *ClientRateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &ClientRateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now.
func (l *ClientRateLimiter) Allow(key string) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c := l.clientLocked(key, now)
	l.gcLocked(now)

	return c.limiter.AllowN(now, 1)
}

func (l *ClientRateLimiter) clientLocked(key string, now time.Time) *client {
	if c, ok := l.clients[key]; ok {
		c.lastSeen = now
		return c
	}

	c := &client{limiter: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.clients[key] = c
	return c
}

func (l *ClientRateLimiter) gcLocked(now time.Time) {
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > l.ttl {
			delete(l.clients, key)
		}
	}
}

// WithNowFunc allows tests to override the time source.
func (l *ClientRateLimiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
