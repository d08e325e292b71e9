package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	value   int64
	expires time.Time
}

// MemoryStore is a process-local Store. Counters are lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.liveLocked(key, s.now()); c != nil {
		return c.value, nil
	}
	return 0, nil
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.incrementLocked(key, window, s.now()), nil
}

// IncrementBelow implements Store.
func (s *MemoryStore) IncrementBelow(_ context.Context, key string, limit int64, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if c := s.liveLocked(key, now); c != nil && c.value >= limit {
		return false, nil
	}
	s.incrementLocked(key, window, now)
	return true, nil
}

// Decrement implements Store.
func (s *MemoryStore) Decrement(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := s.liveLocked(key, s.now()); c != nil && c.value > 0 {
		c.value--
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// WithNowFunc allows tests to override the time source.
func (s *MemoryStore) WithNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) incrementLocked(key string, window time.Duration, now time.Time) int64 {
	c := s.liveLocked(key, now)
	if c == nil {
		c = &counter{expires: now.Add(window)}
		s.counters[key] = c
	}
	c.value++
	s.gcLocked(now)
	return c.value
}

func (s *MemoryStore) liveLocked(key string, now time.Time) *counter {
	c, ok := s.counters[key]
	if !ok {
		return nil
	}
	if !now.Before(c.expires) {
		delete(s.counters, key)
		return nil
	}
	return c
}

func (s *MemoryStore) gcLocked(now time.Time) {
	for key, c := range s.counters {
		if !now.Before(c.expires) {
			delete(s.counters, key)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
