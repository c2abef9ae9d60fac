package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// Store is a concurrency-safe TTL map.
type Store[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	now   func() time.Time
}

func New[V any]() *Store[V] {
	return &Store[V]{
		items: make(map[string]entry[V]),
		now:   time.Now,
	}
}

// Set stores value under key until ttl elapses.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = entry[V]{value: value, expires: s.now().Add(ttl)}
}

// Get returns the value and whether it is present and unexpired.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero V
	e, ok := s.items[key]
	if !ok || s.now().After(e.expires) {
		return zero, false
	}
	return e.value, true
}
