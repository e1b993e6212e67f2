// Package microcache is a short-lived in-memory store for rendered responses.
// It satisfies fiber.Storage so fiber's cache middleware can use it, and adds
// an injectable clock so expiry can be driven from tests.
package microcache

import (
	"sync"
	"time"
)

// DefaultTTL applies when Set is called without an expiration
const DefaultTTL = 15 * time.Second

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type entry struct {
	value   []byte
	expires time.Time
}

// Store is a namespace of cached responses. Reset purges the whole namespace.
type Store struct {
	mu      sync.RWMutex
	name    string
	ttl     time.Duration
	clock   Clock
	entries map[string]entry
	purges  uint64
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithTTL sets the default expiration
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New creates an empty store for the given namespace
func New(name string, opts ...Option) *Store {
	s := &Store{
		name:    name,
		ttl:     DefaultTTL,
		clock:   systemClock{},
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the namespace
func (s *Store) Name() string { return s.name }

// TTL returns the default expiration
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns nil without error when the key is missing or expired
func (s *Store) Get(key string) ([]byte, error) {
	now := s.clock.Now()

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !now.Before(e.expires) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && !now.Before(cur.expires) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, nil
	}
	return e.value, nil
}

// Set stores a copy of val; exp <= 0 uses the store TTL
func (s *Store) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	if exp <= 0 {
		exp = s.ttl
	}
	cp := make([]byte, len(val))
	copy(cp, val)

	s.mu.Lock()
	s.entries[key] = entry{value: cp, expires: s.clock.Now().Add(exp)}
	s.mu.Unlock()
	return nil
}

// Delete removes a key
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Reset purges every entry in the namespace
func (s *Store) Reset() error {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.purges++
	s.mu.Unlock()
	return nil
}

// Close releases the entries
func (s *Store) Close() error {
	return s.Reset()
}

// Len counts live entries
func (s *Store) Len() int {
	now := s.clock.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if now.Before(e.expires) {
			n++
		}
	}
	return n
}

// Purges reports how many times the namespace was reset
func (s *Store) Purges() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.purges
}
