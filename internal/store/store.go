// Package store implements the shared in-memory string-to-string mapping
// that every connection worker operates on.
//
// The four operations (Get, Insert, Remove, Clear) are each a single
// critical section guarded by one sync.RWMutex; none of them hold the lock
// across I/O, and Get never returns a value that aliases map internals, so
// callers never need to keep the store locked while serializing a response.
package store

import (
	"sync"

	"github.com/pkg/errors"
)

// ErrUnavailable is returned by every operation once the store has been
// closed. It plays the role the Rust implementation gets for free from
// Mutex poisoning (`lock().map_err(...)`); Go mutexes cannot poison, so this
// package reproduces the same caller-visible shape via an explicit Close.
var ErrUnavailable = errors.New("store: unavailable")

// Store is a concurrency-safe string-to-string map. The zero value is not
// usable; construct one with New or NewWithCapacity.
type Store struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// New creates an empty Store.
func New() *Store {
	return NewWithCapacity(0)
}

// NewWithCapacity creates an empty Store pre-sized for capacity entries, the
// Go analogue of the Rust HashMap::with_capacity pre-allocation hint.
func NewWithCapacity(capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{data: make(map[string]string, capacity)}
}

// Get returns the value bound to key and whether it was present. A missing
// key is not an error.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrUnavailable
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Insert binds value to key, replacing any previous binding.
func (s *Store) Insert(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnavailable
	}
	s.data[key] = value
	return nil
}

// Remove unbinds key. Removing an absent key is a no-op, not an error.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnavailable
	}
	delete(s.data, key)
	return nil
}

// Clear removes every binding.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUnavailable
	}
	clear(s.data)
	return nil
}

// Close marks the store unavailable. Every subsequent operation returns
// ErrUnavailable. Close is idempotent and is the store's half of "process
// shutdown drops all store data".
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
}

// Len reports the number of entries currently stored. It is a diagnostic
// helper, not part of the wire-exposed operation set.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
