// Package sessionset keeps the set of session IDs a plugin has already handled.
// Entries live for the lifetime of the process.
package sessionset

import "sync"

// Set is a concurrency-safe set of session IDs
type Set struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// New creates an empty set
func New() *Set {
	return &Set{ids: make(map[string]struct{})}
}

// Add inserts a session ID
func (s *Set) Add(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[sessionID] = struct{}{}
}

// Has reports whether the session ID is present
func (s *Set) Has(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[sessionID]
	return ok
}

// TryAdd inserts a session ID and reports whether it was absent before
func (s *Set) TryAdd(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[sessionID]; ok {
		return false
	}
	s.ids[sessionID] = struct{}{}
	return true
}

// Len returns the number of session IDs
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
