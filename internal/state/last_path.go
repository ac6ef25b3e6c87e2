// Package state holds the process-wide record of the last ingested file.
package state

import "sync"

// LastPath is the single slot holding the most recent successfully
// materialized path. It starts empty, is overwritten on every successful
// ingestion and is never cleared; failed ingestions leave it untouched.
type LastPath struct {
	mu   sync.RWMutex
	path string
	set  bool
}

// NewLastPath returns an empty slot.
func NewLastPath() *LastPath {
	return &LastPath{}
}

// Get returns the stored path, or false when nothing was ingested yet.
func (s *LastPath) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path, s.set
}

// Set records path as the latest ingestion.
func (s *LastPath) Set(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.set = true
}
