package model

import "sync"

// Slot is the in-process holder for the active artifact. A classification
// reads the whole artifact under the read lock, so a concurrent Swap can
// never expose a half-replaced model.
type Slot struct {
	mu     sync.RWMutex
	active *Artifact
}

// NewSlot starts with the given artifact, which may be nil (fallback mode).
func NewSlot(a *Artifact) *Slot {
	return &Slot{active: a}
}

// Active returns the current artifact, false when none is loaded.
func (s *Slot) Active() (*Artifact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.active != nil
}

// Swap installs the new artifact and returns the one it replaced.
func (s *Slot) Swap(a *Artifact) *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.active
	s.active = a
	return prev
}
