// Package control owns the process-wide signal gating status. Only the
// performance monitor and the retraining controller write it; the classifier
// path reads it before emitting a tradeable signal.
package control

import "sync"

// Status enumerates the signal gating states.
type Status string

const (
	// Active means signals flow normally.
	Active Status = "active"
	// Suspended withholds tradeable signals after a failed performance window.
	Suspended Status = "suspended"
	// Testing marks a freshly activated model awaiting live validation.
	Testing Status = "testing"
)

// State is the shared gating flag. Reads are concurrent; writes are
// serialized through the mutex.
type State struct {
	mu     sync.RWMutex
	status Status
}

// NewState starts in the given status, defaulting to Active.
func NewState(initial Status) *State {
	if initial == "" {
		initial = Active
	}
	return &State{status: initial}
}

// Status returns the current gating state.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Set transitions to the given status and reports whether it changed.
func (s *State) Set(status Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == status {
		return false
	}
	s.status = status
	return true
}

// SignalsAllowed reports whether tradeable signals may be emitted. Testing
// allows signals so a fresh model can prove itself on live windows.
func (s *State) SignalsAllowed() bool {
	return s.Status() != Suspended
}
