// Package session tags timestamps with the coarse trading session active at
// that wall-clock hour. All boundaries are UTC.
package session

import "time"

// Session labels the liquidity window a bar belongs to.
type Session string

const (
	London  Session = "London"
	NewYork Session = "NewYork"
	Overlap Session = "Overlap"
	Off     Session = "Off"
)

// Classify maps a timestamp onto its session. London runs 08:00-16:00 UTC,
// New York 13:00-21:00, and the shared 13:00-16:00 stretch is reported as
// Overlap. Everything else is Off (Asian hours).
func Classify(t time.Time) Session {
	hour := t.UTC().Hour()
	switch {
	case hour >= 13 && hour < 16:
		return Overlap
	case hour >= 8 && hour < 16:
		return London
	case hour >= 16 && hour < 21:
		return NewYork
	default:
		return Off
	}
}

// Flags returns the binary London/NewYork/Overlap features the model trains
// on. Overlap hours set all three, matching the original labeling.
func Flags(t time.Time) (london, newYork, overlap float64) {
	hour := t.UTC().Hour()
	if hour >= 8 && hour < 16 {
		london = 1
	}
	if hour >= 13 && hour < 21 {
		newYork = 1
	}
	if hour >= 13 && hour < 16 {
		overlap = 1
	}
	return london, newYork, overlap
}
