// Package market models the price-bar feed the engine consumes: bar values,
// the rolling window indicators read from, and the pluggable feed providers.
package market

import (
	"errors"
	"time"
)

// ErrDataGap reports a stale or missing recent bar. The cycle that hits it is
// skipped rather than served fabricated data.
var ErrDataGap = errors.New("market: recent bar missing or stale")

// Bar is one closed OHLCV candle. Immutable once ingested.
type Bar struct {
	Ts     time.Time `json:"timestamp"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series keeps an ordered, bounded window of bars. Duplicate timestamps are
// skipped and out-of-order bars rejected, so the window is always strictly
// increasing in time.
type Series struct {
	bars []Bar
	cap  int
}

// NewSeries builds a window that retains at most capacity bars.
func NewSeries(capacity int) *Series {
	if capacity <= 0 {
		capacity = 512
	}
	return &Series{bars: make([]Bar, 0, capacity), cap: capacity}
}

// Append adds a bar to the window. It returns false for duplicates of the
// latest timestamp and for bars older than the latest one.
func (s *Series) Append(b Bar) bool {
	if n := len(s.bars); n > 0 && !b.Ts.After(s.bars[n-1].Ts) {
		return false
	}
	s.bars = append(s.bars, b)
	if len(s.bars) > s.cap {
		s.bars = s.bars[len(s.bars)-s.cap:]
	}
	return true
}

// Len reports the number of retained bars.
func (s *Series) Len() int { return len(s.bars) }

// Last returns the most recent bar, false when the window is empty.
func (s *Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// Bars returns a copy of the window in timestamp order.
func (s *Series) Bars() []Bar {
	out := make([]Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// CheckFresh returns ErrDataGap when the latest bar is older than maxLag, or
// when no bars arrived at all.
func (s *Series) CheckFresh(now time.Time, maxLag time.Duration) error {
	last, ok := s.Last()
	if !ok || now.Sub(last.Ts) > maxLag {
		return ErrDataGap
	}
	return nil
}
