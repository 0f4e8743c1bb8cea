package market

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// History supplies the longer bar range the retraining controller fits
// candidate models on. Implementations must return bars ordered by timestamp.
type History interface {
	Bars(ctx context.Context, from, to time.Time, interval time.Duration) ([]Bar, error)
}

// SyntheticWalk generates a deterministic seeded random-walk bar stream. The
// same symbol and anchor price always produce the same sequence, which keeps
// training and indicator tests reproducible.
type SyntheticWalk struct {
	rng   *rand.Rand
	price float64
}

// NewSyntheticWalk seeds a walk from the symbol name around the anchor price.
func NewSyntheticWalk(symbol string, anchor float64) *SyntheticWalk {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	return &SyntheticWalk{
		rng:   rand.New(rand.NewSource(int64(h.Sum64()))),
		price: anchor,
	}
}

// Next produces the bar that closed at ts.
func (w *SyntheticWalk) Next(ts time.Time) Bar {
	drift := w.rng.NormFloat64() * 0.004 * w.price
	open := w.price
	closePx := open + drift
	high := math.Max(open, closePx) + w.rng.Float64()*0.002*open
	low := math.Min(open, closePx) - w.rng.Float64()*0.002*open
	w.price = closePx
	return Bar{
		Ts:     ts,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: 1000 + w.rng.Float64()*500,
	}
}

// StubHistory serves synthetic history for offline runs and tests.
type StubHistory struct {
	Symbol string
	Anchor float64
}

// Bars walks the requested range at the given interval.
func (s StubHistory) Bars(_ context.Context, from, to time.Time, interval time.Duration) ([]Bar, error) {
	if interval <= 0 {
		interval = defaultBarInterval
	}
	anchor := s.Anchor
	if anchor <= 0 {
		anchor = 2000.0
	}
	walk := NewSyntheticWalk(s.Symbol, anchor)
	var bars []Bar
	for ts := from; !ts.After(to); ts = ts.Add(interval) {
		bars = append(bars, walk.Next(ts))
	}
	return bars, nil
}
