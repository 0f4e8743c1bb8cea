package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/omotosho-cloud/goldai/internal/market"
)

func testBars(n int) []market.Bar {
	walk := market.NewSyntheticWalk("XAUUSD", 2000)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	for i := range bars {
		bars[i] = walk.Next(base.Add(time.Duration(i) * time.Hour))
	}
	return bars
}

func TestComputeInsufficientHistory(t *testing.T) {
	_, err := Compute(testBars(MinBars - 1))
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestComputeDeterministic(t *testing.T) {
	bars := testBars(120)
	first, err := Compute(bars)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	second, err := Compute(bars)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if first != second {
		t.Fatalf("snapshots differ for identical input: %+v vs %+v", first, second)
	}
}

func TestComputeRanges(t *testing.T) {
	snap, err := Compute(testBars(200))
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if snap.RSI < 0 || snap.RSI > 100 {
		t.Fatalf("RSI out of range: %.2f", snap.RSI)
	}
	if snap.ADX < 0 || snap.ADX > 100 {
		t.Fatalf("ADX out of range: %.2f", snap.ADX)
	}
	if snap.ATR <= 0 {
		t.Fatalf("ATR should be positive for a moving series, got %.4f", snap.ATR)
	}
	if snap.BollingerUpper <= snap.BollingerLower {
		t.Fatalf("bollinger bands inverted: %.2f <= %.2f", snap.BollingerUpper, snap.BollingerLower)
	}
	if snap.BollingerWidth() <= 0 {
		t.Fatalf("bollinger width should be positive, got %.4f", snap.BollingerWidth())
	}
}

func TestRSITrendingUpIsHigh(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 100)
	px := 2000.0
	for i := range bars {
		px += 1.5
		bars[i] = market.Bar{Ts: base.Add(time.Duration(i) * time.Hour), Open: px - 1.5, High: px + 0.5, Low: px - 2, Close: px, Volume: 1000}
	}
	snap, err := Compute(bars)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if snap.RSI != 100 {
		t.Fatalf("expected RSI 100 for monotonic rise, got %.2f", snap.RSI)
	}
	if snap.EMAFast <= snap.EMASlow {
		t.Fatalf("expected fast EMA above slow in an uptrend: %.2f vs %.2f", snap.EMAFast, snap.EMASlow)
	}
	if snap.ADX <= 20 {
		t.Fatalf("expected strong trend ADX above 20, got %.2f", snap.ADX)
	}
}

func TestATRFlatSeriesNearZero(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, 100)
	for i := range bars {
		bars[i] = market.Bar{Ts: base.Add(time.Duration(i) * time.Hour), Open: 2000, High: 2000, Low: 2000, Close: 2000, Volume: 1000}
	}
	snap, err := Compute(bars)
	if err != nil {
		t.Fatalf("Compute returned error: %v", err)
	}
	if math.Abs(snap.ATR) > 1e-9 {
		t.Fatalf("expected zero ATR for flat series, got %.6f", snap.ATR)
	}
}
