package market

import (
	"context"
	"testing"
	"time"
)

func TestStubHistoryDeterministic(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(100 * time.Hour)
	src := StubHistory{Symbol: "XAUUSD", Anchor: 2000}

	first, err := src.Bars(context.Background(), from, to, time.Hour)
	if err != nil {
		t.Fatalf("Bars returned error: %v", err)
	}
	second, err := src.Bars(context.Background(), from, to, time.Hour)
	if err != nil {
		t.Fatalf("Bars returned error: %v", err)
	}
	if len(first) != 101 {
		t.Fatalf("expected 101 bars, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("bar %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSyntheticWalkBarShape(t *testing.T) {
	walk := NewSyntheticWalk("XAUUSD", 2000)
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		bar := walk.Next(ts.Add(time.Duration(i) * time.Hour))
		if bar.High < bar.Open || bar.High < bar.Close {
			t.Fatalf("bar %d high below open/close: %+v", i, bar)
		}
		if bar.Low > bar.Open || bar.Low > bar.Close {
			t.Fatalf("bar %d low above open/close: %+v", i, bar)
		}
		if bar.Volume <= 0 {
			t.Fatalf("bar %d non-positive volume: %+v", i, bar)
		}
	}
}
