package perf

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

var now = time.Date(2025, 5, 12, 16, 0, 0, 0, time.UTC)

func closedTrades(wins, losses int, grossProfit, grossLoss float64) []tracker.Trade {
	var out []tracker.Trade
	for i := 0; i < wins; i++ {
		out = append(out, tracker.Trade{
			Result:     tracker.ResultWin,
			ProfitLoss: grossProfit / float64(wins),
			ClosedAt:   now.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	for i := 0; i < losses; i++ {
		out = append(out, tracker.Trade{
			Result:     tracker.ResultLoss,
			ProfitLoss: -grossLoss / float64(losses),
			ClosedAt:   now.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	return out
}

func TestComputeWindow(t *testing.T) {
	w := Compute(closedTrades(12, 8, 600, 400))
	if w.TradesClosed != 20 || w.Wins != 12 || w.Losses != 8 {
		t.Fatalf("unexpected counts: %+v", w)
	}
	if math.Abs(w.WinRate-0.6) > 1e-9 {
		t.Fatalf("win rate = %v, want 0.6", w.WinRate)
	}
	if math.Abs(w.ProfitFactor-1.5) > 1e-9 {
		t.Fatalf("profit factor = %v, want 1.5", w.ProfitFactor)
	}
	if math.Abs(w.NetProfit-200) > 1e-9 {
		t.Fatalf("net profit = %v, want 200", w.NetProfit)
	}
}

func TestComputeZeroGrossLoss(t *testing.T) {
	w := Compute(closedTrades(5, 0, 100, 0))
	if w.ProfitFactor != ProfitFactorUndefined {
		t.Fatalf("zero gross loss must yield the undefined sentinel, got %v", w.ProfitFactor)
	}
}

func TestComputeTimeoutsExcludedFromWinRate(t *testing.T) {
	trades := closedTrades(3, 1, 300, 100)
	trades = append(trades, tracker.Trade{
		Result:     tracker.ResultTimeout,
		ProfitLoss: -50,
		ClosedAt:   now.Add(-time.Hour),
	})
	w := Compute(trades)
	if w.TradesClosed != 5 || w.Timeouts != 1 {
		t.Fatalf("unexpected counts: %+v", w)
	}
	if math.Abs(w.WinRate-0.75) > 1e-9 {
		t.Fatalf("win rate must ignore timeouts, got %v", w.WinRate)
	}
	if math.Abs(w.GrossLoss-150) > 1e-9 {
		t.Fatalf("timeout loss must count toward gross loss, got %v", w.GrossLoss)
	}
}

func TestEvaluateHealthyWindowStaysActive(t *testing.T) {
	state := control.NewState(control.Active)
	m := NewMonitor(state, DefaultThresholds(), 7*24*time.Hour, zerolog.Nop())
	m.Record(closedTrades(12, 8, 600, 400)...)

	w, status := m.Evaluate(now)
	if status != control.Active {
		t.Fatalf("12/20 wins with PF 1.5 must stay active, got %s", status)
	}
	if w.TradesClosed != 20 {
		t.Fatalf("expected 20 trades in window, got %d", w.TradesClosed)
	}
}

func TestEvaluateSuspendsOnPoorWindow(t *testing.T) {
	state := control.NewState(control.Active)
	m := NewMonitor(state, DefaultThresholds(), 7*24*time.Hour, zerolog.Nop())
	m.Record(closedTrades(9, 11, 300, 500)...)

	_, status := m.Evaluate(now)
	if status != control.Suspended {
		t.Fatalf("9/20 wins with PF 0.6 must suspend, got %s", status)
	}
	if state.SignalsAllowed() {
		t.Fatalf("suspended state must block signals")
	}
}

func TestEvaluateBelowMinTradesNeverSuspends(t *testing.T) {
	state := control.NewState(control.Active)
	m := NewMonitor(state, DefaultThresholds(), 7*24*time.Hour, zerolog.Nop())
	m.Record(closedTrades(1, 9, 10, 500)...)

	if _, status := m.Evaluate(now); status != control.Active {
		t.Fatalf("10 trades is under the minimum, must not suspend, got %s", status)
	}
}

func TestEvaluateReactivationNeedsNetProfit(t *testing.T) {
	state := control.NewState(control.Suspended)
	m := NewMonitor(state, DefaultThresholds(), 7*24*time.Hour, zerolog.Nop())

	// clears both thresholds but the window lost money overall: the timeout
	// bleed outweighs the decisive wins
	trades := closedTrades(12, 8, 600, 400)
	trades = append(trades, tracker.Trade{
		Result:     tracker.ResultTimeout,
		ProfitLoss: -300,
		ClosedAt:   now.Add(-time.Hour),
	})
	m.Record(trades...)
	if _, status := m.Evaluate(now); status != control.Suspended {
		t.Fatalf("negative net must keep suspension, got %s", status)
	}
}

func TestEvaluateReactivates(t *testing.T) {
	state := control.NewState(control.Suspended)
	m := NewMonitor(state, DefaultThresholds(), 7*24*time.Hour, zerolog.Nop())
	m.Record(closedTrades(14, 6, 700, 300)...)

	if _, status := m.Evaluate(now); status != control.Active {
		t.Fatalf("recovered window must reactivate, got %s", status)
	}
}

func TestEvaluateAllTimeoutWindowKeepsStatus(t *testing.T) {
	state := control.NewState(control.Active)
	m := NewMonitor(state, DefaultThresholds(), 7*24*time.Hour, zerolog.Nop())

	var trades []tracker.Trade
	for i := 0; i < 20; i++ {
		trades = append(trades, tracker.Trade{
			Result:     tracker.ResultTimeout,
			ProfitLoss: -10,
			ClosedAt:   now.Add(-time.Hour),
		})
	}
	m.Record(trades...)

	w, status := m.Evaluate(now)
	if w.Wins+w.Losses != 0 {
		t.Fatalf("expected no decisive closures, got %d/%d", w.Wins, w.Losses)
	}
	if status != control.Active {
		t.Fatalf("window without decisive closures must not change status, got %s", status)
	}
}

func TestEvaluateGraduatesTestingModel(t *testing.T) {
	state := control.NewState(control.Testing)
	m := NewMonitor(state, DefaultThresholds(), 7*24*time.Hour, zerolog.Nop())
	m.Record(closedTrades(14, 6, 700, 300)...)

	if _, status := m.Evaluate(now); status != control.Active {
		t.Fatalf("testing model with a passing window must graduate, got %s", status)
	}
}

func TestEvaluateDemotesTestingModel(t *testing.T) {
	state := control.NewState(control.Testing)
	m := NewMonitor(state, DefaultThresholds(), 7*24*time.Hour, zerolog.Nop())
	m.Record(closedTrades(9, 11, 300, 500)...)

	if _, status := m.Evaluate(now); status != control.Suspended {
		t.Fatalf("testing model failing the window must suspend, got %s", status)
	}
}

func TestEvaluatePrunesOldTrades(t *testing.T) {
	state := control.NewState(control.Active)
	m := NewMonitor(state, DefaultThresholds(), 24*time.Hour, zerolog.Nop())

	old := closedTrades(0, 20, 0, 1000)
	for i := range old {
		old[i].ClosedAt = now.Add(-48 * time.Hour)
	}
	m.Record(old...)

	w, status := m.Evaluate(now)
	if w.TradesClosed != 0 {
		t.Fatalf("stale trades must be pruned, got %d", w.TradesClosed)
	}
	if status != control.Active {
		t.Fatalf("empty window must not suspend, got %s", status)
	}
}
