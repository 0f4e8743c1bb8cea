package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/classify"
	"github.com/omotosho-cloud/goldai/internal/config"
	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/indicator"
	"github.com/omotosho-cloud/goldai/internal/market"
	"github.com/omotosho-cloud/goldai/internal/model"
	"github.com/omotosho-cloud/goldai/internal/perf"
	"github.com/omotosho-cloud/goldai/internal/retrain"
	"github.com/omotosho-cloud/goldai/internal/risk"
	"github.com/omotosho-cloud/goldai/internal/signal"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

var start = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

type capture struct {
	signals  []signal.Signal
	trades   []tracker.Trade
	statuses []control.Status
	retrains []retrain.Outcome
}

func (c *capture) SignalEmitted(sig signal.Signal) { c.signals = append(c.signals, sig) }
func (c *capture) TradeClosed(t tracker.Trade)     { c.trades = append(c.trades, t) }
func (c *capture) StatusChanged(_, to control.Status, _ perf.Window) {
	c.statuses = append(c.statuses, to)
}
func (c *capture) RetrainFinished(o retrain.Outcome) { c.retrains = append(c.retrains, o) }

func newEngine(t *testing.T, state *control.State, sink *capture) *Engine {
	t.Helper()
	cfg := config.Default()
	return New(Deps{
		Config:     cfg,
		Classifier: classify.New(model.NewSlot(nil), classify.DefaultParams()),
		Risk:       risk.Defaults(),
		Tracker:    tracker.New(state, 4*time.Hour, zerolog.Nop()),
		Monitor:    perf.NewMonitor(state, perf.DefaultThresholds(), 7*24*time.Hour, zerolog.Nop()),
		State:      state,
		Notifier:   sink,
		Log:        zerolog.Nop(),
	})
}

func trendBar(i int, price *float64) market.Bar {
	next := *price * 1.005
	bar := market.Bar{
		Ts:     start.Add(time.Duration(i) * time.Hour),
		Open:   *price,
		High:   next * 1.0005,
		Low:    *price * 0.9995,
		Close:  next,
		Volume: 100,
	}
	*price = next
	return bar
}

func warmUp(e *Engine, n int) float64 {
	price := 2000.0
	for i := 0; i < n; i++ {
		e.OnBar(trendBar(i, &price))
	}
	return price
}

func TestOnBarEmitsOncePerHour(t *testing.T) {
	sink := &capture{}
	e := newEngine(t, control.NewState(control.Active), sink)

	warmUp(e, indicator.MinBars+5)
	emitted := len(sink.signals)
	if emitted == 0 {
		t.Fatalf("warm window on a trend must emit signals")
	}

	// a second bar inside the already-classified hour must not emit again
	last, _ := e.series.Last()
	e.OnBar(market.Bar{
		Ts:    last.Ts.Add(30 * time.Minute),
		Open:  last.Close,
		High:  last.Close * 1.0002,
		Low:   last.Close * 0.9998,
		Close: last.Close,
	})
	if len(sink.signals) != emitted {
		t.Fatalf("duplicate hour emitted a signal: %d -> %d", emitted, len(sink.signals))
	}
}

func TestOnBarColdWindowStaysQuiet(t *testing.T) {
	sink := &capture{}
	e := newEngine(t, control.NewState(control.Active), sink)

	warmUp(e, indicator.MinBars-1)
	if len(sink.signals) != 0 {
		t.Fatalf("cold window must not emit, got %d signals", len(sink.signals))
	}
}

func TestFallbackSignalOnTrend(t *testing.T) {
	sink := &capture{}
	e := newEngine(t, control.NewState(control.Active), sink)

	warmUp(e, indicator.MinBars+2)
	sig, ok := e.CurrentSignal()
	if !ok {
		t.Fatalf("expected a current signal after warmup")
	}
	if !sig.Fallback {
		t.Fatalf("no artifact loaded, signal must be fallback")
	}
	if sig.Class != signal.Buy {
		t.Fatalf("sustained uptrend must classify buy, got %s", sig.Class)
	}
	if sig.StopLoss >= sig.EntryPrice || sig.TakeProfit <= sig.EntryPrice {
		t.Fatalf("long levels inverted: entry %.2f sl %.2f tp %.2f",
			sig.EntryPrice, sig.StopLoss, sig.TakeProfit)
	}
	if len(e.ActiveTrades()) == 0 {
		t.Fatalf("tradeable signal must open a tracked trade")
	}
}

func TestSuspendedLoopEmitsNothing(t *testing.T) {
	sink := &capture{}
	e := newEngine(t, control.NewState(control.Suspended), sink)

	warmUp(e, indicator.MinBars+5)
	if len(sink.signals) != 0 {
		t.Fatalf("suspended state must block signals, got %d", len(sink.signals))
	}
	if len(e.ActiveTrades()) != 0 {
		t.Fatalf("suspended state must not open trades")
	}
}

func TestStaleWindowSkipsCycle(t *testing.T) {
	sink := &capture{}
	e := newEngine(t, control.NewState(control.Active), sink)

	warmUp(e, indicator.MinBars+2)
	emitted := len(sink.signals)

	last, _ := e.series.Last()
	e.signalCycle(last.Ts.Add(5 * time.Hour))
	if len(sink.signals) != emitted {
		t.Fatalf("stale window must not emit a signal")
	}
}

func TestTradeResolutionFlowsToMonitor(t *testing.T) {
	sink := &capture{}
	e := newEngine(t, control.NewState(control.Active), sink)

	price := warmUp(e, indicator.MinBars+1)
	open := e.ActiveTrades()
	if len(open) == 0 {
		t.Fatalf("expected an open trade after warmup")
	}

	// spike through every long take-profit
	last, _ := e.series.Last()
	e.OnBar(market.Bar{
		Ts:    last.Ts.Add(time.Hour),
		Open:  price,
		High:  price * 1.5,
		Low:   price * 0.9999,
		Close: price * 1.4,
	})
	if len(sink.trades) == 0 {
		t.Fatalf("resolved trades must reach the notifier")
	}
	for _, tr := range sink.trades {
		if tr.Result != tracker.ResultWin {
			t.Fatalf("spike through the target must win, got %s", tr.Result)
		}
	}
	// closures reach the monitor through the performance cycle's drain
	if e.Performance().TradesClosed != 0 {
		t.Fatalf("closures must wait for the performance cycle, got %d early",
			e.Performance().TradesClosed)
	}
	e.EvaluatePerformance(last.Ts.Add(2 * time.Hour))
	if e.Performance().TradesClosed != len(sink.trades) {
		t.Fatalf("monitor window missing drained trades: %d vs %d",
			e.Performance().TradesClosed, len(sink.trades))
	}
}

func TestSweepTimesOutAgedTrades(t *testing.T) {
	sink := &capture{}
	e := newEngine(t, control.NewState(control.Active), sink)

	warmUp(e, indicator.MinBars+1)
	if len(e.ActiveTrades()) == 0 {
		t.Fatalf("expected an open trade")
	}

	last, _ := e.series.Last()
	e.SweepTrades(last.Ts.Add(5 * time.Hour))
	if len(e.ActiveTrades()) != 0 {
		t.Fatalf("aged trades must be swept")
	}
	if len(sink.trades) == 0 || sink.trades[len(sink.trades)-1].Result != tracker.ResultTimeout {
		t.Fatalf("sweep must close as timeout, got %+v", sink.trades)
	}
}

func TestEvaluatePerformanceNotifiesOnFlip(t *testing.T) {
	sink := &capture{}
	state := control.NewState(control.Active)
	e := newEngine(t, state, sink)

	for i := 0; i < 20; i++ {
		result := tracker.ResultLoss
		pl := -25.0
		if i < 9 {
			result = tracker.ResultWin
			pl = 300.0 / 9
		}
		e.monitor.Record(tracker.Trade{Result: result, ProfitLoss: pl, ClosedAt: start})
	}
	e.EvaluatePerformance(start.Add(time.Hour))
	if state.Status() != control.Suspended {
		t.Fatalf("losing window must suspend, got %s", state.Status())
	}
	if len(sink.statuses) != 1 || sink.statuses[0] != control.Suspended {
		t.Fatalf("status flip must be notified, got %v", sink.statuses)
	}

	// a second evaluation without change stays quiet
	e.EvaluatePerformance(start.Add(2 * time.Hour))
	if len(sink.statuses) != 1 {
		t.Fatalf("unchanged status must not re-notify")
	}
}
