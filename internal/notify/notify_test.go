package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/model"
	"github.com/omotosho-cloud/goldai/internal/perf"
	"github.com/omotosho-cloud/goldai/internal/retrain"
	"github.com/omotosho-cloud/goldai/internal/signal"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

func TestFormatSignal(t *testing.T) {
	sig := signal.Signal{
		Ts:         time.Date(2025, 8, 4, 14, 0, 0, 0, time.UTC),
		Class:      signal.Buy,
		Confidence: 0.82,
		EntryPrice: 2012.5,
		StopLoss:   2006.5,
		TakeProfit: 2024.5,
		Session:    "overlap",
	}
	text := formatSignal(sig)
	for _, want := range []string{"BUY", "2012.50", "82%", "overlap", "SL 2006.50", "TP 2024.50"} {
		if !strings.Contains(text, want) {
			t.Fatalf("signal text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "fallback") {
		t.Fatalf("model signal must not be marked as fallback:\n%s", text)
	}
}

func TestFormatSignalFallbackMarker(t *testing.T) {
	text := formatSignal(signal.Signal{Class: signal.Sell, Confidence: 0.60, Fallback: true})
	if !strings.Contains(text, "rule fallback") {
		t.Fatalf("fallback signal must carry the marker:\n%s", text)
	}
}

func TestFormatTrade(t *testing.T) {
	text := formatTrade(tracker.Trade{
		ID:         "T-000042",
		Signal:     signal.Signal{Class: signal.Sell},
		Result:     tracker.ResultWin,
		ProfitLoss: 8,
		ExitPrice:  1992,
	})
	for _, want := range []string{"T-000042", "SELL", "WIN", "+8.00", "1992.00"} {
		if !strings.Contains(text, want) {
			t.Fatalf("trade text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	text := formatStatus(control.Active, control.Suspended, perf.Window{
		WinRate: 0.45, ProfitFactor: 0.6, TradesClosed: 20,
	})
	for _, want := range []string{"active", "suspended", "45%", "0.60", "20"} {
		if !strings.Contains(text, want) {
			t.Fatalf("status text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatRetrain(t *testing.T) {
	activated := formatRetrain(retrain.Outcome{
		Phase:      retrain.PhaseActivated,
		VersionID:  "m20250801-020000",
		Validation: model.ValidationMetrics{WinRate: 0.61, ProfitFactor: 1.7, Trades: 34},
	})
	if !strings.Contains(activated, "m20250801-020000") || !strings.Contains(activated, "61%") {
		t.Fatalf("activation text incomplete:\n%s", activated)
	}

	rolled := formatRetrain(retrain.Outcome{
		Phase:  retrain.PhaseRolledBack,
		Reason: "win rate 0.50 below floor 0.55",
	})
	if !strings.Contains(rolled, "rolled back") || !strings.Contains(rolled, "0.50") {
		t.Fatalf("rollback text incomplete:\n%s", rolled)
	}
}

func TestMultiFansOut(t *testing.T) {
	var got []string
	rec := recorderNotifier{events: &got}
	m := Multi{rec, rec}

	m.SignalEmitted(signal.Signal{Class: signal.Buy})
	m.TradeClosed(tracker.Trade{})
	m.StatusChanged(control.Active, control.Suspended, perf.Window{})
	m.RetrainFinished(retrain.Outcome{})
	if len(got) != 8 {
		t.Fatalf("expected 8 fanned-out events, got %d", len(got))
	}
}

type recorderNotifier struct {
	events *[]string
}

func (r recorderNotifier) SignalEmitted(signal.Signal) { *r.events = append(*r.events, "signal") }
func (r recorderNotifier) TradeClosed(tracker.Trade)   { *r.events = append(*r.events, "trade") }
func (r recorderNotifier) StatusChanged(control.Status, control.Status, perf.Window) {
	*r.events = append(*r.events, "status")
}
func (r recorderNotifier) RetrainFinished(retrain.Outcome) { *r.events = append(*r.events, "retrain") }
