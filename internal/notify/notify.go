// Package notify pushes human-facing events out of the control loop: emitted
// signals, resolved trades, status flips, and retrain results. Delivery
// failures are logged and swallowed; notifications never stall the loop.
package notify

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/perf"
	"github.com/omotosho-cloud/goldai/internal/retrain"
	"github.com/omotosho-cloud/goldai/internal/signal"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

// Notifier receives the loop's human-facing events.
type Notifier interface {
	SignalEmitted(sig signal.Signal)
	TradeClosed(trade tracker.Trade)
	StatusChanged(from, to control.Status, window perf.Window)
	RetrainFinished(outcome retrain.Outcome)
}

// Log writes every event through the structured logger. It is always wired,
// even when no external channel is configured.
type Log struct {
	log zerolog.Logger
}

// NewLog builds the logging notifier.
func NewLog(log zerolog.Logger) *Log {
	return &Log{log: log.With().Str("component", "notify").Logger()}
}

func (l *Log) SignalEmitted(sig signal.Signal) {
	l.log.Info().
		Str("class", string(sig.Class)).
		Float64("confidence", sig.Confidence).
		Float64("entry", sig.EntryPrice).
		Str("session", sig.Session).
		Bool("fallback", sig.Fallback).
		Msg("signal emitted")
}

func (l *Log) TradeClosed(trade tracker.Trade) {
	l.log.Info().
		Str("trade", trade.ID).
		Str("result", string(trade.Result)).
		Float64("pl", trade.ProfitLoss).
		Msg("trade resolved")
}

func (l *Log) StatusChanged(from, to control.Status, window perf.Window) {
	l.log.Warn().
		Str("from", string(from)).
		Str("to", string(to)).
		Float64("win_rate", window.WinRate).
		Float64("profit_factor", window.ProfitFactor).
		Msg("control status changed")
}

func (l *Log) RetrainFinished(outcome retrain.Outcome) {
	evt := l.log.Info()
	if outcome.Phase == retrain.PhaseRolledBack {
		evt = l.log.Warn()
	}
	evt.
		Str("phase", string(outcome.Phase)).
		Str("version", outcome.VersionID).
		Str("reason", outcome.Reason).
		Msg("retrain finished")
}

// Multi fans events out to all notifiers.
type Multi []Notifier

func (m Multi) SignalEmitted(sig signal.Signal) {
	for _, n := range m {
		n.SignalEmitted(sig)
	}
}

func (m Multi) TradeClosed(trade tracker.Trade) {
	for _, n := range m {
		n.TradeClosed(trade)
	}
}

func (m Multi) StatusChanged(from, to control.Status, window perf.Window) {
	for _, n := range m {
		n.StatusChanged(from, to, window)
	}
}

func (m Multi) RetrainFinished(outcome retrain.Outcome) {
	for _, n := range m {
		n.RetrainFinished(outcome)
	}
}

// Nop ignores everything.
type Nop struct{}

func (Nop) SignalEmitted(signal.Signal)                               {}
func (Nop) TradeClosed(tracker.Trade)                                 {}
func (Nop) StatusChanged(control.Status, control.Status, perf.Window) {}
func (Nop) RetrainFinished(retrain.Outcome)                           {}

func formatSignal(sig signal.Signal) string {
	arrow := "⚪"
	switch sig.Class {
	case signal.Buy:
		arrow = "🟢"
	case signal.Sell:
		arrow = "🔴"
	}
	text := fmt.Sprintf(
		"%s <b>%s</b> @ %.2f\nConfidence: %.0f%%\nSession: %s",
		arrow, sig.Class, sig.EntryPrice, sig.Confidence*100, sig.Session,
	)
	if sig.Class.Tradeable() {
		text += fmt.Sprintf("\nSL %.2f / TP %.2f", sig.StopLoss, sig.TakeProfit)
	}
	if sig.Fallback {
		text += "\n<i>rule fallback</i>"
	}
	return text
}

func formatTrade(trade tracker.Trade) string {
	return fmt.Sprintf(
		"Trade %s %s: %s, P/L %+.2f (exit %.2f)",
		trade.ID, trade.Signal.Class, trade.Result, trade.ProfitLoss, trade.ExitPrice,
	)
}

func formatStatus(from, to control.Status, window perf.Window) string {
	return fmt.Sprintf(
		"⚠️ Status %s → %s\nWin rate %.0f%%, profit factor %.2f over %d trades",
		from, to, window.WinRate*100, window.ProfitFactor, window.TradesClosed,
	)
}

func formatRetrain(outcome retrain.Outcome) string {
	if outcome.Phase == retrain.PhaseActivated {
		return fmt.Sprintf(
			"✅ Model %s activated\nHoldout: win rate %.0f%%, PF %.2f, %d trades",
			outcome.VersionID, outcome.Validation.WinRate*100,
			outcome.Validation.ProfitFactor, outcome.Validation.Trades,
		)
	}
	return fmt.Sprintf("↩️ Retrain rolled back: %s", outcome.Reason)
}
