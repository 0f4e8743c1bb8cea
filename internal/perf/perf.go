// Package perf aggregates closed trades into rolling performance windows and
// flips the control state when the signals stop earning their keep.
package perf

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/metrics"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

// ProfitFactorUndefined marks a window with zero gross loss. An undefined
// profit factor never triggers a suspension; losing nothing is not a defect.
const ProfitFactorUndefined = -1

// Window summarizes the closed trades inside one evaluation span. Win rate
// counts only decisive closures; timeouts still contribute their profit or
// loss to the gross totals.
type Window struct {
	TradesClosed int     `json:"trades_closed"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Timeouts     int     `json:"timeouts"`
	GrossProfit  float64 `json:"gross_profit"`
	GrossLoss    float64 `json:"gross_loss"`
	NetProfit    float64 `json:"net_profit"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
}

// Compute folds the trades into a window.
func Compute(trades []tracker.Trade) Window {
	var w Window
	for _, t := range trades {
		w.TradesClosed++
		switch t.Result {
		case tracker.ResultWin:
			w.Wins++
		case tracker.ResultLoss:
			w.Losses++
		case tracker.ResultTimeout:
			w.Timeouts++
		}
		if t.ProfitLoss >= 0 {
			w.GrossProfit += t.ProfitLoss
		} else {
			w.GrossLoss += -t.ProfitLoss
		}
	}
	w.NetProfit = w.GrossProfit - w.GrossLoss
	if decisive := w.Wins + w.Losses; decisive > 0 {
		w.WinRate = float64(w.Wins) / float64(decisive)
	}
	if w.GrossLoss > 0 {
		w.ProfitFactor = w.GrossProfit / w.GrossLoss
	} else {
		w.ProfitFactor = ProfitFactorUndefined
	}
	return w
}

// Thresholds are the suspension bounds.
type Thresholds struct {
	MinWinRate      float64
	MinProfitFactor float64
	MinTrades       int
}

// DefaultThresholds returns the shipped bounds: 55% win rate, 1.2 profit
// factor, measured over at least 20 closed trades.
func DefaultThresholds() Thresholds {
	return Thresholds{MinWinRate: 0.55, MinProfitFactor: 1.2, MinTrades: 20}
}

func (th Thresholds) pass(w Window) bool {
	if w.WinRate < th.MinWinRate {
		return false
	}
	if w.ProfitFactor != ProfitFactorUndefined && w.ProfitFactor < th.MinProfitFactor {
		return false
	}
	return true
}

// Monitor keeps the rolling trade buffer and applies the suspension rule on
// each evaluation.
type Monitor struct {
	mu         sync.Mutex
	state      *control.State
	thresholds Thresholds
	window     time.Duration
	trades     []tracker.Trade
	log        zerolog.Logger
}

// NewMonitor builds a monitor over the shared control state. window bounds
// how far back closed trades count toward an evaluation.
func NewMonitor(state *control.State, thresholds Thresholds, window time.Duration, log zerolog.Logger) *Monitor {
	if thresholds.MinTrades <= 0 {
		thresholds = DefaultThresholds()
	}
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &Monitor{
		state:      state,
		thresholds: thresholds,
		window:     window,
		log:        log.With().Str("component", "perf").Logger(),
	}
}

// Record adds closed trades to the rolling buffer.
func (m *Monitor) Record(trades ...tracker.Trade) {
	if len(trades) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, trades...)
}

// Evaluate computes the current window and applies the suspension rule:
// below-threshold performance over at least MinTrades closures suspends
// signal generation; recovering past both thresholds with a positive net
// requires more than clearing the bar, the window has to have made money.
func (m *Monitor) Evaluate(now time.Time) (Window, control.Status) {
	m.mu.Lock()
	cutoff := now.Add(-m.window)
	kept := m.trades[:0]
	for _, t := range m.trades {
		if t.ClosedAt.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.trades = kept
	w := Compute(kept)
	m.mu.Unlock()

	status := m.state.Status()
	// a window of nothing but timeouts carries no directional evidence:
	// WinRate is 0 by arithmetic, not by performance
	if w.TradesClosed >= m.thresholds.MinTrades && w.Wins+w.Losses > 0 {
		switch {
		case status != control.Suspended && !m.thresholds.pass(w):
			m.transition(control.Suspended, w)
		// Suspended recovers, Testing graduates; both need a profitable window
		case status != control.Active && m.thresholds.pass(w) && w.NetProfit > 0:
			m.transition(control.Active, w)
		}
	}
	return w, m.state.Status()
}

// Snapshot returns the current window without touching the control state.
func (m *Monitor) Snapshot() Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Compute(m.trades)
}

func (m *Monitor) transition(to control.Status, w Window) {
	if !m.state.Set(to) {
		return
	}
	metrics.StatusChangesTotal.WithLabelValues(string(to)).Inc()
	m.log.Warn().
		Str("status", string(to)).
		Float64("win_rate", w.WinRate).
		Float64("profit_factor", w.ProfitFactor).
		Int("trades", w.TradesClosed).
		Msg("signal generation status changed")
}
