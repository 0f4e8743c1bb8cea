// Package tracker follows each emitted signal as a synthetic trade from entry
// to stop, target, or timeout. No orders are placed anywhere; the trades exist
// to measure whether the signals would have made money.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/market"
	"github.com/omotosho-cloud/goldai/internal/metrics"
	"github.com/omotosho-cloud/goldai/internal/signal"
)

// Result is the terminal state of a trade.
type Result string

const (
	ResultOpen    Result = "OPEN"
	ResultWin     Result = "WIN"
	ResultLoss    Result = "LOSS"
	ResultTimeout Result = "TIMEOUT"
)

// Trade is one synthetic position derived from a signal.
type Trade struct {
	ID         string        `json:"id"`
	Signal     signal.Signal `json:"signal"`
	OpenedAt   time.Time     `json:"opened_at"`
	ClosedAt   time.Time     `json:"closed_at,omitempty"`
	ExitPrice  float64       `json:"exit_price,omitempty"`
	ProfitLoss float64       `json:"profit_loss"`
	Result     Result        `json:"result"`
}

// Decisive reports whether the trade resolved by hitting a level rather than
// aging out. Timeouts still contribute their profit or loss to the profit
// factor but not to the win rate.
func (t Trade) Decisive() bool {
	return t.Result == ResultWin || t.Result == ResultLoss
}

// Tracker holds the open positions and a buffer of recently closed ones.
type Tracker struct {
	mu     sync.Mutex
	state  *control.State
	maxAge time.Duration
	open   []*Trade
	closed []Trade
	seq    int
	log    zerolog.Logger
}

// New builds a tracker. maxAge bounds how long a trade may stay open before
// the sweep closes it as a timeout.
func New(state *control.State, maxAge time.Duration, log zerolog.Logger) *Tracker {
	if maxAge <= 0 {
		maxAge = 4 * time.Hour
	}
	return &Tracker{
		state:  state,
		maxAge: maxAge,
		log:    log.With().Str("component", "tracker").Logger(),
	}
}

// Open starts a trade for the signal. It refuses non-tradeable signals and,
// when signal generation is suspended, everything.
func (t *Tracker) Open(sig signal.Signal) (*Trade, bool) {
	if !sig.Class.Tradeable() {
		return nil, false
	}
	if t.state != nil && !t.state.SignalsAllowed() {
		t.log.Warn().Str("class", string(sig.Class)).Msg("signal dropped while suspended")
		return nil, false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	trade := &Trade{
		ID:       fmt.Sprintf("T-%06d", t.seq),
		Signal:   sig,
		OpenedAt: sig.Ts,
		Result:   ResultOpen,
	}
	t.open = append(t.open, trade)
	metrics.TradesOpenedTotal.Inc()
	t.log.Info().
		Str("trade", trade.ID).
		Str("class", string(sig.Class)).
		Float64("entry", sig.EntryPrice).
		Float64("stop", sig.StopLoss).
		Float64("take", sig.TakeProfit).
		Msg("trade opened")
	return trade, true
}

// Evaluate resolves open trades against one closed bar and returns the trades
// it closed. When a bar's range crosses both the stop and the target, the
// stop wins: without intra-bar data the pessimistic reading is the only safe
// one.
func (t *Tracker) Evaluate(bar market.Bar) []Trade {
	t.mu.Lock()
	defer t.mu.Unlock()

	var done []Trade
	remaining := t.open[:0]
	for _, trade := range t.open {
		exit, result := resolve(trade.Signal, bar)
		if result == ResultOpen {
			remaining = append(remaining, trade)
			continue
		}
		t.closeLocked(trade, bar.Ts, exit, result)
		done = append(done, *trade)
	}
	t.open = remaining
	return done
}

// SweepTimeouts closes trades older than maxAge at the mark price. The
// profit or loss keeps the sign the position had at the sweep.
func (t *Tracker) SweepTimeouts(now time.Time, mark float64) []Trade {
	t.mu.Lock()
	defer t.mu.Unlock()

	var done []Trade
	remaining := t.open[:0]
	for _, trade := range t.open {
		if now.Sub(trade.OpenedAt) < t.maxAge {
			remaining = append(remaining, trade)
			continue
		}
		t.closeLocked(trade, now, mark, ResultTimeout)
		done = append(done, *trade)
	}
	t.open = remaining
	return done
}

// Active returns a snapshot of the open trades.
func (t *Tracker) Active() []Trade {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Trade, len(t.open))
	for i, trade := range t.open {
		out[i] = *trade
	}
	return out
}

// DrainClosed returns the closed trades accumulated since the last drain.
func (t *Tracker) DrainClosed() []Trade {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.closed
	t.closed = nil
	return out
}

func (t *Tracker) closeLocked(trade *Trade, at time.Time, exit float64, result Result) {
	trade.ClosedAt = at
	trade.ExitPrice = exit
	trade.Result = result
	switch trade.Signal.Class {
	case signal.Buy:
		trade.ProfitLoss = exit - trade.Signal.EntryPrice
	case signal.Sell:
		trade.ProfitLoss = trade.Signal.EntryPrice - exit
	}
	t.closed = append(t.closed, *trade)
	metrics.TradesClosedTotal.WithLabelValues(string(result)).Inc()
	t.log.Info().
		Str("trade", trade.ID).
		Str("result", string(result)).
		Float64("exit", exit).
		Float64("pl", trade.ProfitLoss).
		Msg("trade closed")
}

func resolve(sig signal.Signal, bar market.Bar) (float64, Result) {
	switch sig.Class {
	case signal.Buy:
		if bar.Low <= sig.StopLoss {
			return sig.StopLoss, ResultLoss
		}
		if bar.High >= sig.TakeProfit {
			return sig.TakeProfit, ResultWin
		}
	case signal.Sell:
		if bar.High >= sig.StopLoss {
			return sig.StopLoss, ResultLoss
		}
		if bar.Low <= sig.TakeProfit {
			return sig.TakeProfit, ResultWin
		}
	}
	return 0, ResultOpen
}
