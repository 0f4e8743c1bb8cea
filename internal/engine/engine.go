// Package engine wires the feed, classifier, tracker, monitor, and retrainer
// into the hourly control loop and exposes the read facade over it.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/classify"
	"github.com/omotosho-cloud/goldai/internal/config"
	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/indicator"
	"github.com/omotosho-cloud/goldai/internal/journal"
	"github.com/omotosho-cloud/goldai/internal/market"
	"github.com/omotosho-cloud/goldai/internal/metrics"
	"github.com/omotosho-cloud/goldai/internal/notify"
	"github.com/omotosho-cloud/goldai/internal/perf"
	"github.com/omotosho-cloud/goldai/internal/retrain"
	"github.com/omotosho-cloud/goldai/internal/risk"
	"github.com/omotosho-cloud/goldai/internal/signal"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

// BarSource abstracts the feed so tests can drive the loop with scripted
// bars.
type BarSource interface {
	Run(ctx context.Context, out chan<- market.Bar) error
}

// Deps bundles everything the engine composes.
type Deps struct {
	Config     *config.Config
	Source     BarSource
	Classifier *classify.Classifier
	Risk       risk.Multipliers
	Tracker    *tracker.Tracker
	Monitor    *perf.Monitor
	State      *control.State
	Retrainer  *retrain.Controller
	Journal    journal.Recorder
	Notifier   notify.Notifier
	Log        zerolog.Logger
}

// Engine runs the control loop.
type Engine struct {
	cfg        *config.Config
	source     BarSource
	classifier *classify.Classifier
	riskMults  risk.Multipliers
	trk        *tracker.Tracker
	monitor    *perf.Monitor
	state      *control.State
	retrainer  *retrain.Controller
	journal    journal.Recorder
	notifier   notify.Notifier
	log        zerolog.Logger

	series *market.Series

	mu            sync.Mutex
	lastSignal    signal.Signal
	hasSignal     bool
	lastCycleHour time.Time
	lastRetrain   time.Time
}

// New assembles the engine. Nil journal and notifier default to no-ops.
func New(d Deps) *Engine {
	if d.Journal == nil {
		d.Journal = journal.Nop{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Nop{}
	}
	return &Engine{
		cfg:        d.Config,
		source:     d.Source,
		classifier: d.Classifier,
		riskMults:  d.Risk,
		trk:        d.Tracker,
		monitor:    d.Monitor,
		state:      d.State,
		retrainer:  d.Retrainer,
		journal:    d.Journal,
		notifier:   d.Notifier,
		log:        d.Log.With().Str("component", "engine").Logger(),
		series:     market.NewSeries(d.Config.Feed.WindowBars),
	}
}

// Run blocks until the context is canceled. One goroutine consumes the feed;
// tickers drive the sweep, the performance evaluation, and the retrain
// schedule check.
func (e *Engine) Run(ctx context.Context) error {
	bars := make(chan market.Bar, 16)
	feedErr := make(chan error, 1)
	go func() { feedErr <- e.source.Run(ctx, bars) }()

	sweep := time.NewTicker(time.Duration(e.cfg.Tracker.SweepSecs) * time.Second)
	defer sweep.Stop()
	evaluate := time.NewTicker(time.Duration(e.cfg.Performance.EvalHours) * time.Hour)
	defer evaluate.Stop()
	schedule := time.NewTicker(time.Minute)
	defer schedule.Stop()

	e.log.Info().
		Str("symbol", e.cfg.Feed.Symbol).
		Str("provider", e.cfg.Feed.Provider).
		Msg("control loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-feedErr:
			if errors.Is(err, context.Canceled) {
				return err
			}
			e.log.Error().Err(err).Msg("feed terminated")
			return err
		case bar := <-bars:
			e.OnBar(bar)
		case now := <-sweep.C:
			e.SweepTrades(now.UTC())
		case now := <-evaluate.C:
			e.EvaluatePerformance(now.UTC())
		case now := <-schedule.C:
			e.maybeRetrain(ctx, now.UTC())
		}
	}
}

// OnBar ingests one closed bar: resolve open trades against it, then run the
// signal cycle if this bar opens a new hour.
func (e *Engine) OnBar(bar market.Bar) {
	if !e.series.Append(bar) {
		e.log.Warn().Time("ts", bar.Ts).Msg("out-of-order bar dropped")
		return
	}
	e.handleClosed(e.trk.Evaluate(bar))

	hour := bar.Ts.UTC().Truncate(time.Hour)
	e.mu.Lock()
	if !hour.After(e.lastCycleHour) {
		e.mu.Unlock()
		return
	}
	e.lastCycleHour = hour
	e.mu.Unlock()

	e.signalCycle(bar.Ts.UTC())
}

// signalCycle classifies the latest window and emits at most one signal per
// hour. A stale window skips the cycle entirely; fabricating a signal off
// old data is worse than staying quiet.
func (e *Engine) signalCycle(now time.Time) {
	if err := e.series.CheckFresh(now, e.cfg.MaxLag()); err != nil {
		metrics.CyclesSkippedTotal.WithLabelValues("signal").Inc()
		e.log.Warn().Err(err).Msg("signal cycle skipped")
		return
	}
	if !e.state.SignalsAllowed() {
		e.log.Info().Msg("signal generation suspended, no signal this hour")
		return
	}

	bars := e.series.Bars()
	snap, err := indicator.Compute(bars)
	if err != nil {
		e.log.Debug().Err(err).Int("bars", len(bars)).Msg("window not warm yet")
		return
	}

	sig := e.classifier.Classify(snap, bars, now)
	if sig.Class.Tradeable() {
		stop, take, err := e.riskMults.Levels(sig.Class, sig.EntryPrice, snap.ATR)
		if err != nil {
			e.log.Warn().Err(err).Msg("risk levels unavailable, downgrading to neutral")
			sig.Class = signal.Neutral
		} else {
			sig.StopLoss, sig.TakeProfit = stop, take
		}
	}

	metrics.SignalsTotal.WithLabelValues(string(sig.Class)).Inc()
	if sig.Fallback {
		metrics.FallbackSignalsTotal.Inc()
	}

	e.mu.Lock()
	e.lastSignal = sig
	e.hasSignal = true
	e.mu.Unlock()

	if err := e.journal.RecordSignal(sig); err != nil {
		e.log.Error().Err(err).Msg("journal signal failed")
	}
	e.notifier.SignalEmitted(sig)
	e.trk.Open(sig)
}

// SweepTrades times out stale positions at the latest close.
func (e *Engine) SweepTrades(now time.Time) {
	last, ok := e.series.Last()
	if !ok {
		return
	}
	e.handleClosed(e.trk.SweepTimeouts(now, last.Close))
}

// EvaluatePerformance drains the closures accumulated since the last cycle
// into the monitor, runs one evaluation, and notifies on a status flip.
func (e *Engine) EvaluatePerformance(now time.Time) {
	e.monitor.Record(e.trk.DrainClosed()...)
	before := e.state.Status()
	window, after := e.monitor.Evaluate(now)
	if before != after {
		e.notifier.StatusChanged(before, after, window)
	}
}

// RequestRetrain triggers a retrain cycle immediately, outside the monthly
// schedule.
func (e *Engine) RequestRetrain(ctx context.Context) (retrain.Outcome, error) {
	outcome, err := e.retrainer.Run(ctx, time.Now().UTC())
	if err == nil {
		e.notifier.RetrainFinished(outcome)
	}
	return outcome, err
}

// maybeRetrain fires the scheduled cycle once per month at the configured
// day and hour. An overrunning cycle is skipped, never queued.
func (e *Engine) maybeRetrain(ctx context.Context, now time.Time) {
	if now.Day() != e.cfg.Retrain.DayOfMonth || now.Hour() != e.cfg.Retrain.Hour {
		return
	}
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	e.mu.Lock()
	if !month.After(e.lastRetrain) {
		e.mu.Unlock()
		return
	}
	e.lastRetrain = month
	e.mu.Unlock()

	go func() {
		outcome, err := e.retrainer.Run(ctx, now)
		if errors.Is(err, retrain.ErrRetrainInProgress) {
			metrics.CyclesSkippedTotal.WithLabelValues("retrain").Inc()
			return
		}
		if err != nil {
			e.log.Error().Err(err).Msg("scheduled retrain failed")
			return
		}
		e.notifier.RetrainFinished(outcome)
	}()
}

func (e *Engine) handleClosed(trades []tracker.Trade) {
	if len(trades) == 0 {
		return
	}
	for _, t := range trades {
		if err := e.journal.RecordTrade(t); err != nil {
			e.log.Error().Err(err).Str("trade", t.ID).Msg("journal trade failed")
		}
		e.notifier.TradeClosed(t)
	}
}

// CurrentSignal returns the most recent signal, false before the first cycle.
func (e *Engine) CurrentSignal() (signal.Signal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSignal, e.hasSignal
}

// ActiveTrades snapshots the open synthetic positions.
func (e *Engine) ActiveTrades() []tracker.Trade {
	return e.trk.Active()
}

// Performance returns the current rolling window without side effects.
func (e *Engine) Performance() perf.Window {
	return e.monitor.Snapshot()
}

// Status returns the signal gating state.
func (e *Engine) Status() control.Status {
	return e.state.Status()
}
