// Package retrain owns the model lifecycle: fit a candidate on recent
// history, validate it on a holdout segment, and either activate it
// atomically or keep the incumbent. The previous model always survives the
// swap as the rollback target.
package retrain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/classify"
	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/market"
	"github.com/omotosho-cloud/goldai/internal/metrics"
	"github.com/omotosho-cloud/goldai/internal/model"
	"github.com/omotosho-cloud/goldai/internal/perf"
	"github.com/omotosho-cloud/goldai/internal/risk"
)

// ErrRetrainInProgress rejects a retrain request while one is running. The
// caller should not queue; the next scheduled slot will pick it up.
var ErrRetrainInProgress = errors.New("retrain: cycle already running")

// Phase tracks where a retrain cycle is, for status reporting.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseTraining   Phase = "training"
	PhaseValidating Phase = "validating"
	PhaseActivated  Phase = "activated"
	PhaseRolledBack Phase = "rolled_back"
)

// Params tune one retrain cycle.
type Params struct {
	HistoryDays      int
	BarInterval      time.Duration
	HoldoutFraction  float64
	WinRateTolerance float64
	ProfitTolerance  float64
	MinHoldoutTrades int
	Timeout          time.Duration
	MaxTradeBars     int
	Classify         classify.Params
	Risk             risk.Multipliers
	Floor            perf.Thresholds
}

// DefaultParams returns the shipped retrain settings: a year of hourly bars,
// 20% holdout, and tolerance bands of 5 points of win rate and 0.2 of profit
// factor against the incumbent.
func DefaultParams() Params {
	return Params{
		HistoryDays:      365,
		BarInterval:      time.Hour,
		HoldoutFraction:  0.2,
		WinRateTolerance: 0.05,
		ProfitTolerance:  0.2,
		MinHoldoutTrades: 10,
		Timeout:          30 * time.Minute,
		MaxTradeBars:     4,
		Classify:         classify.DefaultParams(),
		Risk:             risk.Defaults(),
		Floor:            perf.DefaultThresholds(),
	}
}

// Outcome describes how the last retrain cycle ended.
type Outcome struct {
	Phase      Phase                   `json:"phase"`
	VersionID  string                  `json:"version_id,omitempty"`
	Reason     string                  `json:"reason,omitempty"`
	Validation model.ValidationMetrics `json:"validation"`
	FinishedAt time.Time               `json:"finished_at"`
}

// Controller runs retrain cycles one at a time.
type Controller struct {
	mu      sync.Mutex
	running bool
	phase   Phase
	last    Outcome

	history market.History
	store   *model.Store
	slot    *model.Slot
	state   *control.State
	params  Params
	log     zerolog.Logger
}

// NewController wires a controller over the shared store, slot, and control
// state.
func NewController(history market.History, store *model.Store, slot *model.Slot, state *control.State, params Params, log zerolog.Logger) *Controller {
	if params.HistoryDays <= 0 {
		params = DefaultParams()
	}
	return &Controller{
		phase:   PhaseIdle,
		history: history,
		store:   store,
		slot:    slot,
		state:   state,
		params:  params,
		log:     log.With().Str("component", "retrain").Logger(),
	}
}

// Phase returns the current cycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// LastOutcome returns how the most recent cycle ended.
func (c *Controller) LastOutcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Run executes one full cycle. Concurrent calls beyond the first get
// ErrRetrainInProgress. A rejected candidate leaves the active model
// untouched; an accepted one is saved, activated, swapped into the slot, and
// the control state moves to Testing for live proving.
func (c *Controller) Run(ctx context.Context, now time.Time) (Outcome, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return Outcome{}, ErrRetrainInProgress
	}
	c.running = true
	c.phase = PhaseTraining
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.params.Timeout)
	defer cancel()

	outcome, err := c.cycle(ctx, now)
	c.mu.Lock()
	c.phase = outcome.Phase
	c.last = outcome
	c.mu.Unlock()
	return outcome, err
}

func (c *Controller) cycle(ctx context.Context, now time.Time) (Outcome, error) {
	from := now.AddDate(0, 0, -c.params.HistoryDays)
	bars, err := c.history.Bars(ctx, from, now, c.params.BarInterval)
	if err != nil {
		metrics.RetrainsTotal.WithLabelValues("failed").Inc()
		return c.rollback("history fetch failed"), fmt.Errorf("fetch history: %w", err)
	}

	holdoutStart := int(float64(len(bars)) * (1 - c.params.HoldoutFraction))
	if holdoutStart <= 0 || holdoutStart >= len(bars) {
		metrics.RetrainsTotal.WithLabelValues("failed").Inc()
		return c.rollback("not enough history to split"), fmt.Errorf("history too short: %d bars", len(bars))
	}
	trainBars, holdoutBars := bars[:holdoutStart], bars[holdoutStart:]

	features, labels := classify.BuildDataset(trainBars, c.params.Classify)
	candidate, err := model.Train(features, labels, model.TrainParams{})
	if err != nil {
		metrics.RetrainsTotal.WithLabelValues("failed").Inc()
		return c.rollback("training failed"), fmt.Errorf("train candidate: %w", err)
	}
	if err := ctx.Err(); err != nil {
		metrics.RetrainsTotal.WithLabelValues("failed").Inc()
		return c.rollback("training timed out"), err
	}

	c.mu.Lock()
	c.phase = PhaseValidating
	c.mu.Unlock()

	validation := Simulate(holdoutBars, candidate, c.params)
	c.log.Info().
		Float64("win_rate", validation.WinRate).
		Float64("profit_factor", validation.ProfitFactor).
		Int("trades", validation.Trades).
		Msg("holdout validation complete")

	if reason := c.vet(validation); reason != "" {
		metrics.RetrainsTotal.WithLabelValues("rolled_back").Inc()
		c.log.Warn().Str("reason", reason).Msg("candidate rejected, incumbent retained")
		out := c.rollback(reason)
		out.Validation = validation
		return out, nil
	}

	artifact := &model.Artifact{
		VersionID:  "m" + now.UTC().Format("20060102-150405"),
		TrainedAt:  now.UTC(),
		Validation: validation,
		Model:      candidate,
	}
	if err := c.store.Save(artifact); err != nil {
		metrics.RetrainsTotal.WithLabelValues("failed").Inc()
		return c.rollback("artifact save failed"), err
	}
	if err := c.store.Activate(artifact.VersionID); err != nil {
		metrics.RetrainsTotal.WithLabelValues("failed").Inc()
		return c.rollback("artifact activation failed"), err
	}
	c.slot.Swap(artifact)
	if c.state.Set(control.Testing) {
		metrics.StatusChangesTotal.WithLabelValues(string(control.Testing)).Inc()
	}
	metrics.RetrainsTotal.WithLabelValues("activated").Inc()
	c.log.Info().Str("version", artifact.VersionID).Msg("candidate activated")

	return Outcome{
		Phase:      PhaseActivated,
		VersionID:  artifact.VersionID,
		Validation: validation,
		FinishedAt: time.Now().UTC(),
	}, nil
}

// vet returns a rejection reason, or empty when the candidate may ship. The
// candidate must clear the absolute floor and must not trail the incumbent
// by more than the tolerance bands.
func (c *Controller) vet(v model.ValidationMetrics) string {
	if v.Trades < c.params.MinHoldoutTrades {
		return fmt.Sprintf("only %d holdout trades, need %d", v.Trades, c.params.MinHoldoutTrades)
	}
	if v.WinRate < c.params.Floor.MinWinRate {
		return fmt.Sprintf("win rate %.2f below floor %.2f", v.WinRate, c.params.Floor.MinWinRate)
	}
	if v.ProfitFactor != perf.ProfitFactorUndefined && v.ProfitFactor < c.params.Floor.MinProfitFactor {
		return fmt.Sprintf("profit factor %.2f below floor %.2f", v.ProfitFactor, c.params.Floor.MinProfitFactor)
	}

	incumbent, ok := c.slot.Active()
	if !ok {
		return ""
	}
	prev := incumbent.Validation
	if v.WinRate < prev.WinRate-c.params.WinRateTolerance {
		return fmt.Sprintf("win rate %.2f trails incumbent %.2f beyond tolerance", v.WinRate, prev.WinRate)
	}
	if prev.ProfitFactor != perf.ProfitFactorUndefined &&
		v.ProfitFactor != perf.ProfitFactorUndefined &&
		v.ProfitFactor < prev.ProfitFactor-c.params.ProfitTolerance {
		return fmt.Sprintf("profit factor %.2f trails incumbent %.2f beyond tolerance", v.ProfitFactor, prev.ProfitFactor)
	}
	return ""
}

func (c *Controller) rollback(reason string) Outcome {
	return Outcome{
		Phase:      PhaseRolledBack,
		Reason:     reason,
		FinishedAt: time.Now().UTC(),
	}
}
