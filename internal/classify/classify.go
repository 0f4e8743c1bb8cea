// Package classify turns indicator snapshots into signals, either through the
// active model artifact or, when none is loaded, through a deterministic rule
// fallback. The fallback never fails; it is the availability guarantee.
package classify

import (
	"time"

	"github.com/omotosho-cloud/goldai/internal/indicator"
	"github.com/omotosho-cloud/goldai/internal/market"
	"github.com/omotosho-cloud/goldai/internal/model"
	"github.com/omotosho-cloud/goldai/internal/session"
	"github.com/omotosho-cloud/goldai/internal/signal"
)

// Params carries the classifier thresholds.
type Params struct {
	ConfidenceThreshold float64
	FallbackConfidence  float64
	ADXGate             float64
	HorizonBars         int
	ReturnPct           float64
}

// DefaultParams returns the shipped thresholds: 70% confidence gate, 0.60
// fixed fallback confidence, ADX 20 trend gate, 4-bar / ±1% labeling rule.
func DefaultParams() Params {
	return Params{
		ConfidenceThreshold: 0.70,
		FallbackConfidence:  0.60,
		ADXGate:             20,
		HorizonBars:         4,
		ReturnPct:           1.0,
	}
}

// Classifier produces signals from the artifact currently in the slot.
type Classifier struct {
	slot   *model.Slot
	params Params
}

// New builds a classifier over the shared model slot.
func New(slot *model.Slot, params Params) *Classifier {
	if params.HorizonBars <= 0 {
		params = DefaultParams()
	}
	return &Classifier{slot: slot, params: params}
}

// Features assembles the model input vector for one bar. The order is part
// of the artifact contract: retraining and inference must agree on it.
func Features(snap indicator.Snapshot, ts time.Time) []float64 {
	london, newYork, overlap := session.Flags(ts)
	return []float64{
		snap.RSI,
		snap.MACD,
		snap.MACDSignalLine,
		snap.EMAFast,
		snap.EMASlow,
		snap.ATR,
		snap.ADX,
		snap.BollingerWidth(),
		london,
		newYork,
		overlap,
	}
}

// Classify produces the signal for the latest bar of the window. With an
// artifact loaded it takes the argmax class and gates low-confidence calls
// down to Neutral while still reporting the model's confidence. Without one
// it applies the momentum rule and marks the result as fallback.
func (c *Classifier) Classify(snap indicator.Snapshot, bars []market.Bar, ts time.Time) signal.Signal {
	entry := 0.0
	if n := len(bars); n > 0 {
		entry = bars[n-1].Close
	}
	sig := signal.Signal{
		Ts:         ts,
		Class:      signal.Neutral,
		EntryPrice: entry,
		Session:    string(session.Classify(ts)),
		RSI:        snap.RSI,
		ADX:        snap.ADX,
		ATR:        snap.ATR,
	}

	artifact, ok := c.slot.Active()
	if !ok || artifact.Model == nil {
		sig.Class = FallbackClass(snap.ADX, ProjectedReturn(bars, c.params.HorizonBars), c.params)
		sig.Confidence = c.params.FallbackConfidence
		sig.Fallback = true
		return sig
	}

	classIdx, probs := artifact.Model.Predict(Features(snap, ts))
	confidence := probs[classIdx]
	sig.Confidence = confidence
	sig.Class = classFromIndex(classIdx)
	if confidence < c.params.ConfidenceThreshold {
		sig.Class = signal.Neutral
	}
	return sig
}

// ProjectedReturn estimates the forward return as the trailing return over
// the same horizon (momentum persistence), in percent.
func ProjectedReturn(bars []market.Bar, horizon int) float64 {
	n := len(bars)
	if horizon <= 0 || n <= horizon {
		return 0
	}
	anchor := bars[n-1-horizon].Close
	if anchor <= 0 {
		return 0
	}
	return (bars[n-1].Close/anchor - 1) * 100
}

// FallbackClass applies the rule: Buy when the projected return clears
// +ReturnPct with ADX above the gate, Sell mirrored, Neutral otherwise.
func FallbackClass(adx, projectedReturn float64, params Params) signal.Class {
	if adx <= params.ADXGate {
		return signal.Neutral
	}
	switch {
	case projectedReturn > params.ReturnPct:
		return signal.Buy
	case projectedReturn < -params.ReturnPct:
		return signal.Sell
	default:
		return signal.Neutral
	}
}

func classFromIndex(idx int) signal.Class {
	switch idx {
	case model.ClassBuy:
		return signal.Buy
	case model.ClassSell:
		return signal.Sell
	default:
		return signal.Neutral
	}
}
