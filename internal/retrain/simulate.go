package retrain

import (
	"github.com/omotosho-cloud/goldai/internal/classify"
	"github.com/omotosho-cloud/goldai/internal/indicator"
	"github.com/omotosho-cloud/goldai/internal/market"
	"github.com/omotosho-cloud/goldai/internal/model"
	"github.com/omotosho-cloud/goldai/internal/perf"
	"github.com/omotosho-cloud/goldai/internal/signal"
	"github.com/omotosho-cloud/goldai/internal/tracker"
)

const simulationContext = 200

// Simulate replays the candidate over the holdout bars exactly as the live
// loop would run it: classify each bar, gate on confidence, size the levels
// from ATR, then resolve against the following bars with the same pessimistic
// both-crossed rule. Entries without a full forward window are skipped rather
// than truncated.
func Simulate(bars []market.Bar, clf *model.Classifier, params Params) model.ValidationMetrics {
	maxBars := params.MaxTradeBars
	if maxBars <= 0 {
		maxBars = 4
	}

	var trades []tracker.Trade
	for i := indicator.MinBars - 1; i < len(bars)-maxBars; i++ {
		start := i + 1 - simulationContext
		if start < 0 {
			start = 0
		}
		snap, err := indicator.Compute(bars[start : i+1])
		if err != nil {
			continue
		}

		idx, probs := clf.Predict(classify.Features(snap, bars[i].Ts))
		if probs[idx] < params.Classify.ConfidenceThreshold {
			continue
		}
		class := classFromIndex(idx)
		if !class.Tradeable() {
			continue
		}

		entry := bars[i].Close
		stop, take, err := params.Risk.Levels(class, entry, snap.ATR)
		if err != nil {
			continue
		}
		trades = append(trades, playOut(class, entry, stop, take, bars[i+1:i+1+maxBars]))
	}

	w := perf.Compute(trades)
	return model.ValidationMetrics{
		WinRate:      w.WinRate,
		ProfitFactor: w.ProfitFactor,
		Trades:       w.TradesClosed,
	}
}

// playOut walks the forward bars until a level is hit, closing at the last
// bar's close as a timeout otherwise.
func playOut(class signal.Class, entry, stop, take float64, forward []market.Bar) tracker.Trade {
	sign := 1.0
	if class == signal.Sell {
		sign = -1
	}
	for _, bar := range forward {
		switch class {
		case signal.Buy:
			if bar.Low <= stop {
				return tracker.Trade{Result: tracker.ResultLoss, ProfitLoss: stop - entry}
			}
			if bar.High >= take {
				return tracker.Trade{Result: tracker.ResultWin, ProfitLoss: take - entry}
			}
		case signal.Sell:
			if bar.High >= stop {
				return tracker.Trade{Result: tracker.ResultLoss, ProfitLoss: entry - stop}
			}
			if bar.Low <= take {
				return tracker.Trade{Result: tracker.ResultWin, ProfitLoss: entry - take}
			}
		}
	}
	last := forward[len(forward)-1].Close
	return tracker.Trade{Result: tracker.ResultTimeout, ProfitLoss: sign * (last - entry)}
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
