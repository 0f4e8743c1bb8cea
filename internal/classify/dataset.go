package classify

import (
	"github.com/omotosho-cloud/goldai/internal/indicator"
	"github.com/omotosho-cloud/goldai/internal/market"
	"github.com/omotosho-cloud/goldai/internal/model"
)

// contextBars bounds the per-row indicator window so dataset construction
// stays linear in history length.
const contextBars = 200

// BuildDataset back-labels a bar history for training. Each labelable bar
// yields the same feature vector inference would see, labeled Buy when the
// forward return over the horizon clears +ReturnPct with ADX above the gate,
// Sell mirrored, Neutral otherwise. Bars whose forward window runs past the
// end of the history are excluded rather than guessed.
func BuildDataset(bars []market.Bar, params Params) ([][]float64, []int) {
	var features [][]float64
	var labels []int

	for i := indicator.MinBars - 1; i < len(bars)-params.HorizonBars; i++ {
		start := i + 1 - contextBars
		if start < 0 {
			start = 0
		}
		snap, err := indicator.Compute(bars[start : i+1])
		if err != nil {
			continue
		}

		anchor := bars[i].Close
		if anchor <= 0 {
			continue
		}
		forward := (bars[i+params.HorizonBars].Close/anchor - 1) * 100

		label := model.ClassNeutral
		if snap.ADX > params.ADXGate {
			switch {
			case forward >= params.ReturnPct:
				label = model.ClassBuy
			case forward <= -params.ReturnPct:
				label = model.ClassSell
			}
		}

		features = append(features, Features(snap, bars[i].Ts))
		labels = append(labels, label)
	}
	return features, labels
}
