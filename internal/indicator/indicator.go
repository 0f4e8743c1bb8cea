// Package indicator computes the technical snapshot the classifier reads.
// All smoothing windows are fixed so identical bar sequences always yield
// bit-for-bit identical snapshots.
package indicator

import (
	"errors"
	"math"

	"github.com/omotosho-cloud/goldai/internal/market"
)

// Periods used across the system. Changing these changes the minimum window.
const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	EMAFastPeriod   = 20
	EMASlowPeriod   = 50
	ATRPeriod       = 14
	ADXPeriod       = 14
	BollingerPeriod = 20
	BollingerStdDev = 2.0
)

// MinBars is the shortest window Compute accepts: the MACD signal line needs
// MACDSlow+MACDSignal-1 bars and the EMA(50) trend filter needs 50.
const MinBars = EMASlowPeriod

// ErrInsufficientHistory reports a window shorter than MinBars. The caller
// must not classify on a partial snapshot.
var ErrInsufficientHistory = errors.New("indicator: insufficient history")

// Snapshot is the indicator state at the latest bar of a window.
type Snapshot struct {
	RSI            float64
	MACD           float64
	MACDSignalLine float64
	EMAFast        float64
	EMASlow        float64
	ATR            float64
	ADX            float64
	BollingerUpper float64
	BollingerLower float64
}

// BollingerWidth is the band spread normalized by the midpoint, one of the
// model features.
func (s Snapshot) BollingerWidth() float64 {
	mid := (s.BollingerUpper + s.BollingerLower) / 2
	if mid == 0 {
		return 0
	}
	return (s.BollingerUpper - s.BollingerLower) / mid
}

// Compute derives the snapshot for the last bar of the window.
func Compute(bars []market.Bar) (Snapshot, error) {
	if len(bars) < MinBars {
		return Snapshot{}, ErrInsufficientHistory
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	macdLine, signalLine := macd(closes)
	upper, lower := bollinger(closes, BollingerPeriod, BollingerStdDev)

	return Snapshot{
		RSI:            rsi(closes, RSIPeriod),
		MACD:           macdLine,
		MACDSignalLine: signalLine,
		EMAFast:        last(emaSeries(closes, EMAFastPeriod)),
		EMASlow:        last(emaSeries(closes, EMASlowPeriod)),
		ATR:            atr(bars, ATRPeriod),
		ADX:            adx(bars, ADXPeriod),
		BollingerUpper: upper,
		BollingerLower: lower,
	}, nil
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// emaSeries seeds with the SMA of the first period values, then applies the
// standard recursive smoothing. Output index i corresponds to input index
// i+period-1.
func emaSeries(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	k := 2.0 / float64(period+1)
	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)
	prev := seed
	for _, v := range values[period:] {
		prev = prev + k*(v-prev)
		out = append(out, prev)
	}
	return out
}

func rsi(closes []float64, period int) float64 {
	if len(closes) <= period {
		return 50
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func macd(closes []float64) (line, signal float64) {
	fast := emaSeries(closes, MACDFast)
	slow := emaSeries(closes, MACDSlow)
	if len(slow) == 0 {
		return 0, 0
	}
	// align the two EMA series on the slow one's start
	offset := len(fast) - len(slow)
	diff := make([]float64, len(slow))
	for i := range slow {
		diff[i] = fast[i+offset] - slow[i]
	}
	line = diff[len(diff)-1]
	signalSeries := emaSeries(diff, MACDSignal)
	if len(signalSeries) == 0 {
		return line, line
	}
	return line, signalSeries[len(signalSeries)-1]
}

func trueRange(cur, prev market.Bar) float64 {
	hl := cur.High - cur.Low
	hc := math.Abs(cur.High - prev.Close)
	lc := math.Abs(cur.Low - prev.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// atr applies Wilder smoothing over the true range.
func atr(bars []market.Bar, period int) float64 {
	if len(bars) <= period {
		return 0
	}
	var sum float64
	for i := 1; i <= period; i++ {
		sum += trueRange(bars[i], bars[i-1])
	}
	val := sum / float64(period)
	for i := period + 1; i < len(bars); i++ {
		val = (val*float64(period-1) + trueRange(bars[i], bars[i-1])) / float64(period)
	}
	return val
}

// adx smooths directional movement the Wilder way: +DI/-DI from smoothed
// +DM/-DM over smoothed TR, DX from the DI spread, ADX as the smoothed DX.
func adx(bars []market.Bar, period int) float64 {
	if len(bars) < 2*period+1 {
		return 0
	}

	n := len(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
		tr[i] = trueRange(bars[i], bars[i-1])
	}

	var smPlus, smMinus, smTR float64
	for i := 1; i <= period; i++ {
		smPlus += plusDM[i]
		smMinus += minusDM[i]
		smTR += tr[i]
	}

	dx := func() float64 {
		if smTR == 0 {
			return 0
		}
		plusDI := 100 * smPlus / smTR
		minusDI := 100 * smMinus / smTR
		if plusDI+minusDI == 0 {
			return 0
		}
		return 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
	}

	var adxVal float64
	var dxSum float64
	dxCount := 0
	for i := period + 1; i < n; i++ {
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		smTR = smTR - smTR/float64(period) + tr[i]

		cur := dx()
		dxCount++
		if dxCount < period {
			dxSum += cur
			continue
		}
		if dxCount == period {
			adxVal = (dxSum + cur) / float64(period)
			continue
		}
		adxVal = (adxVal*float64(period-1) + cur) / float64(period)
	}
	return adxVal
}

func bollinger(closes []float64, period int, dev float64) (upper, lower float64) {
	if len(closes) < period {
		return 0, 0
	}
	window := closes[len(closes)-period:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(period)
	var variance float64
	for _, v := range window {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(period))
	return mean + dev*std, mean - dev*std
}
