// Package risk derives stop-loss and take-profit levels from entry price and
// volatility.
package risk

import (
	"errors"

	"github.com/omotosho-cloud/goldai/internal/signal"
)

// ErrInvalidATR rejects non-positive volatility input.
var ErrInvalidATR = errors.New("risk: ATR must be positive")

// Multipliers size the levels in ATR units. The defaults enforce the 1:2
// risk/reward contract: the take-profit distance is twice the stop distance.
type Multipliers struct {
	StopATR float64
	TakeATR float64
}

// Defaults returns the shipped 2x/4x ATR multipliers.
func Defaults() Multipliers {
	return Multipliers{StopATR: 2, TakeATR: 4}
}

// Levels computes stop-loss and take-profit for a classified entry. Neutral
// signals carry no levels.
func (m Multipliers) Levels(class signal.Class, entry, atr float64) (stopLoss, takeProfit float64, err error) {
	if !class.Tradeable() {
		return 0, 0, nil
	}
	if atr <= 0 {
		return 0, 0, ErrInvalidATR
	}
	switch class {
	case signal.Buy:
		return entry - m.StopATR*atr, entry + m.TakeATR*atr, nil
	case signal.Sell:
		return entry + m.StopATR*atr, entry - m.TakeATR*atr, nil
	}
	return 0, 0, nil
}
