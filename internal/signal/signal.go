// Package signal standardizes payloads shared between the classifier, the
// trade tracker, and whatever presentation layer consumes the engine.
package signal

import "time"

// Class enumerates the three-way classification of a bar.
type Class string

const (
	// Neutral means no tradeable edge.
	Neutral Class = "NEUTRAL"
	// Buy indicates a long signal.
	Buy Class = "BUY"
	// Sell indicates a short signal.
	Sell Class = "SELL"
)

// Tradeable reports whether the class opens a position.
func (c Class) Tradeable() bool { return c == Buy || c == Sell }

// Signal is one classification outcome for a closed bar. Immutable once
// emitted; risk levels are zero for Neutral.
type Signal struct {
	Ts         time.Time `json:"timestamp"`
	Class      Class     `json:"class"`
	Confidence float64   `json:"confidence"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	Session    string    `json:"session"`
	RSI        float64   `json:"rsi"`
	ADX        float64   `json:"adx"`
	ATR        float64   `json:"atr"`
	Fallback   bool      `json:"is_fallback"`
}
