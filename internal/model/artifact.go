package model

import "time"

// ValidationMetrics records how an artifact performed on its holdout segment
// at training time. The retraining controller compares candidates against the
// incumbent's recorded metrics.
type ValidationMetrics struct {
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`
	Trades       int     `json:"trades"`
}

// Artifact is one versioned trained model. Immutable once saved; the store
// only ever repoints its active/previous references.
type Artifact struct {
	VersionID  string            `json:"version_id"`
	TrainedAt  time.Time         `json:"trained_at"`
	Validation ValidationMetrics `json:"validation"`
	Model      *Classifier       `json:"model"`
}
