// Package config exposes strongly typed application configuration structs
// loaded from YAML. The core packages receive these values at construction;
// none of them touch configuration files directly.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// App captures process-wide runtime settings.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
}

// Feed describes the bar feed for the tracked instrument.
type Feed struct {
	Provider     string `yaml:"provider"`
	Symbol       string `yaml:"symbol"`
	IntervalMins int    `yaml:"interval_mins"`
	MaxLagMins   int    `yaml:"max_lag_mins"`
	WindowBars   int    `yaml:"window_bars"`
}

// Signals groups the classifier thresholds.
type Signals struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	FallbackConfidence  float64 `yaml:"fallback_confidence"`
	ADXGate             float64 `yaml:"adx_gate"`
	LabelHorizonBars    int     `yaml:"label_horizon_bars"`
	LabelReturnPct      float64 `yaml:"label_return_pct"`
}

// Risk encodes the ATR multipliers sizing stop-loss and take-profit.
type Risk struct {
	StopATRMult float64 `yaml:"stop_atr_mult"`
	TakeATRMult float64 `yaml:"take_atr_mult"`
}

// Tracker tunes the synthetic trade tracking sweep.
type Tracker struct {
	MaxTradeHours int    `yaml:"max_trade_hours"`
	SweepSecs     int    `yaml:"sweep_secs"`
	JournalPath   string `yaml:"journal_path"`
	PostgresDSN   string `yaml:"postgres_dsn"`
}

// Performance holds the suspension thresholds.
type Performance struct {
	MinWinRate      float64 `yaml:"min_win_rate"`
	MinProfitFactor float64 `yaml:"min_profit_factor"`
	MinTrades       int     `yaml:"min_trades"`
	EvalHours       int     `yaml:"eval_hours"`
}

// Retrain schedules and gates the model lifecycle.
type Retrain struct {
	DayOfMonth         int     `yaml:"day_of_month"`
	Hour               int     `yaml:"hour"`
	HistoryDays        int     `yaml:"history_days"`
	HoldoutFraction    float64 `yaml:"holdout_fraction"`
	WinRateTolerance   float64 `yaml:"win_rate_tolerance"`
	ProfitTolerance    float64 `yaml:"profit_factor_tolerance"`
	MinHoldoutTrades   int     `yaml:"min_holdout_trades"`
	TrainingTimeoutMin int     `yaml:"training_timeout_mins"`
}

// Model points at the artifact store.
type Model struct {
	Dir string `yaml:"dir"`
}

// Telegram configures the outbound notification bot.
type Telegram struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App         App         `yaml:"app"`
	Feed        Feed        `yaml:"feed"`
	Signals     Signals     `yaml:"signals"`
	Risk        Risk        `yaml:"risk"`
	Tracker     Tracker     `yaml:"tracker"`
	Performance Performance `yaml:"performance"`
	Retrain     Retrain     `yaml:"retrain"`
	Model       Model       `yaml:"model"`
	Telegram    Telegram    `yaml:"telegram"`
}

// Default returns the configuration the system ships with.
func Default() *Config {
	return &Config{
		App: App{Name: "goldai", Env: "dev", MetricsAddr: ":9101", LogLevel: "info"},
		Feed: Feed{
			Provider:     "stub",
			Symbol:       "XAUUSD",
			IntervalMins: 60,
			MaxLagMins:   120,
			WindowBars:   512,
		},
		Signals: Signals{
			ConfidenceThreshold: 0.70,
			FallbackConfidence:  0.60,
			ADXGate:             20,
			LabelHorizonBars:    4,
			LabelReturnPct:      1.0,
		},
		Risk: Risk{StopATRMult: 2, TakeATRMult: 4},
		Tracker: Tracker{
			MaxTradeHours: 4,
			SweepSecs:     300,
			JournalPath:   "data/trades.jsonl",
		},
		Performance: Performance{
			MinWinRate:      0.55,
			MinProfitFactor: 1.2,
			MinTrades:       20,
			EvalHours:       4,
		},
		Retrain: Retrain{
			DayOfMonth:         1,
			Hour:               2,
			HistoryDays:        365,
			HoldoutFraction:    0.2,
			WinRateTolerance:   0.05,
			ProfitTolerance:    0.2,
			MinHoldoutTrades:   10,
			TrainingTimeoutMin: 30,
		},
		Model: Model{Dir: "data/models"},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct on top of the
// defaults.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects configurations the control loop cannot run safely on.
func (c *Config) Validate() error {
	if c.Signals.ConfidenceThreshold <= 0 || c.Signals.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in (0,1], got %.2f", c.Signals.ConfidenceThreshold)
	}
	if c.Signals.LabelHorizonBars <= 0 {
		return fmt.Errorf("label_horizon_bars must be positive")
	}
	if c.Risk.StopATRMult <= 0 || c.Risk.TakeATRMult <= 0 {
		return fmt.Errorf("risk multipliers must be positive")
	}
	// the 1:2 risk/reward contract
	if math.Abs(c.Risk.TakeATRMult-2*c.Risk.StopATRMult) > 1e-9 {
		return fmt.Errorf("take_atr_mult must be twice stop_atr_mult, got %.2f/%.2f",
			c.Risk.TakeATRMult, c.Risk.StopATRMult)
	}
	if c.Performance.MinWinRate < 0 || c.Performance.MinWinRate > 1 {
		return fmt.Errorf("min_win_rate must be in [0,1], got %.2f", c.Performance.MinWinRate)
	}
	if c.Performance.MinTrades <= 0 {
		return fmt.Errorf("min_trades must be positive")
	}
	if c.Retrain.DayOfMonth < 1 || c.Retrain.DayOfMonth > 28 {
		return fmt.Errorf("retrain day_of_month must be in [1,28], got %d", c.Retrain.DayOfMonth)
	}
	if c.Retrain.HoldoutFraction <= 0 || c.Retrain.HoldoutFraction >= 1 {
		return fmt.Errorf("holdout_fraction must be in (0,1), got %.2f", c.Retrain.HoldoutFraction)
	}
	if c.Feed.IntervalMins <= 0 {
		return fmt.Errorf("feed interval_mins must be positive")
	}
	// both drive time.NewTicker in the engine, which panics on zero
	if c.Tracker.SweepSecs <= 0 {
		return fmt.Errorf("tracker sweep_secs must be positive, got %d", c.Tracker.SweepSecs)
	}
	if c.Performance.EvalHours <= 0 {
		return fmt.Errorf("performance eval_hours must be positive, got %d", c.Performance.EvalHours)
	}
	return nil
}

// BarInterval returns the feed interval as a duration.
func (c *Config) BarInterval() time.Duration {
	return time.Duration(c.Feed.IntervalMins) * time.Minute
}

// MaxLag returns the staleness bound for the data-gap check.
func (c *Config) MaxLag() time.Duration {
	return time.Duration(c.Feed.MaxLagMins) * time.Minute
}
