package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/omotosho-cloud/goldai/internal/classify"
	"github.com/omotosho-cloud/goldai/internal/config"
	"github.com/omotosho-cloud/goldai/internal/control"
	"github.com/omotosho-cloud/goldai/internal/engine"
	"github.com/omotosho-cloud/goldai/internal/journal"
	"github.com/omotosho-cloud/goldai/internal/market"
	"github.com/omotosho-cloud/goldai/internal/metrics"
	"github.com/omotosho-cloud/goldai/internal/model"
	"github.com/omotosho-cloud/goldai/internal/notify"
	"github.com/omotosho-cloud/goldai/internal/perf"
	"github.com/omotosho-cloud/goldai/internal/retrain"
	"github.com/omotosho-cloud/goldai/internal/risk"
	"github.com/omotosho-cloud/goldai/internal/tracker"
	"github.com/omotosho-cloud/goldai/internal/util"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		panic(err)
	}

	log := util.NewLogger(cfg.App.LogLevel, cfg.App.Env)
	log.Info().Str("config", *configPath).Str("symbol", cfg.Feed.Symbol).Msg("starting up")

	metricsSrv := metrics.Serve(cfg.App.MetricsAddr)
	defer metricsSrv.Close()

	store, err := model.NewStore(cfg.Model.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("model store unavailable")
	}
	slot := model.NewSlot(nil)
	if artifact, err := store.LoadActive(); err == nil {
		slot.Swap(artifact)
		log.Info().Str("version", artifact.VersionID).Msg("active model loaded")
	} else if errors.Is(err, model.ErrNoActiveArtifact) {
		log.Warn().Msg("no trained model, running on the rule fallback")
	} else {
		log.Fatal().Err(err).Msg("model artifact unreadable")
	}

	state := control.NewState(control.Active)
	classifyParams := classify.Params{
		ConfidenceThreshold: cfg.Signals.ConfidenceThreshold,
		FallbackConfidence:  cfg.Signals.FallbackConfidence,
		ADXGate:             cfg.Signals.ADXGate,
		HorizonBars:         cfg.Signals.LabelHorizonBars,
		ReturnPct:           cfg.Signals.LabelReturnPct,
	}
	riskMults := risk.Multipliers{StopATR: cfg.Risk.StopATRMult, TakeATR: cfg.Risk.TakeATRMult}
	thresholds := perf.Thresholds{
		MinWinRate:      cfg.Performance.MinWinRate,
		MinProfitFactor: cfg.Performance.MinProfitFactor,
		MinTrades:       cfg.Performance.MinTrades,
	}

	retrainParams := retrain.Params{
		HistoryDays:      cfg.Retrain.HistoryDays,
		BarInterval:      cfg.BarInterval(),
		HoldoutFraction:  cfg.Retrain.HoldoutFraction,
		WinRateTolerance: cfg.Retrain.WinRateTolerance,
		ProfitTolerance:  cfg.Retrain.ProfitTolerance,
		MinHoldoutTrades: cfg.Retrain.MinHoldoutTrades,
		Timeout:          time.Duration(cfg.Retrain.TrainingTimeoutMin) * time.Minute,
		MaxTradeBars:     cfg.Tracker.MaxTradeHours,
		Classify:         classifyParams,
		Risk:             riskMults,
		Floor:            thresholds,
	}
	history := market.StubHistory{Symbol: cfg.Feed.Symbol, Anchor: 2000}
	retrainer := retrain.NewController(history, store, slot, state, retrainParams, log)

	recorders := journal.Multi{}
	if cfg.Tracker.JournalPath != "" {
		jsonl, err := journal.NewJSONL(cfg.Tracker.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Msg("journal file unavailable")
		}
		recorders = append(recorders, jsonl)
	}
	if dsn := firstNonEmpty(os.Getenv("POSTGRES_DSN"), cfg.Tracker.PostgresDSN); dsn != "" {
		pg, err := journal.NewPostgres(dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres journal unavailable")
		}
		recorders = append(recorders, pg)
	}
	defer recorders.Close()

	notifiers := notify.Multi{notify.NewLog(log)}
	if cfg.Telegram.Enabled {
		token := firstNonEmpty(os.Getenv("TELEGRAM_BOT_TOKEN"), cfg.Telegram.Token)
		tg, err := notify.NewTelegram(token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Fatal().Err(err).Msg("telegram notifier unavailable")
		}
		notifiers = append(notifiers, tg)
	}

	feed := market.NewFeed(cfg.Feed.Provider, cfg.Feed.Symbol, log, market.WithInterval(cfg.BarInterval()))

	eng := engine.New(engine.Deps{
		Config:     cfg,
		Source:     feed,
		Classifier: classify.New(slot, classifyParams),
		Risk:       riskMults,
		Tracker:    tracker.New(state, time.Duration(cfg.Tracker.MaxTradeHours)*time.Hour, log),
		Monitor:    perf.NewMonitor(state, thresholds, 7*24*time.Hour, log),
		State:      state,
		Retrainer:  retrainer,
		Journal:    recorders,
		Notifier:   notifiers,
		Log:        log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("control loop exited")
	}
	log.Info().Msg("shutdown complete")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
