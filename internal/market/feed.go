package market

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/omotosho-cloud/goldai/internal/metrics"
)

const (
	// ProviderStub emits deterministic synthetic bars (tests/offline work).
	ProviderStub = "stub"
	// ProviderBinance streams closed klines from Binance public websockets.
	ProviderBinance = "binance"
)

const defaultBarInterval = time.Hour

// Feed is a pluggable bar stream for a single instrument.
type Feed struct {
	provider string
	symbol   string
	interval time.Duration
	log      zerolog.Logger
}

// Option configures Feed construction parameters.
type Option func(*Feed)

// WithInterval overrides the bar interval (hourly by default). The stub
// provider uses it to pace synthetic bars; the Binance provider maps it onto
// the kline stream interval.
func WithInterval(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.interval = d
		}
	}
}

// NewFeed constructs a feed backed by the requested provider.
func NewFeed(provider, symbol string, log zerolog.Logger, opts ...Option) *Feed {
	if provider == "" {
		provider = ProviderStub
	}
	if symbol == "" {
		symbol = "XAUUSD"
	}
	f := &Feed{
		provider: strings.ToLower(provider),
		symbol:   strings.ToUpper(symbol),
		interval: defaultBarInterval,
		log:      log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Symbol returns the instrument the feed tracks.
func (f *Feed) Symbol() string { return f.symbol }

// Run pushes closed bars onto the channel until the context is canceled.
func (f *Feed) Run(ctx context.Context, out chan<- Bar) error {
	switch f.provider {
	case ProviderBinance:
		return f.runBinance(ctx, out)
	default:
		return f.runStub(ctx, out)
	}
}

func (f *Feed) runStub(ctx context.Context, out chan<- Bar) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	walk := NewSyntheticWalk(f.symbol, 2000.0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ts := <-ticker.C:
			bar := walk.Next(ts.UTC().Truncate(f.interval))
			select {
			case out <- bar:
				metrics.BarsTotal.WithLabelValues(f.symbol).Inc()
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
