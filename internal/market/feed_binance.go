package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/omotosho-cloud/goldai/internal/metrics"
)

type klineEnvelope struct {
	EventType string       `json:"e"`
	Kline     klinePayload `json:"k"`
}

type klinePayload struct {
	StartTime int64  `json:"t"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

func (f *Feed) runBinance(ctx context.Context, out chan<- Bar) error {
	streamInterval, err := binanceInterval(f.interval)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("wss://stream.binance.com:9443/ws/%s@kline_%s",
		strings.ToLower(f.symbol), streamInterval)
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeKlineStream(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Msg("binance feed disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeKlineStream(ctx context.Context, url string, out chan<- Bar) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	f.log.Info().Str("provider", ProviderBinance).Str("symbol", f.symbol).Msg("connected bar feed")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					f.log.Warn().Err(err).Msg("binance ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env klineEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			f.log.Warn().Err(err).Msg("failed to decode binance message")
			continue
		}
		// only fully closed candles feed the indicator window
		if env.EventType != "kline" || !env.Kline.Closed {
			continue
		}

		bar, err := env.Kline.toBar()
		if err != nil {
			f.log.Warn().Err(err).Msg("invalid kline from binance")
			continue
		}

		select {
		case out <- bar:
			metrics.BarsTotal.WithLabelValues(f.symbol).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (k klinePayload) toBar() (Bar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return Bar{}, fmt.Errorf("parse open: %w", err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return Bar{}, fmt.Errorf("parse high: %w", err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return Bar{}, fmt.Errorf("parse low: %w", err)
	}
	closePx, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return Bar{}, fmt.Errorf("parse close: %w", err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return Bar{}, fmt.Errorf("parse volume: %w", err)
	}
	return Bar{
		Ts:     time.UnixMilli(k.StartTime).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: volume,
	}, nil
}

func binanceInterval(d time.Duration) (string, error) {
	switch d {
	case time.Minute:
		return "1m", nil
	case 5 * time.Minute:
		return "5m", nil
	case 15 * time.Minute:
		return "15m", nil
	case time.Hour:
		return "1h", nil
	case 4 * time.Hour:
		return "4h", nil
	case 24 * time.Hour:
		return "1d", nil
	default:
		return "", fmt.Errorf("unsupported bar interval %s", d)
	}
}
