// Package metrics exposes prometheus counters for the signal control loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BarsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bars_total", Help: "Closed price bars ingested"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Signals emitted by class"},
		[]string{"class"},
	)
	FallbackSignalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "fallback_signals_total", Help: "Signals produced by the rule fallback instead of the model"},
	)
	TradesOpenedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trades_opened_total", Help: "Tracked trades opened"},
	)
	TradesClosedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_closed_total", Help: "Tracked trades resolved by outcome"},
		[]string{"result"},
	)
	StatusChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "status_changes_total", Help: "Signal control status transitions"},
		[]string{"status"},
	)
	RetrainsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "retrains_total", Help: "Retrain cycles by outcome"},
		[]string{"outcome"},
	)
	CyclesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cycles_skipped_total", Help: "Scheduled cycles abandoned (data gap, overrun)"},
		[]string{"cycle"},
	)
)

func init() {
	prometheus.MustRegister(
		BarsTotal,
		SignalsTotal,
		FallbackSignalsTotal,
		TradesOpenedTotal,
		TradesClosedTotal,
		StatusChangesTotal,
		RetrainsTotal,
		CyclesSkippedTotal,
	)
}

// Serve starts the /metrics endpoint on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
