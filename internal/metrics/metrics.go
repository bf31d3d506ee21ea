// Package metrics exposes Prometheus counters describing scan health and data quality.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RouteAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sniper_route_attempts_total", Help: "Ticker route attempts by outcome"},
		[]string{"route", "outcome"},
	)
	NormalizationDefaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sniper_normalization_defaults_total", Help: "Canonical fields coerced to zero"},
		[]string{"field"},
	)
	CandleRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sniper_candle_requests_total", Help: "Candle enrichment calls by outcome"},
		[]string{"outcome"},
	)
	ScanRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sniper_scan_runs_total", Help: "Pipeline runs by outcome"},
		[]string{"outcome"},
	)
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sniper_scan_duration_seconds",
			Help:    "Wall time of a full pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
	)
	ScanInstruments = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "sniper_scan_instruments", Help: "Instruments in the latest classified result"},
	)
)

// Outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeTransport   = "transport_error"
	OutcomeEmpty       = "empty"
	OutcomeUnusable    = "unusable"
	OutcomeUnavailable = "unavailable"
	OutcomeExhausted   = "exhausted"
	OutcomeCanceled    = "canceled"
)

func init() {
	prometheus.MustRegister(RouteAttempts, NormalizationDefaults, CandleRequests, ScanRuns, ScanDuration, ScanInstruments)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
