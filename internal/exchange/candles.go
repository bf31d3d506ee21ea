package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/metrics"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/signal"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/transport"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/util"
)

var (
	// ErrCandleUnavailable covers every enrichment failure that maps to zero metrics.
	ErrCandleUnavailable = errors.New("candle unavailable")
	// ErrDegenerateBar marks a latest bar whose low or open is not positive, or whose high is below its low.
	ErrDegenerateBar = fmt.Errorf("%w: degenerate bar", ErrCandleUnavailable)
)

// Metrics are the 1-hour bar measurements attached to a ticker, in percent.
type Metrics struct {
	Amplitude1h float64
	Direction1h float64
}

// MetricsOrZero maps any enrichment error to zero metrics.
func MetricsOrZero(m Metrics, err error) Metrics {
	if err != nil {
		return Metrics{}
	}
	return m
}

// EnricherOption customizes a CandleEnricher.
type EnricherOption func(*CandleEnricher)

// WithClock overrides the wall clock used to build the look-back window.
func WithClock(now func() time.Time) EnricherOption {
	return func(e *CandleEnricher) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSymbolMapper sets how ticker symbols are translated for the candle route.
func WithSymbolMapper(m SymbolMapper) EnricherOption {
	return func(e *CandleEnricher) {
		e.symbols = m
	}
}

// CandleEnricher measures the latest 1-hour bar of an instrument.
type CandleEnricher struct {
	client  transport.Getter
	route   config.CandleRoute
	cfg     config.Candles
	symbols SymbolMapper
	now     func() time.Time
	log     zerolog.Logger
}

// NewCandleEnricher targets cfg.Route.
func NewCandleEnricher(client transport.Getter, cfg config.Candles, log zerolog.Logger, opts ...EnricherOption) *CandleEnricher {
	e := &CandleEnricher{
		client:  client,
		route:   cfg.Route,
		cfg:     cfg,
		symbols: NewSymbolMapper([]string{cfg.Route.SymbolSuffix}, cfg.Route.SymbolSuffix, ""),
		now:     time.Now,
		log:     util.Component(log, "candles"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich never fails: any problem yields zero metrics.
func (e *CandleEnricher) Enrich(ctx context.Context, symbol string) Metrics {
	candles, err := e.Fetch(ctx, symbol)
	var m Metrics
	if err == nil {
		m, err = e.Measure(candles)
	}
	outcome := metrics.OutcomeOK
	if err != nil {
		var terr *transport.TransportError
		switch {
		case ctx.Err() != nil:
			outcome = metrics.OutcomeCanceled
		case errors.As(err, &terr):
			outcome = metrics.OutcomeTransport
		default:
			outcome = metrics.OutcomeUnavailable
		}
		e.log.Debug().Err(err).Str("symbol", symbol).Msg("candle metrics unavailable")
	}
	metrics.CandleRequests.WithLabelValues(outcome).Inc()
	return MetricsOrZero(m, err)
}

// Fetch downloads the bars of the look-back window ending now.
func (e *CandleEnricher) Fetch(ctx context.Context, symbol string) ([]signal.Candle, error) {
	target := e.symbols.Candle(symbol)
	if target == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrCandleUnavailable)
	}
	if timeout := e.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	end := e.now()
	start := end.Add(-e.cfg.Lookback())
	query := url.Values{}
	for key, value := range e.route.Params {
		query.Set(key, value)
	}
	query.Set(e.route.SymbolParam, target)
	if e.route.StartParam != "" {
		query.Set(e.route.StartParam, strconv.FormatInt(start.UnixMilli(), 10))
	}
	if e.route.EndParam != "" {
		query.Set(e.route.EndParam, strconv.FormatInt(end.UnixMilli(), 10))
	}

	resp, err := e.client.Get(ctx, e.route.BaseURL, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCandleUnavailable, err)
	}
	records, err := extractRecords(resp.Body, e.route.Envelope, e.route.DataKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCandleUnavailable, err)
	}
	candles := make([]signal.Candle, 0, len(records))
	for _, rec := range records {
		if c, ok := decodeCandle(rec); ok {
			candles = append(candles, c)
		}
	}
	return candles, nil
}

// Measure computes amplitude and direction of the latest bar.
func (e *CandleEnricher) Measure(candles []signal.Candle) (Metrics, error) {
	return measureLatest(candles, e.cfg.Latest)
}

func measureLatest(candles []signal.Candle, convention string) (Metrics, error) {
	if len(candles) == 0 {
		return Metrics{}, fmt.Errorf("%w: no bars", ErrCandleUnavailable)
	}
	bar := latestBar(candles, convention)
	if bar.Low <= 0 || bar.Open <= 0 || bar.High < bar.Low {
		return Metrics{}, ErrDegenerateBar
	}
	return Metrics{
		Amplitude1h: (bar.High - bar.Low) / bar.Low * 100,
		Direction1h: (bar.Close - bar.Open) / bar.Open * 100,
	}, nil
}

// latestBar picks the bar with the greatest timestamp, or the last element when any
// timestamp is missing or the convention asks for it.
func latestBar(candles []signal.Candle, convention string) signal.Candle {
	last := candles[len(candles)-1]
	if convention == config.LatestLastElement {
		return last
	}
	best := candles[0]
	for _, c := range candles {
		if c.Ts.IsZero() {
			return last
		}
		if !c.Ts.Before(best.Ts) {
			best = c
		}
	}
	return best
}

// decodeCandle accepts [ts, open, high, low, close, ...] rows and keyed objects.
func decodeCandle(raw json.RawMessage) (signal.Candle, bool) {
	var row []any
	if err := decodeNumbers(raw, &row); err == nil {
		if len(row) < 5 {
			return signal.Candle{}, false
		}
		return signal.Candle{
			Ts:    parseMillis(row[0]),
			Open:  floatOrZero(row[1]),
			High:  floatOrZero(row[2]),
			Low:   floatOrZero(row[3]),
			Close: floatOrZero(row[4]),
		}, true
	}
	var obj map[string]any
	if err := decodeNumbers(raw, &obj); err != nil || obj == nil {
		return signal.Candle{}, false
	}
	return signal.Candle{
		Ts:    parseMillis(firstPresent(obj, "ts", "timestamp", "time")),
		Open:  floatOrZero(firstPresent(obj, "open", "o")),
		High:  floatOrZero(firstPresent(obj, "high", "h")),
		Low:   floatOrZero(firstPresent(obj, "low", "l")),
		Close: floatOrZero(firstPresent(obj, "close", "c")),
	}, true
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			return v
		}
	}
	return nil
}

func floatOrZero(v any) float64 {
	f, _ := coerceFloat(v)
	return f
}

func parseMillis(v any) time.Time {
	ms, ok := coerceFloat(v)
	if !ok || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}
