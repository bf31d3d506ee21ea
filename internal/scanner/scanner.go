// Package scanner runs the fetch, enrich, classify pipeline and orders its result.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/exchange"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/metrics"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/signal"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/strategy"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/util"
)

// SnapshotSource yields the ranked ticker snapshot.
type SnapshotSource interface {
	Fetch(ctx context.Context) (exchange.Snapshot, error)
}

// MetricSource measures one instrument; it must not fail.
type MetricSource interface {
	Enrich(ctx context.Context, symbol string) exchange.Metrics
}

// ProgressFunc observes enrichment progress. Calls are serialized and done never decreases.
type ProgressFunc func(done, total int)

// Result is one classified snapshot ordered by 1h amplitude descending.
type Result struct {
	RunID       string              `json:"run_id"`
	Route       string              `json:"route"`
	Version     string              `json:"version"`
	Instruments []signal.Instrument `json:"instruments"`
	StartedAt   time.Time           `json:"started_at"`
	Took        time.Duration       `json:"took"`
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithDisplay sets how symbols are shortened for presentation.
func WithDisplay(display func(string) string) Option {
	return func(s *Scanner) {
		if display != nil {
			s.display = display
		}
	}
}

// Scanner is safe for sequential reuse; concurrent Runs share the request limiter.
type Scanner struct {
	source      SnapshotSource
	enricher    MetricSource
	strategy    strategy.Strategy
	concurrency int
	limiter     *rate.Limiter
	display     func(string) string
	log         zerolog.Logger
}

// New wires the pipeline stages. cfg supplies the enrichment pool size and request spacing.
func New(source SnapshotSource, enricher MetricSource, strat strategy.Strategy, cfg config.Candles, log zerolog.Logger, opts ...Option) *Scanner {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	limit := rate.Inf
	if interval := cfg.RequestInterval(); interval > 0 {
		limit = rate.Every(interval)
	}
	s := &Scanner{
		source:      source,
		enricher:    enricher,
		strategy:    strat,
		concurrency: concurrency,
		limiter:     rate.NewLimiter(limit, 1),
		display:     exchange.DisplayTicker,
		log:         util.Component(log, "scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run produces one classified snapshot. Route exhaustion is returned as the fetcher's error
// with an empty result; cancellation discards any partial work.
func (s *Scanner) Run(ctx context.Context, onProgress ProgressFunc) (Result, error) {
	res := Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := s.log.With().Str("run_id", res.RunID).Logger()

	snap, err := s.source.Fetch(ctx)
	if err != nil {
		res.Took = time.Since(res.StartedAt)
		s.finish(log, res, err)
		return res, err
	}
	res.Route, res.Version = snap.Route, snap.Version

	enriched, err := s.enrich(ctx, snap.Tickers, onProgress)
	if err != nil {
		res.Took = time.Since(res.StartedAt)
		s.finish(log, res, err)
		return res, err
	}

	instruments := make([]signal.Instrument, len(enriched))
	for i, e := range enriched {
		inst := s.strategy.Classify(e)
		inst.Display = s.display(e.Symbol)
		instruments[i] = inst
	}
	SortByAmplitude(instruments)

	res.Instruments = instruments
	res.Took = time.Since(res.StartedAt)
	s.finish(log, res, nil)
	return res, nil
}

func (s *Scanner) enrich(ctx context.Context, tickers []signal.Ticker, onProgress ProgressFunc) ([]signal.Enriched, error) {
	total := len(tickers)
	var (
		mu   sync.Mutex
		done int
	)
	report := func(advance bool) {
		mu.Lock()
		defer mu.Unlock()
		if advance {
			done++
		}
		if onProgress != nil {
			onProgress(done, total)
		}
	}
	report(false)

	// each task owns its slot, so arrival order never leaks into the result
	out := make([]signal.Enriched, total)
	p := pool.New().WithErrors().WithMaxGoroutines(s.concurrency)
	for i, t := range tickers {
		p.Go(func() error {
			if err := s.waitSlot(ctx, t.Symbol); err != nil {
				return err
			}
			m := s.enricher.Enrich(ctx, t.Symbol)
			out[i] = signal.Enriched{Ticker: t, Amplitude1h: m.Amplitude1h, Direction1h: m.Direction1h}
			report(true)
			return nil
		})
	}
	err := p.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// waitSlot blocks until the shared limiter admits one request. The limiter refuses up front
// when the wait would outlast the deadline, which is reported as DeadlineExceeded.
func (s *Scanner) waitSlot(ctx context.Context, symbol string) error {
	err := s.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: no request slot for %s: %v", context.DeadlineExceeded, symbol, err)
}

func (s *Scanner) finish(log zerolog.Logger, res Result, err error) {
	metrics.ScanDuration.Observe(res.Took.Seconds())
	var exhausted *exchange.RouteExhaustedError
	switch {
	case err == nil:
		metrics.ScanRuns.WithLabelValues(metrics.OutcomeOK).Inc()
		metrics.ScanInstruments.Set(float64(len(res.Instruments)))
		log.Info().
			Str("route", res.Route).
			Int("instruments", len(res.Instruments)).
			Dur("took", res.Took).
			Msg("scan complete")
	case errors.As(err, &exhausted):
		metrics.ScanRuns.WithLabelValues(metrics.OutcomeExhausted).Inc()
		metrics.ScanInstruments.Set(0)
		log.Error().Err(err).Msg("scan aborted: no ticker route answered")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.ScanRuns.WithLabelValues(metrics.OutcomeCanceled).Inc()
		log.Warn().Err(err).Msg("scan canceled")
	default:
		metrics.ScanRuns.WithLabelValues(metrics.OutcomeTransport).Inc()
		log.Error().Err(err).Msg("scan failed")
	}
}

// SortByAmplitude orders by 1h amplitude descending, breaking ties by symbol.
func SortByAmplitude(instruments []signal.Instrument) {
	sort.SliceStable(instruments, func(i, j int) bool {
		if instruments[i].Amplitude1h != instruments[j].Amplitude1h {
			return instruments[i].Amplitude1h > instruments[j].Amplitude1h
		}
		return instruments[i].Symbol < instruments[j].Symbol
	})
}

// RunFunc matches Scanner.Run and wrappers around it.
type RunFunc func(ctx context.Context, onProgress ProgressFunc) (Result, error)

// Loop invokes run immediately and then on every interval until ctx is done, handing each
// outcome to sink. Outcomes of runs interrupted by ctx are dropped.
func Loop(ctx context.Context, interval time.Duration, run RunFunc, onProgress ProgressFunc, sink func(Result, error)) {
	if interval <= 0 {
		interval = time.Minute
	}
	tick := func() {
		res, err := run(ctx, onProgress)
		if ctx.Err() != nil {
			return
		}
		sink(res, err)
	}
	tick()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}
