// Package exchange fetches Bitget ticker snapshots and 1-hour candles and maps them onto canonical records.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/metrics"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/signal"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/transport"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/util"
)

// Snapshot is the ranked ticker list produced by the first route that answered usefully.
type Snapshot struct {
	Route   string
	Version string
	Tickers []signal.Ticker
}

// RouteError records why one route was skipped.
type RouteError struct {
	Route   string
	Version string
	Err     error
}

func (e RouteError) Error() string {
	return fmt.Sprintf("route %s (%s): %v", e.Route, e.Version, e.Err)
}

func (e RouteError) Unwrap() error { return e.Err }

// RouteExhaustedError is returned when every configured route failed.
type RouteExhaustedError struct {
	Attempts []RouteError
}

func (e *RouteExhaustedError) Error() string {
	if len(e.Attempts) == 0 {
		return "all ticker routes exhausted: no routes configured"
	}
	return fmt.Sprintf("all %d ticker routes exhausted; last: %v", len(e.Attempts), e.Last())
}

// Last returns the final observed route failure, or nil.
func (e *RouteExhaustedError) Last() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1]
}

// SnapshotFetcher walks the route table in order and keeps the first route that yields records.
type SnapshotFetcher struct {
	client transport.Getter
	routes []config.Route
	scan   config.Scan
	log    zerolog.Logger
}

// NewSnapshotFetcher copies the route table; later edits to routes do not affect the fetcher.
func NewSnapshotFetcher(client transport.Getter, routes []config.Route, scan config.Scan, log zerolog.Logger) *SnapshotFetcher {
	return &SnapshotFetcher{
		client: client,
		routes: append([]config.Route(nil), routes...),
		scan:   scan,
		log:    util.Component(log, "snapshot"),
	}
}

// Fetch returns the ranked snapshot from the first usable route.
// When every route fails it returns an empty Snapshot and a *RouteExhaustedError.
func (f *SnapshotFetcher) Fetch(ctx context.Context) (Snapshot, error) {
	exhausted := &RouteExhaustedError{}
	for _, route := range f.routes {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, err
		}
		tickers, err := f.fetchRoute(ctx, route)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Snapshot{}, ctxErr
			}
			metrics.RouteAttempts.WithLabelValues(route.Name, routeOutcome(err)).Inc()
			f.log.Warn().Err(err).Str("route", route.Name).Str("version", route.Version).Msg("ticker route failed")
			exhausted.Attempts = append(exhausted.Attempts, RouteError{Route: route.Name, Version: route.Version, Err: err})
			continue
		}
		metrics.RouteAttempts.WithLabelValues(route.Name, metrics.OutcomeOK).Inc()
		ranked := Rank(tickers, f.scan.QuoteMarker, f.scan.TopN)
		f.log.Debug().
			Str("route", route.Name).
			Int("usable", len(tickers)).
			Int("ranked", len(ranked)).
			Msg("ticker snapshot fetched")
		return Snapshot{Route: route.Name, Version: route.Version, Tickers: ranked}, nil
	}
	f.log.Error().Err(exhausted).Msg("ticker routes exhausted")
	return Snapshot{}, exhausted
}

func (f *SnapshotFetcher) fetchRoute(ctx context.Context, route config.Route) ([]signal.Ticker, error) {
	query := url.Values{}
	for key, value := range route.Params {
		query.Set(key, value)
	}
	resp, err := f.client.Get(ctx, route.BaseURL, query)
	if err != nil {
		return nil, err
	}
	records, err := extractRecords(resp.Body, route.Envelope, route.DataKey)
	if err != nil {
		return nil, err
	}
	normalizer := NewNormalizer(route.Aliases)
	tickers, dropped := normalizer.NormalizeAll(decodeTickers(records), func(symbol, field string) {
		metrics.NormalizationDefaults.WithLabelValues(field).Inc()
		f.log.Debug().Str("route", route.Name).Str("symbol", symbol).Str("field", field).Msg("field defaulted to zero")
	})
	if len(tickers) == 0 {
		return nil, fmt.Errorf("%w: %d records dropped", ErrNoUsableRecords, len(records))
	}
	if dropped > 0 {
		f.log.Debug().Str("route", route.Name).Int("dropped", dropped).Msg("records without symbol dropped")
	}
	return tickers, nil
}

func routeOutcome(err error) string {
	var terr *transport.TransportError
	switch {
	case errors.As(err, &terr):
		return metrics.OutcomeTransport
	case errors.Is(err, ErrEmptyPayload):
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeUnusable
	}
}

// Rank keeps symbols containing marker, orders by volume descending (symbol ascending on ties),
// and truncates to topN. topN <= 0 keeps everything.
func Rank(tickers []signal.Ticker, marker string, topN int) []signal.Ticker {
	out := make([]signal.Ticker, 0, len(tickers))
	for _, t := range tickers {
		if marker == "" || strings.Contains(t.Symbol, marker) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Volume != out[j].Volume {
			return out[i].Volume > out[j].Volume
		}
		return out[i].Symbol < out[j].Symbol
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
