package scanner

import (
	"github.com/rs/zerolog"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/exchange"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/strategy"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/transport"
)

// FromConfig wires the exchange-backed pipeline described by cfg around one shared transport.
func FromConfig(cfg *config.Config, log zerolog.Logger) *Scanner {
	client := transport.New(cfg.HTTP, log)
	symbols := exchange.NewSymbolMapper(
		config.KnownSymbolSuffixes(cfg.Routes, cfg.Candles.Route),
		cfg.Candles.Route.SymbolSuffix,
		cfg.Scan.QuoteMarker,
	)
	fetcher := exchange.NewSnapshotFetcher(client, cfg.Routes, cfg.Scan, log)
	enricher := exchange.NewCandleEnricher(client, cfg.Candles, log, exchange.WithSymbolMapper(symbols))
	strat := strategy.Build(cfg.Classifier.Mode, strategy.ThresholdsFrom(cfg.Classifier))
	return New(fetcher, enricher, strat, cfg.Candles, log, WithDisplay(symbols.Display))
}
