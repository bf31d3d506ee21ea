package exchange

import (
	"sort"
	"strings"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
)

var bitgetSymbols = NewSymbolMapper(
	config.KnownSymbolSuffixes(config.BitgetRoutes(), config.BitgetV1Candles()),
	config.BitgetV1Candles().SymbolSuffix,
	"USDT",
)

// SymbolMapper translates instrument identifiers between route generations.
type SymbolMapper struct {
	suffixes     []string
	candleSuffix string
	quote        string
}

// NewSymbolMapper strips any of suffixes (tried longest first) and appends candleSuffix for candle requests.
func NewSymbolMapper(suffixes []string, candleSuffix, quote string) SymbolMapper {
	sorted := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			sorted = append(sorted, s)
		}
	}
	// longest first so overlapping suffixes strip fully
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	return SymbolMapper{
		suffixes:     sorted,
		candleSuffix: strings.ToUpper(strings.TrimSpace(candleSuffix)),
		quote:        strings.ToUpper(strings.TrimSpace(quote)),
	}
}

// Canonical removes the contract suffix: BTCUSDT_UMCBL -> BTCUSDT.
func (m SymbolMapper) Canonical(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range m.suffixes {
		if trimmed := strings.TrimSuffix(symbol, suffix); trimmed != symbol && trimmed != "" {
			return trimmed
		}
	}
	return symbol
}

// Candle returns the identifier expected by the candle route.
func (m SymbolMapper) Candle(symbol string) string {
	canonical := m.Canonical(symbol)
	if canonical == "" {
		return ""
	}
	return canonical + m.candleSuffix
}

// Display returns the short base-asset ticker: BTCUSDT_UMCBL -> BTC.
func (m SymbolMapper) Display(symbol string) string {
	canonical := m.Canonical(symbol)
	if m.quote != "" {
		if base := strings.TrimSuffix(canonical, m.quote); base != "" {
			return base
		}
	}
	return canonical
}

// DisplayTicker shortens a Bitget symbol for presentation.
func DisplayTicker(symbol string) string {
	return bitgetSymbols.Display(symbol)
}
