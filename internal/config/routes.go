// Package config also contains the versioned upstream route tables.
package config

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultUserAgent mimics a desktop browser; the public endpoints reject some bare clients.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Response envelope shapes.
const (
	EnvelopeObject = "object" // {"code": "...", "data": [...]}
	EnvelopeArray  = "array"  // bare [...]
)

// Canonical ticker fields targeted by aliases.
const (
	FieldPrice     = "price"
	FieldChange24h = "change_24h"
	FieldVolume    = "volume"
)

// Alias maps one exchange-native field onto a canonical field, scaling numeric values.
type Alias struct {
	Source string  `yaml:"source"`
	Target string  `yaml:"target"`
	Scale  float64 `yaml:"scale,omitempty"` // 0 means 1
}

// Factor returns the multiplier applied to the parsed source value.
func (a Alias) Factor() float64 {
	if a.Scale == 0 {
		return 1
	}
	return a.Scale
}

// Route is one candidate ticker-list endpoint, tried in table order.
type Route struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	BaseURL      string            `yaml:"base_url"`
	Params       map[string]string `yaml:"params"`
	Envelope     string            `yaml:"envelope"`
	DataKey      string            `yaml:"data_key"`
	SymbolSuffix string            `yaml:"symbol_suffix"`
	Aliases      []Alias           `yaml:"aliases"`
}

func (r Route) validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if err := validateEnvelope(r.Envelope); err != nil {
		return err
	}
	for _, alias := range r.Aliases {
		switch alias.Target {
		case FieldPrice, FieldChange24h, FieldVolume:
		default:
			return fmt.Errorf("alias %q targets unknown field %q", alias.Source, alias.Target)
		}
	}
	return nil
}

// CandleRoute is the single designated endpoint used for 1-hour candles.
type CandleRoute struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	BaseURL      string            `yaml:"base_url"`
	Params       map[string]string `yaml:"params"`
	SymbolParam  string            `yaml:"symbol_param"`
	StartParam   string            `yaml:"start_param"`
	EndParam     string            `yaml:"end_param"`
	Envelope     string            `yaml:"envelope"`
	DataKey      string            `yaml:"data_key"`
	SymbolSuffix string            `yaml:"symbol_suffix"`
}

func (r CandleRoute) validate() error {
	if r.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if r.SymbolParam == "" {
		return errors.New("symbol_param is required")
	}
	return validateEnvelope(r.Envelope)
}

func validateEnvelope(envelope string) error {
	switch envelope {
	case EnvelopeObject, EnvelopeArray:
		return nil
	default:
		return fmt.Errorf("unknown envelope %q", envelope)
	}
}

// BitgetRoutes lists the ticker routes in priority order: current generation first, legacy second.
// Bitget reports 24h change as a fraction, so change aliases scale by 100 into percentage points.
func BitgetRoutes() []Route {
	return []Route{
		{
			Name:     "bitget-v2",
			Version:  "v2",
			BaseURL:  "https://api.bitget.com/api/v2/mix/market/tickers",
			Params:   map[string]string{"productType": "USDT-FUTURES"},
			Envelope: EnvelopeObject,
			DataKey:  "data",
			Aliases: []Alias{
				{Source: "last", Target: FieldPrice},
				{Source: "lastPrice", Target: FieldPrice},
				{Source: "lastPr", Target: FieldPrice},
				{Source: "baseVolume", Target: FieldVolume},
				{Source: "quoteVolume", Target: FieldVolume},
				{Source: "usdtVolume", Target: FieldVolume},
				{Source: "change24h", Target: FieldChange24h, Scale: 100},
			},
		},
		{
			Name:         "bitget-v1",
			Version:      "v1",
			BaseURL:      "https://api.bitget.com/api/mix/v1/market/tickers",
			Params:       map[string]string{"productType": "umcbl"},
			Envelope:     EnvelopeObject,
			DataKey:      "data",
			SymbolSuffix: "_UMCBL",
			Aliases: []Alias{
				{Source: "lastPrice", Target: FieldPrice},
				{Source: "last", Target: FieldPrice},
				{Source: "baseVolume", Target: FieldVolume},
				{Source: "usdtVolume", Target: FieldVolume},
				{Source: "chgUTC", Target: FieldChange24h, Scale: 100},
				{Source: "chgUtc", Target: FieldChange24h, Scale: 100},
				{Source: "priceChangePercent", Target: FieldChange24h, Scale: 100},
			},
		},
	}
}

// BitgetV1Candles targets the legacy candle endpoint, which is the more permissive one.
func BitgetV1Candles() CandleRoute {
	return CandleRoute{
		Name:         "bitget-v1-candles",
		Version:      "v1",
		BaseURL:      "https://api.bitget.com/api/mix/v1/market/candles",
		Params:       map[string]string{"granularity": "1H"},
		SymbolParam:  "symbol",
		StartParam:   "startTime",
		EndParam:     "endTime",
		Envelope:     EnvelopeArray,
		DataKey:      "data",
		SymbolSuffix: "_UMCBL",
	}
}

// BitgetV2Candles targets the current-generation candle endpoint.
func BitgetV2Candles() CandleRoute {
	return CandleRoute{
		Name:        "bitget-v2-candles",
		Version:     "v2",
		BaseURL:     "https://api.bitget.com/api/v2/mix/market/candles",
		Params:      map[string]string{"granularity": "1H", "productType": "USDT-FUTURES"},
		SymbolParam: "symbol",
		StartParam:  "startTime",
		EndParam:    "endTime",
		Envelope:    EnvelopeObject,
		DataKey:     "data",
	}
}

// KnownSymbolSuffixes returns every contract suffix declared by the given routes, longest first.
func KnownSymbolSuffixes(routes []Route, candles CandleRoute) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, r := range routes {
		add(r.SymbolSuffix)
	}
	add(candles.SymbolSuffix)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
