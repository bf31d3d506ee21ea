package exchange

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/signal"
)

// RawTicker is one ticker record exactly as the exchange sent it.
type RawTicker map[string]any

// Normalizer maps exchange-native ticker records onto signal.Ticker through an alias table.
type Normalizer struct {
	aliases []config.Alias
}

// NewNormalizer keeps the alias order; later aliases win over earlier ones.
func NewNormalizer(aliases []config.Alias) *Normalizer {
	return &Normalizer{aliases: append([]config.Alias(nil), aliases...)}
}

type fieldValue struct {
	raw     any
	present bool
	scale   float64
}

// Normalize returns the canonical ticker and the canonical fields that were coerced to zero.
// A ticker with an empty Symbol is unusable.
func (n *Normalizer) Normalize(raw RawTicker) (signal.Ticker, []string) {
	fields := map[string]*fieldValue{
		config.FieldPrice:     {scale: 1},
		config.FieldChange24h: {scale: 1},
		config.FieldVolume:    {scale: 1},
	}
	for name, fv := range fields {
		if v, ok := raw[name]; ok {
			fv.raw, fv.present = v, true
		}
	}
	for _, alias := range n.aliases {
		v, ok := raw[alias.Source]
		if !ok {
			continue
		}
		fv := fields[alias.Target]
		if fv == nil {
			continue
		}
		fv.raw, fv.present, fv.scale = v, true, alias.Factor()
	}

	var defaulted []string
	resolve := func(name string) float64 {
		fv := fields[name]
		if fv.present {
			if v, ok := coerceFloat(fv.raw); ok {
				return v * fv.scale
			}
		}
		defaulted = append(defaulted, name)
		return 0
	}

	t := signal.Ticker{Symbol: coerceSymbol(raw["symbol"])}
	t.Price = resolve(config.FieldPrice)
	t.Change24h = resolve(config.FieldChange24h)
	t.Volume = resolve(config.FieldVolume)
	return t, defaulted
}

// NormalizeAll keeps usable tickers in input order and reports how many records were dropped.
// onDefault, when set, observes every coerced field.
func (n *Normalizer) NormalizeAll(raws []RawTicker, onDefault func(symbol, field string)) ([]signal.Ticker, int) {
	out := make([]signal.Ticker, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		t, defaulted := n.Normalize(raw)
		if t.Symbol == "" {
			dropped++
			continue
		}
		if onDefault != nil {
			for _, field := range defaulted {
				onDefault(t.Symbol, field)
			}
		}
		out = append(out, t)
	}
	return out, dropped
}

// decodeTickers turns raw list elements into records; elements that are not objects are dropped.
func decodeTickers(records []json.RawMessage) []RawTicker {
	out := make([]RawTicker, 0, len(records))
	for _, rec := range records {
		var raw RawTicker
		if err := decodeNumbers(rec, &raw); err != nil || raw == nil {
			continue
		}
		out = append(out, raw)
	}
	return out
}

// coerceFloat parses numbers and numeric strings. ok is false for anything absent,
// unparsable, or non-finite.
func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil, bool:
		return 0, false
	case json.Number:
		f, err := x.Float64()
		return f, err == nil && finite(f)
	case string:
		x = strings.TrimSpace(x)
		if x == "" {
			return 0, false
		}
		v = x
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

func coerceSymbol(v any) string {
	switch v.(type) {
	case nil, bool, map[string]any, []any:
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
