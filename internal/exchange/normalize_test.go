package exchange

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
)

func TestNormalizeAppliesAliasesAndScale(t *testing.T) {
	n := NewNormalizer(config.BitgetRoutes()[0].Aliases)
	ticker, defaulted := n.Normalize(RawTicker{
		"symbol":     " BTCUSDT ",
		"lastPr":     "64250.5",
		"change24h":  "0.0213",
		"baseVolume": json.Number("1200"),
	})

	assert.Empty(t, defaulted)
	assert.Equal(t, "BTCUSDT", ticker.Symbol)
	assert.InDelta(t, 64250.5, ticker.Price, 1e-9)
	assert.InDelta(t, 2.13, ticker.Change24h, 1e-9)
	assert.InDelta(t, 1200, ticker.Volume, 1e-9)
}

func TestNormalizeLastAppliedAliasWins(t *testing.T) {
	n := NewNormalizer([]config.Alias{
		{Source: "baseVolume", Target: config.FieldVolume},
		{Source: "usdtVolume", Target: config.FieldVolume},
	})
	ticker, _ := n.Normalize(RawTicker{"symbol": "ETHUSDT", "baseVolume": "10", "usdtVolume": "35000"})
	assert.InDelta(t, 35000, ticker.Volume, 1e-9)

	ticker, _ = n.Normalize(RawTicker{"symbol": "ETHUSDT", "baseVolume": "10"})
	assert.InDelta(t, 10, ticker.Volume, 1e-9, "absent later alias must not clobber an earlier one")
}

func TestNormalizeDefaultsMissingAndUnparsable(t *testing.T) {
	n := NewNormalizer(config.BitgetRoutes()[1].Aliases)
	cases := map[string]RawTicker{
		"all missing":  {"symbol": "XRPUSDT_UMCBL"},
		"unparsable":   {"symbol": "XRPUSDT_UMCBL", "last": "n/a", "chgUTC": "", "usdtVolume": "NaN"},
		"wrong types":  {"symbol": "XRPUSDT_UMCBL", "last": true, "chgUTC": map[string]any{}, "usdtVolume": nil},
		"inf and list": {"symbol": "XRPUSDT_UMCBL", "last": "+Inf", "chgUTC": []any{1}, "usdtVolume": "-Inf"},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			ticker, defaulted := n.Normalize(raw)
			assert.Equal(t, "XRPUSDT_UMCBL", ticker.Symbol)
			assert.Zero(t, ticker.Price)
			assert.Zero(t, ticker.Change24h)
			assert.Zero(t, ticker.Volume)
			assert.ElementsMatch(t, []string{config.FieldPrice, config.FieldChange24h, config.FieldVolume}, defaulted)
		})
	}
}

func TestNormalizeCanonicalFieldsPassThrough(t *testing.T) {
	n := NewNormalizer(nil)
	ticker, defaulted := n.Normalize(RawTicker{"symbol": "SOLUSDT", "price": 150.0, "change_24h": -3.5, "volume": 42})
	assert.Empty(t, defaulted)
	assert.InDelta(t, 150, ticker.Price, 1e-9)
	assert.InDelta(t, -3.5, ticker.Change24h, 1e-9)
	assert.InDelta(t, 42, ticker.Volume, 1e-9)
}

func TestNormalizeAllDropsRecordsWithoutSymbol(t *testing.T) {
	n := NewNormalizer(config.BitgetRoutes()[0].Aliases)
	var observed []string
	tickers, dropped := n.NormalizeAll([]RawTicker{
		{"symbol": "BTCUSDT", "lastPr": "1", "change24h": "0", "baseVolume": "2"},
		{"lastPr": "5"},
		{"symbol": "   "},
		{"symbol": "ETHUSDT", "lastPr": "3"},
	}, func(symbol, field string) { observed = append(observed, symbol+":"+field) })

	require.Len(t, tickers, 2)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "BTCUSDT", tickers[0].Symbol)
	assert.Equal(t, "ETHUSDT", tickers[1].Symbol)
	assert.Equal(t, []string{"ETHUSDT:change_24h", "ETHUSDT:volume"}, observed)
}

func TestExtractRecords(t *testing.T) {
	records, err := extractRecords([]byte(`{"code":"00000","data":[{"symbol":"A"},{"symbol":"B"}]}`), config.EnvelopeObject, "data")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = extractRecords([]byte(`[[1,2,3,4,5]]`), config.EnvelopeArray, "data")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = extractRecords([]byte(`{"data":[[1,2,3,4,5]]}`), config.EnvelopeArray, "")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	for _, body := range []string{``, `{"data":null}`, `{"data":[]}`, `{"code":"40034","msg":"param error"}`} {
		_, err := extractRecords([]byte(body), config.EnvelopeObject, "data")
		assert.ErrorIs(t, err, ErrEmptyPayload, "body %q", body)
	}
	_, err = extractRecords([]byte(`[]`), config.EnvelopeArray, "data")
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, err = extractRecords([]byte(`<html>`), config.EnvelopeObject, "data")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyPayload)
}
