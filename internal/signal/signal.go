// Package signal standardizes payloads shared between data ingestion and strategy layers.
package signal

import "time"

// Ticker is the canonical exchange-independent 24h snapshot of one perpetual contract.
type Ticker struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change_24h"` // percentage points
	Volume    float64 `json:"volume"`
}

// Candle is one OHLC bar. Ts is zero when the upstream row carried no usable timestamp.
type Candle struct {
	Ts    time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Enriched attaches 1-hour bar metrics to a ticker.
type Enriched struct {
	Ticker
	Amplitude1h float64 `json:"amplitude_1h"`
	Direction1h float64 `json:"direction_1h"`
}

// Instrument is a fully classified row handed to presentation.
type Instrument struct {
	Enriched
	Display   string `json:"display"`
	Diagnosis string `json:"diagnosis"`
	Bias      string `json:"bias"`
}
