package strategy

import (
	"strings"

	sig "github.com/rtr-rodrigo/Sniper-BitGet/internal/signal"
)

// Strategy labels an enriched instrument.
type Strategy interface {
	Classify(e sig.Enriched) sig.Instrument
	Name() string
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, th Thresholds) Strategy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "sniper", "v3.5":
		return NewSniper(th)
	default:
		return NewSniper(th)
	}
}
