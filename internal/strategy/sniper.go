// Package strategy turns enriched market data into human-readable labels.
package strategy

import (
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/signal"
)

// Diagnosis describes the state of the market for one instrument.
type Diagnosis string

const (
	Rocket            Diagnosis = "Rocket"
	Capitulation      Diagnosis = "Capitulation"
	ExtremeVolatility Diagnosis = "Extreme volatility"
	HighVolatility    Diagnosis = "High volatility"
	Normal            Diagnosis = "Normal"
)

// Bias is the suggested directional stance.
type Bias string

const (
	PossibleLong          Bias = "Possible long"
	PossibleShort         Bias = "Possible short"
	PossiblePullbackShort Bias = "Possible pullback (short)"
	PossibleBounceLong    Bias = "Possible bounce (long)"
	Wait                  Bias = "Wait"
)

// Thresholds are expressed in percent; change thresholds apply to the 24h change.
type Thresholds struct {
	RocketChange       float64
	CapitulationChange float64
	ExtremeAmplitude   float64
	HighAmplitude      float64
	PullbackChange     float64
	PullbackDirection  float64
	BounceChange       float64
	BounceDirection    float64
}

// DefaultThresholds returns the fixed scanner thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RocketChange:       15,
		CapitulationChange: -10,
		ExtremeAmplitude:   3.5,
		HighAmplitude:      2.0,
		PullbackChange:     5,
		PullbackDirection:  -0.5,
		BounceChange:       -5,
		BounceDirection:    0.5,
	}
}

// ThresholdsFrom copies the classifier config section.
func ThresholdsFrom(cfg config.Classifier) Thresholds {
	return Thresholds{
		RocketChange:       cfg.RocketChange,
		CapitulationChange: cfg.CapitulationChange,
		ExtremeAmplitude:   cfg.ExtremeAmplitude,
		HighAmplitude:      cfg.HighAmplitude,
		PullbackChange:     cfg.PullbackChange,
		PullbackDirection:  cfg.PullbackDirection,
		BounceChange:       cfg.BounceChange,
		BounceDirection:    cfg.BounceDirection,
	}
}

// Sniper applies priority-ordered threshold rules; the first matching rule wins.
type Sniper struct {
	th Thresholds
}

// NewSniper builds the classifier.
func NewSniper(th Thresholds) *Sniper {
	return &Sniper{th: th}
}

// Name returns the configured identifier for logging.
func (s *Sniper) Name() string { return "Sniper" }

// Diagnose labels the market state from the 1h amplitude and the 24h change.
func (s *Sniper) Diagnose(amplitude1h, change24h float64) Diagnosis {
	switch {
	case change24h > s.th.RocketChange:
		return Rocket
	case change24h < s.th.CapitulationChange:
		return Capitulation
	case amplitude1h > s.th.ExtremeAmplitude:
		return ExtremeVolatility
	case amplitude1h > s.th.HighAmplitude:
		return HighVolatility
	default:
		return Normal
	}
}

// Bias suggests a stance from the 24h change and the 1h direction.
func (s *Sniper) Bias(change24h, direction1h float64) Bias {
	switch {
	case change24h > 0 && direction1h > 0:
		return PossibleLong
	case change24h < 0 && direction1h < 0:
		return PossibleShort
	case change24h > s.th.PullbackChange && direction1h < s.th.PullbackDirection:
		return PossiblePullbackShort
	case change24h < s.th.BounceChange && direction1h > s.th.BounceDirection:
		return PossibleBounceLong
	default:
		return Wait
	}
}

// Classify attaches diagnosis and bias to e.
func (s *Sniper) Classify(e signal.Enriched) signal.Instrument {
	return signal.Instrument{
		Enriched:  e,
		Diagnosis: string(s.Diagnose(e.Amplitude1h, e.Change24h)),
		Bias:      string(s.Bias(e.Change24h, e.Direction1h)),
	}
}
