package chart

import (
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// SpikeDetector classifies points against the static sensor thresholds.
// Pure: no state beyond configuration, no side effects.
// -----------------------------------------------------------------------------

type SpikeDetector struct {
	UpperThreshold float64
	LowerThreshold float64
	Enabled        bool
}

// -----------------------------------------------------------------------------

// NewSpikeDetector builds a detector from the sensor config. Thresholds are
// validated disjoint (upper > 0 > lower) at config load, so a point can never
// satisfy both sides.
func NewSpikeDetector(cfg models.MSensorConfig) *SpikeDetector {
	return &SpikeDetector{
		UpperThreshold: cfg.UpperThreshold,
		LowerThreshold: cfg.LowerThreshold,
		Enabled:        cfg.SpikesEnabled,
	}
}

// -----------------------------------------------------------------------------

// Classify splits series into threshold-crossing points. Disabled mode
// returns two empty series. The input is never mutated.
func (d *SpikeDetector) Classify(series models.MSeries) models.MSpikeSet {
	set := models.EmptySpikeSet()
	if !d.Enabled {
		return set
	}

	for _, p := range series {
		switch {
		case p.Value > d.UpperThreshold:
			set.Upper = append(set.Upper, p)
		case p.Value < d.LowerThreshold:
			set.Lower = append(set.Lower, p)
		}
	}

	return set
}
