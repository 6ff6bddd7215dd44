package analysis

import (
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/analysis/core"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// trendWindow is the EMA span used for the stats trend value.
const trendWindow = 20

// AnalysisFacade bundles the window computations the controller and the HTTP
// surface need: summary statistics and render downsampling. All methods are
// pure over their inputs.
type AnalysisFacade struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg *models.MConfig, log *logger.Logger) *AnalysisFacade {
	return &AnalysisFacade{Config: cfg, Logger: log}
}

// -----------------------------------------------------------------------------

// WindowStats summarizes the full working window for the stats endpoint.
func (a *AnalysisFacade) WindowStats(series models.MSeries, spikes models.MSpikeSet) models.MWindowStats {
	stats := models.MWindowStats{
		Count:       len(series),
		UpperSpikes: len(spikes.Upper),
		LowerSpikes: len(spikes.Lower),
		CreatedAt:   time.Now().UTC(),
	}
	if len(series) == 0 {
		return stats
	}

	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	stats.Mean, stats.StdDev = core.CalculateMeanStd(values)
	stats.Min, stats.Max = core.MinMax(values)
	stats.Latest = values[len(values)-1]
	stats.Trend = core.EMA(values, trendWindow)
	stats.StartTime = series[0].Timestamp
	stats.EndTime = series[len(series)-1].Timestamp
	return stats
}

// -----------------------------------------------------------------------------

// Downsample reduces a series to the renderer budget, keeping per-bucket
// extremes so threshold spikes stay visible.
func (a *AnalysisFacade) Downsample(series models.MSeries, maxPoints int) models.MSeries {
	return Downsample(series, maxPoints)
}
