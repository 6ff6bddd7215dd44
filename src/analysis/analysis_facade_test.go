package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

func newTestFacade() *AnalysisFacade {
	cfg := &models.MConfig{}
	return NewAnalysisFacade(cfg, logger.NewLogger(cfg, "Analysis"))
}

func TestWindowStatsKnownValues(t *testing.T) {
	facade := newTestFacade()

	series := models.MSeries{
		{Timestamp: 1000, Value: 1},
		{Timestamp: 2000, Value: 2},
		{Timestamp: 3000, Value: 3},
		{Timestamp: 4000, Value: 6},
	}
	spikes := models.MSpikeSet{
		Upper: models.MSeries{{Timestamp: 4000, Value: 6}},
		Lower: models.MSeries{},
	}

	stats := facade.WindowStats(series, spikes)

	assert.Equal(t, 4, stats.Count)
	assert.Equal(t, 1, stats.UpperSpikes)
	assert.Equal(t, 0, stats.LowerSpikes)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 6.0, stats.Max)
	assert.InDelta(t, 3.0, stats.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(3.5), stats.StdDev, 1e-9)
	assert.Equal(t, 6.0, stats.Latest)
	assert.Equal(t, int64(1000), stats.StartTime)
	assert.Equal(t, int64(4000), stats.EndTime)
	assert.False(t, stats.CreatedAt.IsZero())
}

func TestWindowStatsEmpty(t *testing.T) {
	facade := newTestFacade()

	stats := facade.WindowStats(models.MSeries{}, models.EmptySpikeSet())

	require.Equal(t, 0, stats.Count)
	assert.Equal(t, 0.0, stats.Min)
	assert.Equal(t, 0.0, stats.Max)
	assert.Equal(t, 0.0, stats.Latest)
	assert.Equal(t, int64(0), stats.StartTime)
	assert.Equal(t, int64(0), stats.EndTime)
}
