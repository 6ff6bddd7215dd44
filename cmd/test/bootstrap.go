package main

import (
	"math"
	"path/filepath"
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/history"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------

const (
	seedSpanMs     = int64(24 * 60 * 60 * 1000) // one day of history
	seedIntervalMs = int64(60 * 1000)           // one reading per minute
)

// buildConfig assembles a self-contained profile: sqlite history in a scratch
// directory, a short debounce so scenarios settle fast, and a scripted feed
// driven by the scenarios themselves.
func buildConfig(dir string) *models.MConfig {
	return &models.MConfig{
		Name:     "plant-monitor-harness",
		Host:     "127.0.0.1",
		Port:     9182,
		LogLevel: "WARNING",
		Sensor: models.MSensorConfig{
			ID:             "greenhouse-west-7",
			Unit:           "C",
			UpperThreshold: 8.0,
			LowerThreshold: -8.0,
			SpikesEnabled:  true,
		},
		Chart: models.MChartConfig{
			RetentionWindowMs:   seedSpanMs,
			BufferMarginMs:      5 * 60 * 1000,
			MaxPoints:           50_000,
			MaxRenderPoints:     2_000,
			DebounceMs:          20,
			AutoScrollEpsilonMs: 2_000,
			PrefetchEnabled:     true,
		},
		Cache: models.MCacheConfig{
			MaxEntries: 64,
			MaxBytes:   8 * 1024 * 1024,
		},
		History: models.MHistoryConfig{
			ProviderType: "sqlite",
			DBPath:       filepath.Join(dir, "readings.db"),
		},
		Feed: models.MFeedConfig{
			SourceType:   "simulator",
			IntervalMs:   1000,
			PeriodMs:     60 * 60 * 1000,
			RingCapacity: 512,
		},
	}
}

// -----------------------------------------------------------------------------

// seedHistory writes one day of minute-interval readings ending at nowMs: a
// sinusoid with a one-hour period inside the threshold corridor, so no seeded
// reading classifies as a spike.
func seedHistory(provider *history.SQLiteProvider, nowMs int64, appLogger *logger.Logger) error {
	start := nowMs - seedSpanMs

	points := make(models.MSeries, 0, seedSpanMs/seedIntervalMs+1)
	for ts := start; ts <= nowMs; ts += seedIntervalMs {
		phase := 2 * math.Pi * float64(ts%(60*60*1000)) / float64(60*60*1000)
		points = append(points, models.MSensorPoint{
			Timestamp: ts,
			Value:     5.0 * math.Sin(phase),
		})
	}

	started := time.Now()
	if err := provider.InsertReadings(points); err != nil {
		return err
	}

	appLogger.Info("Seeded %d readings in %v", len(points), time.Since(started))
	return nil
}
