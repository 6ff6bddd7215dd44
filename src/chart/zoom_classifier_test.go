package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

func TestClassifyLadder(t *testing.T) {
	zc := NewZoomClassifier()

	tests := []struct {
		ratio     float64
		wantLabel string
		wantLevel models.MGranularityLevel
	}{
		{1.0, "1 Day", models.LevelDay},
		{0.5, "1 Hour", models.LevelHour}, // ceiling is inclusive
		{0.3, "1 Hour", models.LevelHour},
		{0.1, "5 Minutes", models.LevelMinute},
		{0.05, "5 Minutes", models.LevelMinute},
		{0.021, "5 Minutes", models.LevelMinute},
		{0.02, "30 Seconds", models.LevelSecond},
		{0.001, "30 Seconds", models.LevelSecond},
		// Out-of-domain ratios fall through to the coarse catch-all.
		{1.5, "1 Day", models.LevelDay},
		{0, "1 Day", models.LevelDay},
		{-0.2, "1 Day", models.LevelDay},
	}

	for _, tt := range tests {
		band := zc.Classify(tt.ratio)
		assert.Equal(t, tt.wantLabel, band.Label, "ratio %v", tt.ratio)
		assert.Equal(t, tt.wantLevel, band.Level, "ratio %v", tt.ratio)
	}
}

func TestClassifyLadderIsMonotonic(t *testing.T) {
	zc := NewZoomClassifier()

	// Shrinking the ratio never yields a coarser level.
	prev := zc.Classify(1.0).Level
	for _, ratio := range []float64{0.5, 0.1, 0.02} {
		level := zc.Classify(ratio).Level
		assert.True(t, level.FinerOrEqual(prev), "ratio %v classified coarser than its predecessor", ratio)
		prev = level
	}
}

func TestBandsTableOrdered(t *testing.T) {
	zc := NewZoomClassifier()
	bands := zc.Bands()

	require.NotEmpty(t, bands)
	for i := 1; i < len(bands); i++ {
		assert.Greater(t, bands[i].RatioCeiling, bands[i-1].RatioCeiling)
		assert.Greater(t, bands[i].BucketMs, bands[i-1].BucketMs)
	}
	assert.Equal(t, 1.0, bands[len(bands)-1].RatioCeiling)
}

func TestProjectFractionsRoundTrip(t *testing.T) {
	zc := NewZoomClassifier()
	loadedStart, loadedEnd := int64(10_000), int64(110_000)

	zoom := models.MZoomRange{StartFraction: 25, EndFraction: 75}
	visible := zc.Project(zoom, loadedStart, loadedEnd)

	assert.Equal(t, int64(35_000), visible.StartTime)
	assert.Equal(t, int64(85_000), visible.EndTime)

	back := zc.Fractions(visible, loadedStart, loadedEnd)
	assert.InDelta(t, zoom.StartFraction, back.StartFraction, 1e-9)
	assert.InDelta(t, zoom.EndFraction, back.EndFraction, 1e-9)
}

func TestProjectDegenerateLoadedSpan(t *testing.T) {
	zc := NewZoomClassifier()

	visible := zc.Project(models.FullZoomRange(), 5000, 5000)
	assert.Equal(t, int64(5000), visible.StartTime)
	assert.Equal(t, int64(5000), visible.EndTime)

	assert.Equal(t, models.FullZoomRange(), zc.Fractions(visible, 5000, 5000))
}

func TestFractionsClamped(t *testing.T) {
	zc := NewZoomClassifier()

	span := models.MVisibleSpan{StartTime: -50_000, EndTime: 250_000}
	zoom := zc.Fractions(span, 0, 100_000)

	assert.Equal(t, 0.0, zoom.StartFraction)
	assert.Equal(t, 100.0, zoom.EndFraction)
}

func TestSpanRatio(t *testing.T) {
	zc := NewZoomClassifier()

	ratio := zc.SpanRatio(models.MVisibleSpan{StartTime: 0, EndTime: 50_000}, 0, 100_000)
	assert.InDelta(t, 0.5, ratio, 1e-9)

	// Wider than loaded clamps to 1.
	ratio = zc.SpanRatio(models.MVisibleSpan{StartTime: 0, EndTime: 200_000}, 0, 100_000)
	assert.Equal(t, 1.0, ratio)

	// Degenerate loaded span reports full.
	ratio = zc.SpanRatio(models.MVisibleSpan{StartTime: 0, EndTime: 10}, 500, 500)
	assert.Equal(t, 1.0, ratio)
}
