package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

func newStore(maxPoints int, retentionMs, marginMs int64) *WindowStore {
	return NewWindowStore(models.MChartConfig{
		RetentionWindowMs: retentionMs,
		BufferMarginMs:    marginMs,
		MaxPoints:         maxPoints,
	}, testLogger("WindowStore"), metrics.NewNopMetrics())
}

func TestIngestHistoricalFirstLoad(t *testing.T) {
	ws := newStore(0, 1<<40, 0)
	chunk := stepSeries(1000, 1000, 5, flatValue(2.0))

	require.NoError(t, ws.IngestHistorical(chunk, models.LevelMinute))

	assert.Equal(t, 5, ws.Len())
	assert.Equal(t, chunk, ws.Snapshot())

	minTs, maxTs, ok := ws.Bounds()
	require.True(t, ok)
	assert.Equal(t, int64(1000), minTs)
	assert.Equal(t, int64(5000), maxTs)
}

func TestIngestMergeKeepsSortedWithoutDuplicates(t *testing.T) {
	ws := newStore(0, 1<<40, 0)

	require.NoError(t, ws.IngestHistorical(models.MSeries{pt(0, 1), pt(2000, 1), pt(4000, 1)}, models.LevelMinute))
	require.NoError(t, ws.IngestHistorical(models.MSeries{pt(1000, 2), pt(2000, 2), pt(3000, 2), pt(5000, 2)}, models.LevelMinute))

	snap := ws.Snapshot()
	require.True(t, snap.IsStrictlySorted())
	assert.Equal(t, 6, ws.Len())

	// The overlapping timestamp took the newer same-level value.
	for _, p := range snap {
		if p.Timestamp == 2000 {
			assert.Equal(t, 2.0, p.Value)
		}
	}
}

func TestIngestIdempotent(t *testing.T) {
	ws := newStore(0, 1<<40, 0)
	chunk := stepSeries(0, 500, 20, func(i int) float64 { return float64(i) })

	require.NoError(t, ws.IngestHistorical(chunk, models.LevelHour))
	first := ws.Snapshot()

	require.NoError(t, ws.IngestHistorical(chunk, models.LevelHour))
	assert.Equal(t, first, ws.Snapshot())
}

func TestFinerDataNeverDowngraded(t *testing.T) {
	ws := newStore(0, 1<<40, 0)

	require.NoError(t, ws.IngestHistorical(models.MSeries{pt(60_000, 1.5)}, models.LevelMinute))

	// A coarser refetch at the same timestamp must not replace the value.
	require.NoError(t, ws.IngestHistorical(models.MSeries{pt(60_000, 9.9)}, models.LevelDay))
	snap := ws.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 1.5, snap[0].Value)

	level, ok := ws.levelAt(60_000)
	require.True(t, ok)
	assert.Equal(t, models.LevelMinute, level)

	// A finer one replaces value and recorded level.
	require.NoError(t, ws.IngestHistorical(models.MSeries{pt(60_000, 2.5)}, models.LevelSecond))
	snap = ws.Snapshot()
	assert.Equal(t, 2.5, snap[0].Value)
	level, _ = ws.levelAt(60_000)
	assert.Equal(t, models.LevelSecond, level)

	// And once finest, a minute-level refetch is ignored again.
	require.NoError(t, ws.IngestHistorical(models.MSeries{pt(60_000, 7.7)}, models.LevelMinute))
	assert.Equal(t, 2.5, ws.Snapshot()[0].Value)
}

func TestIngestMalformedChunkAllOrNothing(t *testing.T) {
	ws := newStore(0, 1<<40, 0)
	require.NoError(t, ws.IngestHistorical(stepSeries(0, 1000, 3, flatValue(1)), models.LevelMinute))
	before := ws.Snapshot()

	tests := []struct {
		name  string
		chunk models.MSeries
	}{
		{"nan value", models.MSeries{pt(10_000, 1), pt(11_000, math.NaN()), pt(12_000, 1)}},
		{"inf value", models.MSeries{pt(10_000, 1), pt(11_000, math.Inf(1))}},
		{"non-increasing", models.MSeries{pt(10_000, 1), pt(10_000, 2)}},
		{"descending", models.MSeries{pt(11_000, 1), pt(10_000, 2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ws.IngestHistorical(tt.chunk, models.LevelMinute)
			require.Error(t, err)
			assert.True(t, helpers.IsMalformedPoint(err))
			assert.Equal(t, before, ws.Snapshot(), "rejected chunk must leave the buffer untouched")
		})
	}
}

func TestAppendLive(t *testing.T) {
	ws := newStore(0, 1<<40, 0)

	require.NoError(t, ws.AppendLive(pt(1000, 1)))
	require.NoError(t, ws.AppendLive(pt(2000, 2)))

	// Out-of-order point is inserted, not appended.
	require.NoError(t, ws.AppendLive(pt(1500, 1.5)))
	snap := ws.Snapshot()
	require.True(t, snap.IsStrictlySorted())
	require.Len(t, snap, 3)
	assert.Equal(t, int64(1500), snap[1].Timestamp)

	// Same-timestamp live point is a correction.
	require.NoError(t, ws.AppendLive(pt(1500, 9.5)))
	assert.Equal(t, 3, ws.Len())
	assert.Equal(t, 9.5, ws.Snapshot()[1].Value)
}

func TestAppendLiveWinsOverHistorical(t *testing.T) {
	ws := newStore(0, 1<<40, 0)
	require.NoError(t, ws.IngestHistorical(models.MSeries{pt(60_000, 4.0)}, models.LevelMinute))

	// Live points carry the finest level, so they overwrite bucket averages.
	require.NoError(t, ws.AppendLive(pt(60_000, 4.9)))

	snap := ws.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 4.9, snap[0].Value)

	level, ok := ws.levelAt(60_000)
	require.True(t, ok)
	assert.Equal(t, models.LevelSecond, level)
}

func TestAppendLiveRejectsNonFinite(t *testing.T) {
	ws := newStore(0, 1<<40, 0)
	require.NoError(t, ws.AppendLive(pt(1000, 1)))

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		err := ws.AppendLive(pt(2000, v))
		require.Error(t, err)
		assert.True(t, helpers.IsMalformedPoint(err))
	}
	assert.Equal(t, 1, ws.Len())
}

func TestTrimProtectsVisibleSpan(t *testing.T) {
	// Retention alone would cut at newest-10s; the visible span reaches
	// further back and must win.
	ws := newStore(0, 10_000, 1_000)
	require.NoError(t, ws.IngestHistorical(stepSeries(1000, 1000, 100, flatValue(1)), models.LevelSecond))

	visible := models.MVisibleSpan{StartTime: 20_000, EndTime: 30_000}
	ws.Trim(visible)

	minTs, maxTs, ok := ws.Bounds()
	require.True(t, ok)
	assert.Equal(t, int64(19_000), minTs, "cutoff is visible start minus margin")
	assert.Equal(t, int64(100_000), maxTs)

	kept := 0
	for _, p := range ws.Snapshot() {
		if visible.Contains(p.Timestamp) {
			kept++
		}
	}
	assert.Equal(t, 11, kept, "every visible point survives the trim")
}

func TestTrimAppliesRetention(t *testing.T) {
	ws := newStore(0, 10_000, 1_000)
	require.NoError(t, ws.IngestHistorical(stepSeries(1000, 1000, 100, flatValue(1)), models.LevelSecond))

	// Visible sits at the tail: retention is the binding cutoff.
	ws.Trim(models.MVisibleSpan{StartTime: 95_000, EndTime: 100_000})

	minTs, _, ok := ws.Bounds()
	require.True(t, ok)
	assert.Equal(t, int64(90_000), minTs)
	assert.Equal(t, 11, ws.Len())
}

func TestTrimMaxPointsCap(t *testing.T) {
	ws := newStore(10, 1<<40, 0)
	require.NoError(t, ws.IngestHistorical(stepSeries(1000, 1000, 100, flatValue(1)), models.LevelSecond))

	ws.Trim(models.MVisibleSpan{StartTime: 95_000, EndTime: 100_000})

	assert.Equal(t, 10, ws.Len())
	minTs, _, _ := ws.Bounds()
	assert.Equal(t, int64(91_000), minTs)
}

func TestTrimCapNeverEvictsProtectedPoints(t *testing.T) {
	ws := newStore(3, 1<<40, 0)
	require.NoError(t, ws.IngestHistorical(stepSeries(1000, 1000, 100, flatValue(1)), models.LevelSecond))

	// Eight points are visible; the cap of three must not break into them.
	ws.Trim(models.MVisibleSpan{StartTime: 93_000, EndTime: 100_000})

	assert.Equal(t, 8, ws.Len())
	minTs, _, _ := ws.Bounds()
	assert.Equal(t, int64(93_000), minTs)
}

func TestTrimEmptyStore(t *testing.T) {
	ws := newStore(10, 10_000, 0)
	ws.Trim(models.MVisibleSpan{StartTime: 0, EndTime: 1000})
	assert.Equal(t, 0, ws.Len())

	_, _, ok := ws.Bounds()
	assert.False(t, ok)
	assert.Empty(t, ws.Snapshot())
}

func TestSinusoidWindowSpikeScenario(t *testing.T) {
	// Points every second for 10s with values in [-5,5]; a live reading of 12
	// lands in the upper spike set and becomes the newest value in place.
	ws := newStore(0, 1<<40, 0)
	chunk := stepSeries(0, 1000, 11, func(i int) float64 {
		return 5 * math.Sin(float64(i))
	})
	require.NoError(t, ws.IngestHistorical(chunk, models.LevelSecond))

	require.NoError(t, ws.AppendLive(pt(10_000, 12)))

	_, maxTs, ok := ws.Bounds()
	require.True(t, ok)
	assert.Equal(t, int64(10_000), maxTs)
	assert.Equal(t, 11, ws.Len(), "same-timestamp live point replaces, not appends")

	detector := NewSpikeDetector(models.MSensorConfig{
		UpperThreshold: 5,
		LowerThreshold: -5,
		SpikesEnabled:  true,
	})
	set := detector.Classify(ws.Snapshot())
	require.Len(t, set.Upper, 1)
	assert.Equal(t, pt(10_000, 12), set.Upper[0])
	assert.Empty(t, set.Lower)
}
