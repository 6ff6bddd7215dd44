package chart

import (
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// ZoomClassifier maps the visible share of the loaded span to a granularity
// band. One ordered table drives both the zoom indicator label and the fetch
// resolution; keeping them in a single place rules out divergence.
// -----------------------------------------------------------------------------

// defaultZoomBands is ordered by ascending ceiling. A span ratio classifies
// into the first band whose ceiling is >= the ratio; the ceiling is inclusive,
// so exact boundary hits resolve to the finer band. The last entry is the
// catch-all.
var defaultZoomBands = []models.MZoomBand{
	{RatioCeiling: 0.02, Label: "30 Seconds", Level: models.LevelSecond, BucketMs: 30_000},
	{RatioCeiling: 0.1, Label: "5 Minutes", Level: models.LevelMinute, BucketMs: 300_000},
	{RatioCeiling: 0.5, Label: "1 Hour", Level: models.LevelHour, BucketMs: 3_600_000},
	{RatioCeiling: 1.0, Label: "1 Day", Level: models.LevelDay, BucketMs: 86_400_000},
}

// -----------------------------------------------------------------------------

type ZoomClassifier struct {
	bands []models.MZoomBand
}

// -----------------------------------------------------------------------------

func NewZoomClassifier() *ZoomClassifier {
	return &ZoomClassifier{bands: defaultZoomBands}
}

// -----------------------------------------------------------------------------

// Classify returns the band for a span ratio in (0,1]. Ratios above the last
// ceiling (or non-positive ones) fall through to the catch-all coarse band.
func (zc *ZoomClassifier) Classify(spanRatio float64) models.MZoomBand {
	if spanRatio > 0 {
		for _, band := range zc.bands {
			if spanRatio <= band.RatioCeiling {
				return band
			}
		}
	}
	return zc.bands[len(zc.bands)-1]
}

// -----------------------------------------------------------------------------

// Bands exposes the table (read-only use: config endpoint, tests).
func (zc *ZoomClassifier) Bands() []models.MZoomBand {
	return zc.bands
}

// -----------------------------------------------------------------------------

// SpanRatio returns the visible share of the loaded span. A degenerate loaded
// span reports 1.0 so classification falls back to the coarse band.
func (zc *ZoomClassifier) SpanRatio(visible models.MVisibleSpan, loadedStart, loadedEnd int64) float64 {
	total := loadedEnd - loadedStart
	if total <= 0 {
		return 1.0
	}

	ratio := float64(visible.Width()) / float64(total)
	if ratio > 1.0 {
		ratio = 1.0
	}
	return ratio
}

// -----------------------------------------------------------------------------

// Project converts a fractional zoom range into the absolute visible span of
// the loaded series range.
func (zc *ZoomClassifier) Project(zoom models.MZoomRange, loadedStart, loadedEnd int64) models.MVisibleSpan {
	if loadedEnd <= loadedStart {
		return models.MVisibleSpan{StartTime: loadedStart, EndTime: loadedEnd}
	}

	total := float64(loadedEnd - loadedStart)
	return models.MVisibleSpan{
		StartTime: loadedStart + int64(total*zoom.StartFraction/100.0),
		EndTime:   loadedStart + int64(total*zoom.EndFraction/100.0),
	}
}

// -----------------------------------------------------------------------------

// Fractions is the inverse projection: the zoom range that shows span against
// the loaded range. Results are clamped to [0,100].
func (zc *ZoomClassifier) Fractions(span models.MVisibleSpan, loadedStart, loadedEnd int64) models.MZoomRange {
	if loadedEnd <= loadedStart {
		return models.FullZoomRange()
	}

	total := float64(loadedEnd - loadedStart)
	zoom := models.MZoomRange{
		StartFraction: float64(span.StartTime-loadedStart) / total * 100.0,
		EndFraction:   float64(span.EndTime-loadedStart) / total * 100.0,
	}

	if zoom.StartFraction < 0 {
		zoom.StartFraction = 0
	}
	if zoom.EndFraction > 100 {
		zoom.EndFraction = 100
	}
	return zoom
}
