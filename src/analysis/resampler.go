package analysis

import (
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// Render downsampling. Series longer than the renderer budget are reduced by
// index bucketing: every bucket contributes its minimum and maximum point in
// chronological order, so threshold crossings survive the reduction. The
// first and last points are always kept to preserve the loaded span.
// -----------------------------------------------------------------------------

// Downsample reduces series to at most maxPoints points. Series already
// within budget (and non-positive budgets) pass through untouched.
func Downsample(series models.MSeries, maxPoints int) models.MSeries {
	n := len(series)
	if maxPoints <= 0 || n <= maxPoints {
		return series
	}
	if maxPoints < 4 {
		return models.MSeries{series[0], series[n-1]}
	}

	// Two slots are reserved for the endpoints; the interior is bucketed
	// with up to two survivors per bucket.
	buckets := (maxPoints - 2) / 2
	interior := series[1 : n-1]
	size := float64(len(interior)) / float64(buckets)

	out := make(models.MSeries, 0, maxPoints)
	out = append(out, series[0])

	for b := 0; b < buckets; b++ {
		start := int(float64(b) * size)
		end := int(float64(b+1) * size)
		if end > len(interior) {
			end = len(interior)
		}
		if start >= end {
			continue
		}

		minIdx, maxIdx := start, start
		for i := start + 1; i < end; i++ {
			if interior[i].Value < interior[minIdx].Value {
				minIdx = i
			}
			if interior[i].Value > interior[maxIdx].Value {
				maxIdx = i
			}
		}

		switch {
		case minIdx == maxIdx:
			out = append(out, interior[minIdx])
		case minIdx < maxIdx:
			out = append(out, interior[minIdx], interior[maxIdx])
		default:
			out = append(out, interior[maxIdx], interior[minIdx])
		}
	}

	out = append(out, series[n-1])
	return out
}
