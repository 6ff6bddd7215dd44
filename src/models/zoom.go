package models

// -----------------------------------------------------------------------------
// Zoom state. Fractions are percentages of the *currently loaded* series span,
// not absolute time; the visible span is the projection onto absolute
// timestamps.
// -----------------------------------------------------------------------------

type MZoomRange struct {
	StartFraction float64 `json:"start_fraction"` // [0,100]
	EndFraction   float64 `json:"end_fraction"`   // [0,100]
}

// -----------------------------------------------------------------------------

// FullZoomRange covers the whole loaded span.
func FullZoomRange() MZoomRange {
	return MZoomRange{StartFraction: 0, EndFraction: 100}
}

// -----------------------------------------------------------------------------

// IsValid checks fraction ordering and bounds.
func (z MZoomRange) IsValid() bool {
	return z.StartFraction >= 0 && z.EndFraction <= 100 && z.StartFraction < z.EndFraction
}

// -----------------------------------------------------------------------------

// Width returns the covered share of the loaded span in [0,1].
func (z MZoomRange) Width() float64 {
	return (z.EndFraction - z.StartFraction) / 100.0
}

// -----------------------------------------------------------------------------

// MVisibleSpan is the absolute time range currently shown by the chart.
type MVisibleSpan struct {
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
}

// -----------------------------------------------------------------------------

// Contains reports whether ts lies inside the span (inclusive bounds).
func (v MVisibleSpan) Contains(ts int64) bool {
	return ts >= v.StartTime && ts <= v.EndTime
}

// -----------------------------------------------------------------------------

// Width returns the span length in milliseconds.
func (v MVisibleSpan) Width() int64 {
	return v.EndTime - v.StartTime
}
