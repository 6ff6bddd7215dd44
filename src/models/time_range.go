package models

// -----------------------------------------------------------------------------
// MTimeRange is a half-open absolute-time interval [StartMs, EndMs) in epoch
// milliseconds. Fetch plans and cache coverage are expressed in these.
// -----------------------------------------------------------------------------

type MTimeRange struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
}

// -----------------------------------------------------------------------------

// IsValid reports whether the range is non-empty.
func (r MTimeRange) IsValid() bool {
	return r.EndMs > r.StartMs
}

// -----------------------------------------------------------------------------

// DurationMs returns the range length in milliseconds.
func (r MTimeRange) DurationMs() int64 {
	return r.EndMs - r.StartMs
}

// -----------------------------------------------------------------------------

// Overlaps reports whether two half-open ranges intersect.
func (r MTimeRange) Overlaps(other MTimeRange) bool {
	return r.StartMs < other.EndMs && other.StartMs < r.EndMs
}
