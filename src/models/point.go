package models

import "math"

// MSensorPoint represents one sensor reading.
type MSensorPoint struct {
	Timestamp int64   `json:"timestamp"` // milliseconds since epoch
	Value     float64 `json:"value"`
}

// -----------------------------------------------------------------------------

// IsFinite reports whether the point carries a usable value.
func (p MSensorPoint) IsFinite() bool {
	return !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// -----------------------------------------------------------------------------
// MSeries is an ordered sequence of points, sorted ascending by timestamp.
// The working buffer is owned by the window store; everything else handles
// copies.
// -----------------------------------------------------------------------------

type MSeries []MSensorPoint

// -----------------------------------------------------------------------------

// Clone returns an independent copy of the series.
func (s MSeries) Clone() MSeries {
	if len(s) == 0 {
		return MSeries{}
	}
	out := make(MSeries, len(s))
	copy(out, s)
	return out
}

// -----------------------------------------------------------------------------

// Bounds returns the first and last timestamps. ok is false when empty.
func (s MSeries) Bounds() (minTs, maxTs int64, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	return s[0].Timestamp, s[len(s)-1].Timestamp, true
}

// -----------------------------------------------------------------------------

// IsStrictlySorted reports whether timestamps are strictly increasing.
func (s MSeries) IsStrictlySorted() bool {
	for i := 1; i < len(s); i++ {
		if s[i].Timestamp <= s[i-1].Timestamp {
			return false
		}
	}
	return true
}
