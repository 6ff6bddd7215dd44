package models

// MSpikeSet holds the points crossing the static thresholds, split by side.
// Derived from the working series on every change; never persisted.
type MSpikeSet struct {
	Upper MSeries `json:"upper"`
	Lower MSeries `json:"lower"`
}

// -----------------------------------------------------------------------------

// EmptySpikeSet returns a set with two empty (non-nil) series.
func EmptySpikeSet() MSpikeSet {
	return MSpikeSet{Upper: MSeries{}, Lower: MSeries{}}
}

// -----------------------------------------------------------------------------

// Count returns the total number of spike points.
func (s MSpikeSet) Count() int {
	return len(s.Upper) + len(s.Lower)
}
