package models

// -----------------------------------------------------------------------------
// Granularity levels, ordered finest to coarsest. The numeric order carries
// the merge rule: a stored slot is only overwritten by data of equal-or-finer
// level.
// -----------------------------------------------------------------------------

type MGranularityLevel int

const (
	LevelSecond MGranularityLevel = iota
	LevelMinute
	LevelHour
	LevelDay
)

// -----------------------------------------------------------------------------

// FinerOrEqual reports whether l is at least as fine as other.
func (l MGranularityLevel) FinerOrEqual(other MGranularityLevel) bool {
	return l <= other
}

// -----------------------------------------------------------------------------

func (l MGranularityLevel) String() string {
	switch l {
	case LevelSecond:
		return "second"
	case LevelMinute:
		return "minute"
	case LevelHour:
		return "hour"
	case LevelDay:
		return "day"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// MZoomBand is one row of the zoom classification table: visible spans whose
// ratio of the loaded span is <= RatioCeiling resolve to this band. The same
// table drives the zoom indicator label and the fetch resolution, so the two
// can never diverge.
// -----------------------------------------------------------------------------

type MZoomBand struct {
	RatioCeiling float64           `json:"ratio_ceiling"`
	Label        string            `json:"label"`
	Level        MGranularityLevel `json:"level"`
	BucketMs     int64             `json:"bucket_ms"`
}
