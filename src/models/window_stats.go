package models

import "time"

// MWindowStats summarizes the current in-memory window for the stats endpoint.
type MWindowStats struct {
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Mean        float64   `json:"mean"`
	StdDev      float64   `json:"std_dev"`
	Latest      float64   `json:"latest"`
	Trend       float64   `json:"trend"` // EMA over the window tail
	Count       int       `json:"count"`
	UpperSpikes int       `json:"upper_spikes"`
	LowerSpikes int       `json:"lower_spikes"`
	StartTime   int64     `json:"start_time"`
	EndTime     int64     `json:"end_time"`
	CreatedAt   time.Time `json:"created_at"`
}
