package models

// -----------------------------------------------------------------------------
// Render payload pushed to the rendering surface (Matches hub protocol)
// -----------------------------------------------------------------------------

type MRenderPayload struct {
	Type             string     `json:"type"` // "INITIAL" or "UPDATE"
	Series           MSeries    `json:"series"`
	UpperSpikes      MSeries    `json:"upper_spikes"`
	LowerSpikes      MSeries    `json:"lower_spikes"`
	GranularityLabel string     `json:"granularity_label"`
	ZoomRange        MZoomRange `json:"zoom_range"`
	Timestamp        int64      `json:"timestamp"`
}

// -----------------------------------------------------------------------------
// Client command sent over the websocket
// -----------------------------------------------------------------------------

type MClientCommand struct {
	Command string  `json:"command"` // "subscribe" or "zoom"
	Start   float64 `json:"start"`   // zoom start fraction [0,100]
	End     float64 `json:"end"`     // zoom end fraction [0,100]
}
