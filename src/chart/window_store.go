package chart

import (
	"fmt"
	"sort"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// WindowStore is the single authoritative in-memory buffer per chart instance.
// Each slot remembers the granularity its point arrived at, so a coarser
// refetch can never silently downgrade finer data. The store is owned by the
// controller loop and is NOT safe for concurrent use.
// -----------------------------------------------------------------------------

type windowSlot struct {
	point models.MSensorPoint
	level models.MGranularityLevel
}

type WindowStore struct {
	slots []windowSlot

	retentionWindowMs int64
	bufferMarginMs    int64
	maxPoints         int

	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// -----------------------------------------------------------------------------

func NewWindowStore(cfg models.MChartConfig, log *logger.Logger, met *metrics.Metrics) *WindowStore {
	return &WindowStore{
		slots:             make([]windowSlot, 0, 256),
		retentionWindowMs: cfg.RetentionWindowMs,
		bufferMarginMs:    cfg.BufferMarginMs,
		maxPoints:         cfg.MaxPoints,
		Logger:            log,
		Metrics:           met,
	}
}

// -----------------------------------------------------------------------------

// IngestHistorical merges chunk into the buffer at the given granularity.
// The whole chunk is validated first: a non-finite value or a non-increasing
// timestamp rejects the entire call and leaves the buffer untouched
// (all-or-nothing). Merge is a linear merge-join over the sorted invariant.
func (ws *WindowStore) IngestHistorical(chunk models.MSeries, level models.MGranularityLevel) error {
	if len(chunk) == 0 {
		return nil
	}

	if err := validateChunk(chunk); err != nil {
		return err
	}

	// First load: no merge needed.
	if len(ws.slots) == 0 {
		ws.slots = make([]windowSlot, len(chunk))
		for i, p := range chunk {
			ws.slots[i] = windowSlot{point: p, level: level}
		}
		ws.updateGauge()
		return nil
	}

	// Merge-join: both sides sorted ascending.
	merged := make([]windowSlot, 0, len(ws.slots)+len(chunk))
	i, j := 0, 0
	for i < len(ws.slots) && j < len(chunk) {
		existing := ws.slots[i]
		incoming := chunk[j]

		switch {
		case existing.point.Timestamp < incoming.Timestamp:
			merged = append(merged, existing)
			i++
		case existing.point.Timestamp > incoming.Timestamp:
			merged = append(merged, windowSlot{point: incoming, level: level})
			j++
		default:
			// Duplicate timestamp: the new point wins only when it is
			// equal-or-finer than what the slot currently holds.
			if level.FinerOrEqual(existing.level) {
				merged = append(merged, windowSlot{point: incoming, level: level})
			} else {
				merged = append(merged, existing)
			}
			i++
			j++
		}
	}
	for ; i < len(ws.slots); i++ {
		merged = append(merged, ws.slots[i])
	}
	for ; j < len(chunk); j++ {
		merged = append(merged, windowSlot{point: chunk[j], level: level})
	}

	ws.slots = merged
	ws.updateGauge()
	return nil
}

// -----------------------------------------------------------------------------

// AppendLive adds a live point. Points newer than the current tail are
// appended; older ones are treated as corrections and merged under the same
// duplicate rule. Live points carry the finest level.
func (ws *WindowStore) AppendLive(p models.MSensorPoint) error {
	if !p.IsFinite() {
		return helpers.NewMalformedPointError(
			fmt.Sprintf("live point at %d has non-finite value", p.Timestamp), nil)
	}

	slot := windowSlot{point: p, level: models.LevelSecond}

	n := len(ws.slots)
	if n == 0 || p.Timestamp > ws.slots[n-1].point.Timestamp {
		ws.slots = append(ws.slots, slot)
		ws.updateGauge()
		return nil
	}

	// Correction path: locate the insertion slot.
	idx := sort.Search(n, func(i int) bool {
		return ws.slots[i].point.Timestamp >= p.Timestamp
	})

	if idx < n && ws.slots[idx].point.Timestamp == p.Timestamp {
		if slot.level.FinerOrEqual(ws.slots[idx].level) {
			ws.slots[idx] = slot
		}
		return nil
	}

	ws.slots = append(ws.slots, windowSlot{})
	copy(ws.slots[idx+1:], ws.slots[idx:])
	ws.slots[idx] = slot
	ws.updateGauge()
	return nil
}

// -----------------------------------------------------------------------------

// Trim enforces the sliding-window bounds. The nominal cutoff is
// newest - retentionWindow, clamped so nothing inside the visible span (or
// its buffer margin) is ever dropped. The MaxPoints bound evicts oldest
// slots under the same protection.
func (ws *WindowStore) Trim(visible models.MVisibleSpan) {
	if len(ws.slots) == 0 {
		return
	}

	newest := ws.slots[len(ws.slots)-1].point.Timestamp
	nominalCutoff := newest - ws.retentionWindowMs
	protectedCutoff := visible.StartTime - ws.bufferMarginMs

	cutoff := nominalCutoff
	if protectedCutoff < cutoff {
		cutoff = protectedCutoff
	}

	// Slots are sorted; find the first survivor.
	first := sort.Search(len(ws.slots), func(i int) bool {
		return ws.slots[i].point.Timestamp >= cutoff
	})
	if first > 0 {
		ws.slots = ws.slots[first:]
	}

	// Hard cap: shed oldest slots, but never cross the protected cutoff.
	if ws.maxPoints > 0 {
		for len(ws.slots) > ws.maxPoints && ws.slots[0].point.Timestamp < protectedCutoff {
			ws.slots = ws.slots[1:]
		}
	}

	ws.updateGauge()
}

// -----------------------------------------------------------------------------

// Snapshot returns an independent copy for rendering. Callers cannot mutate
// the store through it.
func (ws *WindowStore) Snapshot() models.MSeries {
	out := make(models.MSeries, len(ws.slots))
	for i, s := range ws.slots {
		out[i] = s.point
	}
	return out
}

// -----------------------------------------------------------------------------

// Bounds returns the loaded span. ok is false when the buffer is empty.
func (ws *WindowStore) Bounds() (minTs, maxTs int64, ok bool) {
	if len(ws.slots) == 0 {
		return 0, 0, false
	}
	return ws.slots[0].point.Timestamp, ws.slots[len(ws.slots)-1].point.Timestamp, true
}

// -----------------------------------------------------------------------------

// Len returns the current number of buffered points.
func (ws *WindowStore) Len() int {
	return len(ws.slots)
}

// -----------------------------------------------------------------------------

// levelAt reports the stored granularity for a timestamp (test hook).
func (ws *WindowStore) levelAt(ts int64) (models.MGranularityLevel, bool) {
	idx := sort.Search(len(ws.slots), func(i int) bool {
		return ws.slots[i].point.Timestamp >= ts
	})
	if idx < len(ws.slots) && ws.slots[idx].point.Timestamp == ts {
		return ws.slots[idx].level, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------

func (ws *WindowStore) updateGauge() {
	if ws.Metrics != nil {
		ws.Metrics.WindowPoints.Set(float64(len(ws.slots)))
	}
}

// -----------------------------------------------------------------------------

// validateChunk enforces the per-chunk contract: finite values and strictly
// increasing timestamps.
func validateChunk(chunk models.MSeries) error {
	var prev int64
	for i, p := range chunk {
		if !p.IsFinite() {
			return helpers.NewMalformedPointError(
				fmt.Sprintf("chunk point %d at %d has non-finite value", i, p.Timestamp), nil)
		}
		if i > 0 && p.Timestamp <= prev {
			return helpers.NewMalformedPointError(
				fmt.Sprintf("chunk timestamp %d at index %d not increasing (prev %d)", p.Timestamp, i, prev), nil)
		}
		prev = p.Timestamp
	}
	return nil
}
