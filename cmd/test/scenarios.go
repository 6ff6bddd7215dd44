package main

import (
	"fmt"
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// Scenarios. Each one drives the mounted engine through its public surface
// (zoom commands, scripted feed pushes) and asserts on the rendered payloads.
// Order matters: later scenarios build on the window state left by earlier
// ones.
// -----------------------------------------------------------------------------

const (
	settleWindow = 80 * time.Millisecond
	scenarioWait = 3 * time.Second
)

// -----------------------------------------------------------------------------

// scenarioInitialLoad: mounting fires one coarse fetch over the retention
// window and the first rendered payload is a full INITIAL frame.
func scenarioInitialLoad(h *harness) error {
	p, ok := h.surface.waitFor(func(p *models.MRenderPayload) bool {
		return len(p.Series) > 0
	}, scenarioWait)
	if !ok {
		return fmt.Errorf("no initial payload rendered (latest: %s)", describe(p))
	}

	first := h.surface.first()
	if first.Type != "INITIAL" {
		return fmt.Errorf("first payload type = %q, want INITIAL", first.Type)
	}
	if p.GranularityLabel != "1 Day" {
		return fmt.Errorf("initial granularity = %q, want 1 Day", p.GranularityLabel)
	}
	if h.ctrl.WindowLen() == 0 {
		return fmt.Errorf("window is empty after initial load")
	}
	if got := h.ctrl.Stats().Count; got == 0 {
		return fmt.Errorf("stats count = 0 after initial load")
	}
	if h.fetchCalls() == 0 {
		return fmt.Errorf("no provider fetch issued by mount")
	}
	return nil
}

// -----------------------------------------------------------------------------

// scenarioZoomLadder: narrowing the visible span walks the granularity table
// from the coarse catch-all down to the finest band, and each finer band
// triggers fetch activity for its uncovered range.
func scenarioZoomLadder(h *harness) error {
	steps := []struct {
		start, end float64
		label      string
		wantFetch  bool
	}{
		{0, 100, "1 Day", false}, // retention span is cached from the mount fetch
		{0, 50, "1 Hour", true},
		{0, 10, "5 Minutes", true},
		{0, 2, "30 Seconds", true},
	}

	for _, step := range steps {
		before := h.fetchCalls()
		if _, err := h.zoomTo(step.start, step.end, step.label, scenarioWait); err != nil {
			return err
		}
		if !h.waitCalm(settleWindow, scenarioWait) {
			return fmt.Errorf("fetches never settled after zoom [%.0f,%.0f]", step.start, step.end)
		}

		delta := h.fetchCalls() - before
		if step.wantFetch && delta == 0 {
			return fmt.Errorf("zoom [%.0f,%.0f] issued no fetch", step.start, step.end)
		}
		if !step.wantFetch && delta != 0 {
			return fmt.Errorf("zoom [%.0f,%.0f] issued %d fetches, want 0", step.start, step.end, delta)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// scenarioCacheReplay: revisiting a span inside an already-fetched range at
// the same band renders entirely from cache.
func scenarioCacheReplay(h *harness) error {
	before := h.fetchCalls()

	if _, err := h.zoomTo(2, 8, "5 Minutes", scenarioWait); err != nil {
		return err
	}
	if !h.waitCalm(settleWindow, scenarioWait) {
		return fmt.Errorf("fetches never settled after cached zoom")
	}

	if delta := h.fetchCalls() - before; delta != 0 {
		return fmt.Errorf("cached zoom issued %d fetches, want 0", delta)
	}
	return nil
}

// -----------------------------------------------------------------------------

// scenarioLiveAutoScroll: with the view pinned to the tail, a newer live point
// keeps the visible end glued to the new maximum.
func scenarioLiveAutoScroll(h *harness) error {
	if _, err := h.zoomTo(0, 100, "1 Day", scenarioWait); err != nil {
		return err
	}
	if !h.waitCalm(settleWindow, scenarioWait) {
		return fmt.Errorf("fetches never settled before live push")
	}

	pushTs := h.ctrl.Stats().EndTime + 60_000
	if err := h.source.Push(models.MSensorPoint{Timestamp: pushTs, Value: 3.0}); err != nil {
		return err
	}

	p, ok := h.surface.waitFor(func(p *models.MRenderPayload) bool {
		return lastTimestamp(p) == pushTs
	}, scenarioWait)
	if !ok {
		return fmt.Errorf("live point never rendered (latest: %s)", describe(p))
	}
	if p.ZoomRange.EndFraction < 99.9 {
		return fmt.Errorf("view lost the tail: end fraction %.3f, want 100", p.ZoomRange.EndFraction)
	}
	return nil
}

// -----------------------------------------------------------------------------

// scenarioLiveZoomedBack: when the user is inspecting the past, a live append
// must not move the view; the fractions shrink so the absolute span stays.
func scenarioLiveZoomedBack(h *harness) error {
	if _, err := h.zoomTo(0, 10, "5 Minutes", scenarioWait); err != nil {
		return err
	}
	if !h.waitCalm(settleWindow, scenarioWait) {
		return fmt.Errorf("fetches never settled before live push")
	}

	pushTs := h.ctrl.Stats().EndTime + 120_000
	if err := h.source.Push(models.MSensorPoint{Timestamp: pushTs, Value: 2.5}); err != nil {
		return err
	}

	p, ok := h.surface.waitFor(func(p *models.MRenderPayload) bool {
		return lastTimestamp(p) == pushTs
	}, scenarioWait)
	if !ok {
		return fmt.Errorf("live point never rendered (latest: %s)", describe(p))
	}
	if p.ZoomRange.EndFraction >= 10.0 || p.ZoomRange.EndFraction < 9.0 {
		return fmt.Errorf("zoomed-back view moved: end fraction %.3f, want just under 10", p.ZoomRange.EndFraction)
	}
	if !approx(p.ZoomRange.StartFraction, 0, 0.5) {
		return fmt.Errorf("zoomed-back view moved: start fraction %.3f, want 0", p.ZoomRange.StartFraction)
	}
	return nil
}

// -----------------------------------------------------------------------------

// scenarioSpikeMarkers: threshold-crossing live readings surface in the spike
// series of the next payload, split by side.
func scenarioSpikeMarkers(h *harness) error {
	upperTs := h.ctrl.Stats().EndTime + 60_000
	if err := h.source.Push(models.MSensorPoint{Timestamp: upperTs, Value: 12.0}); err != nil {
		return err
	}
	p, ok := h.surface.waitFor(func(p *models.MRenderPayload) bool {
		return containsPoint(p.UpperSpikes, upperTs)
	}, scenarioWait)
	if !ok {
		return fmt.Errorf("upper spike never rendered (latest: %s)", describe(p))
	}

	lowerTs := upperTs + 60_000
	if err := h.source.Push(models.MSensorPoint{Timestamp: lowerTs, Value: -12.0}); err != nil {
		return err
	}
	p, ok = h.surface.waitFor(func(p *models.MRenderPayload) bool {
		return containsPoint(p.LowerSpikes, lowerTs)
	}, scenarioWait)
	if !ok {
		return fmt.Errorf("lower spike never rendered (latest: %s)", describe(p))
	}

	stats := h.ctrl.Stats()
	if stats.UpperSpikes == 0 || stats.LowerSpikes == 0 {
		return fmt.Errorf("stats spikes = %d/%d, want at least 1/1", stats.UpperSpikes, stats.LowerSpikes)
	}
	return nil
}

// -----------------------------------------------------------------------------

// scenarioFetchFailure: a failing provider surfaces through LastError while
// the window keeps its last state, and the next successful fetch clears it.
func scenarioFetchFailure(h *harness) error {
	windowBefore := h.ctrl.WindowLen()

	h.provider.fail.Store(true)
	if err := h.ctrl.OnZoomChange(models.MZoomRange{StartFraction: 40, EndFraction: 60}); err != nil {
		return err
	}
	if !waitUntil(func() bool { return h.ctrl.LastError() != nil }, scenarioWait) {
		return fmt.Errorf("provider failure never surfaced")
	}
	if h.ctrl.WindowLen() < windowBefore {
		return fmt.Errorf("window shrank on fetch failure: %d -> %d", windowBefore, h.ctrl.WindowLen())
	}

	h.provider.fail.Store(false)
	if err := h.ctrl.OnZoomChange(models.MZoomRange{StartFraction: 30, EndFraction: 55}); err != nil {
		return err
	}
	if !waitUntil(func() bool { return h.ctrl.LastError() == nil }, scenarioWait) {
		return fmt.Errorf("error never cleared after recovery: %v", h.ctrl.LastError())
	}
	return nil
}

// -----------------------------------------------------------------------------

func lastTimestamp(p *models.MRenderPayload) int64 {
	if len(p.Series) == 0 {
		return 0
	}
	return p.Series[len(p.Series)-1].Timestamp
}

func containsPoint(series models.MSeries, ts int64) bool {
	for _, pt := range series {
		if pt.Timestamp == ts {
			return true
		}
	}
	return false
}
