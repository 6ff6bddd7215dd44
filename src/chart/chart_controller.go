package chart

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/analysis"
	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/interfaces"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
	"github.com/naikprasanna/Plant-Monitoring/src/utils"
)

// -----------------------------------------------------------------------------
// ChartController owns the window and the zoom state. A single event loop
// goroutine consumes zoom changes, fetch completions, live points and feed
// errors, so no component mutates shared chart state concurrently. Every
// relevant change produces one render payload on the attached surface.
// -----------------------------------------------------------------------------

type ChartController struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	store       *WindowStore
	classifier  *ZoomClassifier
	detector    *SpikeDetector
	coordinator *FetchCoordinator
	adapter     *LiveFeedAdapter
	facade      *analysis.AnalysisFacade

	surface interfaces.IRenderSurface

	zoomCh chan models.MZoomRange

	// Loop-owned view state. Touched only by the event loop goroutine.
	zoom           models.MZoomRange
	prevVisible    models.MVisibleSpan
	prevBand       models.MZoomBand
	havePrev       bool
	emitted        bool
	lastSpikeCount int

	// Shared with API handlers.
	stateMu     sync.RWMutex
	lastPayload *models.MRenderPayload
	lastStats   models.MWindowStats
	lastErr     error

	cancel  context.CancelFunc
	done    chan struct{}
	mounted atomic.Bool
}

// -----------------------------------------------------------------------------

// NewChartController assembles the engine around a history provider and a
// live feed source. All chart-side components are owned here; the rendering
// surface is attached at Mount.
func NewChartController(cfg *models.MConfig, provider interfaces.IHistoryProvider, source interfaces.IFeedSource, met *metrics.Metrics) *ChartController {
	cache := NewChunkCache(cfg.Cache, logger.NewLogger(cfg, "ChunkCache"), met)
	store := NewWindowStore(cfg.Chart, logger.NewLogger(cfg, "WindowStore"), met)
	coordinator := NewFetchCoordinator(cfg.Chart, provider, cache, logger.NewLogger(cfg, "FetchCoordinator"), met)
	adapter := NewLiveFeedAdapter(cfg, source, logger.NewLogger(cfg, "LiveFeedAdapter"), met)

	return &ChartController{
		Config:      cfg,
		Logger:      logger.NewLogger(cfg, "ChartController"),
		Metrics:     met,
		store:       store,
		classifier:  NewZoomClassifier(),
		detector:    NewSpikeDetector(cfg.Sensor),
		coordinator: coordinator,
		adapter:     adapter,
		facade:      analysis.NewAnalysisFacade(cfg, logger.NewLogger(cfg, "Analysis")),
		zoomCh:      make(chan models.MZoomRange, utils.ZoomChannelSize),
		zoom:        models.FullZoomRange(),
		done:        make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Mount attaches the rendering surface, kicks off the initial coarse load
// covering the retention window, starts the live feed and spawns the event
// loop. The first emitted payload carries type INITIAL.
func (c *ChartController) Mount(ctx context.Context, surface interfaces.IRenderSurface) error {
	if !c.mounted.CompareAndSwap(false, true) {
		return fmt.Errorf("chart controller is already mounted")
	}
	c.surface = surface

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	nowMs := time.Now().UnixMilli()
	span := models.MTimeRange{StartMs: nowMs - c.Config.Chart.RetentionWindowMs, EndMs: nowMs}
	band := c.classifier.Classify(1.0)
	c.coordinator.RequestImmediate(band, span)

	if err := c.adapter.Start(loopCtx); err != nil {
		// History still works without the feed; report and carry on.
		c.fail(err)
	}

	go c.run(loopCtx)

	c.Logger.Info("Mounted (sensor=%s, retention=%dms)", c.Config.Sensor.ID, c.Config.Chart.RetentionWindowMs)
	return nil
}

// Close tears the controller down: pending fetches are cancelled, the feed
// subscription is stopped, and the call returns once the event loop has
// exited. No render callback fires afterwards.
func (c *ChartController) Close() error {
	if !c.mounted.Load() {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	<-c.done
	return nil
}

// -----------------------------------------------------------------------------

// OnZoomChange hands a zoom event to the loop. Bursts beyond the channel
// capacity drop the oldest queued event: only the latest zoom matters.
func (c *ChartController) OnZoomChange(zoom models.MZoomRange) error {
	if !zoom.IsValid() {
		return fmt.Errorf("invalid zoom range [%.2f, %.2f]", zoom.StartFraction, zoom.EndFraction)
	}
	if !c.mounted.Load() {
		return fmt.Errorf("chart controller is not mounted")
	}

	select {
	case c.zoomCh <- zoom:
	default:
		select {
		case <-c.zoomCh:
		default:
		}
		select {
		case c.zoomCh <- zoom:
		default:
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Read-side accessors for the HTTP surface. All return copies or values
// guarded by stateMu; none touch loop-owned state.
// -----------------------------------------------------------------------------

// LatestPayload returns the most recently emitted render payload, nil before
// the first emit.
func (c *ChartController) LatestPayload() *models.MRenderPayload {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastPayload
}

// Stats returns the summary computed at the last refresh.
func (c *ChartController) Stats() models.MWindowStats {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastStats
}

// LastError returns the most recent user-visible failure, nil when healthy.
func (c *ChartController) LastError() error {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastErr
}

// RecentLive returns the last n normalized live points.
func (c *ChartController) RecentLive(n int) models.MSeries {
	return c.adapter.Recent(n)
}

// Bands exposes the granularity band table.
func (c *ChartController) Bands() []models.MZoomBand {
	return c.classifier.Bands()
}

// WindowLen reports the current number of buffered points.
func (c *ChartController) WindowLen() int {
	return c.store.Len()
}

// -----------------------------------------------------------------------------
// Event loop
// -----------------------------------------------------------------------------

func (c *ChartController) run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.coordinator.CancelAll()
			if err := c.adapter.Stop(); err != nil {
				c.Logger.Debug("Adapter stop: %v", err)
			}
			c.Logger.Info("Event loop stopped")
			return

		case zoom := <-c.zoomCh:
			c.handleZoom(zoom)

		case res := <-c.coordinator.Results():
			c.handleFetchResult(res)

		case p := <-c.adapter.Points():
			c.handleLivePoint(p)

		case err := <-c.adapter.Errors():
			c.fail(err)
		}
	}
}

// -----------------------------------------------------------------------------

// handleZoom reclassifies the band for the new visible span, serves it from
// cache when covered and schedules a debounced fetch otherwise. The label
// change renders immediately; missing data follows when the fetch lands.
func (c *ChartController) handleZoom(zoom models.MZoomRange) {
	c.zoom = zoom

	loadedStart, loadedEnd, ok := c.store.Bounds()
	if !ok {
		// Nothing loaded yet (initial fetch still in flight). The zoom state
		// is kept and applies once data arrives.
		c.refresh()
		return
	}

	visible := c.classifier.Project(zoom, loadedStart, loadedEnd)
	ratio := c.classifier.SpanRatio(visible, loadedStart, loadedEnd)
	band := c.classifier.Classify(ratio)

	span := fetchSpan(visible)
	if series, hit := c.coordinator.Serve(band, span); hit {
		if err := c.store.IngestHistorical(series, band.Level); err != nil {
			c.fail(err)
		}
	}

	c.maybePrefetch(band, visible)
	c.prevVisible = visible
	c.prevBand = band
	c.havePrev = true

	c.refresh()
}

// handleFetchResult ingests a current fetch completion. Stale, cancelled and
// speculative results have already been filtered out by the coordinator.
func (c *ChartController) handleFetchResult(res models.MFetchResult) {
	series, apply := c.coordinator.Resolve(res)
	if !apply {
		return
	}

	if res.Err != nil {
		c.fail(res.Err)
		return
	}

	if len(series) > 0 {
		if err := c.store.IngestHistorical(series, res.Level); err != nil {
			// Malformed chunk: discarded whole, window keeps its last state.
			c.fail(err)
			return
		}
	}
	c.clearError()
	c.refresh()
}

// handleLivePoint appends one normalized point and applies the auto-scroll
// rule: when the visible end was within epsilon of the previous newest
// timestamp the view follows the tail at constant width, otherwise the
// absolute visible span is preserved and only the fractions are re-derived
// against the grown series.
func (c *ChartController) handleLivePoint(p models.MSensorPoint) {
	oldStart, oldMax, had := c.store.Bounds()
	var oldVisible models.MVisibleSpan
	if had {
		oldVisible = c.classifier.Project(c.zoom, oldStart, oldMax)
	}

	if err := c.store.AppendLive(p); err != nil {
		c.Logger.Warning("Live point rejected: %v", err)
		return
	}

	if had && p.Timestamp <= oldMax {
		// The point rewrote covered history. Cached chunks at the live level
		// would replay the stale value over it on the next zoom, so drop them.
		c.coordinator.InvalidateLevel(models.LevelSecond)
	}

	newStart, newMax, _ := c.store.Bounds()
	if had && newMax > oldMax {
		if c.adapter.ShouldAutoScroll(oldVisible, oldMax) {
			width := oldVisible.Width()
			next := models.MVisibleSpan{StartTime: newMax - width, EndTime: newMax}
			if next.StartTime < newStart {
				next.StartTime = newStart
			}
			c.zoom = c.classifier.Fractions(next, newStart, newMax)
		} else {
			c.zoom = c.classifier.Fractions(oldVisible, newStart, newMax)
		}
	}

	c.refresh()
}

// -----------------------------------------------------------------------------

// maybePrefetch issues a speculative fetch for the adjacent range when two
// consecutive zoom events pan in the same direction at the same band. The
// result lands in the cache only.
func (c *ChartController) maybePrefetch(band models.MZoomBand, visible models.MVisibleSpan) {
	if !c.Config.Chart.PrefetchEnabled || !c.havePrev || band.Level != c.prevBand.Level {
		return
	}
	width := visible.Width()
	if width <= 0 {
		return
	}

	switch {
	case visible.StartTime > c.prevVisible.StartTime && visible.EndTime > c.prevVisible.EndTime:
		// Panning toward now: stage the window ahead.
		c.coordinator.Prefetch(band, models.MTimeRange{StartMs: visible.EndTime + 1, EndMs: visible.EndTime + 1 + width})
	case visible.StartTime < c.prevVisible.StartTime && visible.EndTime < c.prevVisible.EndTime:
		c.coordinator.Prefetch(band, models.MTimeRange{StartMs: visible.StartTime - width, EndMs: visible.StartTime})
	}
}

// -----------------------------------------------------------------------------

// refresh trims the window around the visible span, reclassifies spikes over
// the full window, downsamples for rendering and emits one payload. It also
// refreshes the cached stats snapshot served by the HTTP surface.
func (c *ChartController) refresh() {
	visible := c.visibleSpan()
	c.store.Trim(visible)

	loadedStart, loadedEnd, ok := c.store.Bounds()
	if ok {
		// Trim may have moved the loaded start; re-anchor the fractions so
		// the visible span stays where the user put it.
		c.zoom = c.classifier.Fractions(visible, loadedStart, loadedEnd)
		visible = c.classifier.Project(c.zoom, loadedStart, loadedEnd)
	}

	series := c.store.Snapshot()
	spikes := c.detector.Classify(series)
	if c.Metrics != nil {
		if n := spikes.Count(); n > c.lastSpikeCount {
			c.Metrics.SpikesDetected.Add(float64(n - c.lastSpikeCount))
			c.lastSpikeCount = n
		} else {
			c.lastSpikeCount = spikes.Count()
		}
	}

	var band models.MZoomBand
	if ok {
		band = c.classifier.Classify(c.classifier.SpanRatio(visible, loadedStart, loadedEnd))
	} else {
		band = c.classifier.Classify(c.zoom.Width())
	}

	payloadType := "UPDATE"
	if !c.emitted {
		payloadType = "INITIAL"
		c.emitted = true
	}

	payload := &models.MRenderPayload{
		Type:             payloadType,
		Series:           c.facade.Downsample(series, c.Config.Chart.MaxRenderPoints),
		UpperSpikes:      spikes.Upper,
		LowerSpikes:      spikes.Lower,
		GranularityLabel: band.Label,
		ZoomRange:        c.zoom,
		Timestamp:        time.Now().UnixMilli(),
	}
	stats := c.facade.WindowStats(series, spikes)

	c.stateMu.Lock()
	c.lastPayload = payload
	c.lastStats = stats
	c.stateMu.Unlock()

	if c.surface != nil {
		c.surface.Render(payload)
	}
}

// -----------------------------------------------------------------------------

func (c *ChartController) visibleSpan() models.MVisibleSpan {
	start, end, ok := c.store.Bounds()
	if !ok {
		return models.MVisibleSpan{}
	}
	return c.classifier.Project(c.zoom, start, end)
}

// fail records a user-visible failure. The controller loop is the only place
// that decides what surfaces; lower layers just hand errors up.
func (c *ChartController) fail(err error) {
	if helpers.IsFetchCancelled(err) {
		return
	}
	c.Logger.Error("%v", err)
	c.stateMu.Lock()
	c.lastErr = err
	c.stateMu.Unlock()
}

func (c *ChartController) clearError() {
	c.stateMu.Lock()
	c.lastErr = nil
	c.stateMu.Unlock()
}

// fetchSpan widens an inclusive visible span to the half-open range used by
// the cache and the providers, so the point at the visible end is covered.
func fetchSpan(visible models.MVisibleSpan) models.MTimeRange {
	return models.MTimeRange{StartMs: visible.StartTime, EndMs: visible.EndTime + 1}
}
