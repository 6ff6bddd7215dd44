package chart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/interfaces"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
	"github.com/naikprasanna/Plant-Monitoring/src/utils"
)

// -----------------------------------------------------------------------------
// FetchCoordinator decides whether, when and what to fetch from the history
// provider. It serves covered ranges straight from the chunk cache, collapses
// bursts of zoom changes into one debounced request, and guarantees that at
// most one request is in flight: issuing a new one cancels the previous, and
// stale completions are dropped by sequence number.
// -----------------------------------------------------------------------------

// fetchTarget is the latest span a zoom burst asked for; the debounce timer
// issues whatever target is current when it fires.
type fetchTarget struct {
	band models.MZoomBand
	span models.MTimeRange
}

type pendingFetch struct {
	id          string
	seq         uint64
	level       models.MGranularityLevel
	span        models.MTimeRange // union of uncovered gaps, actually fetched
	requested   models.MTimeRange // full span the zoom asked for
	bucketMs    int64
	cancel      context.CancelFunc
	speculative bool
}

type FetchCoordinator struct {
	Provider interfaces.IHistoryProvider
	Cache    *ChunkCache
	Logger   *logger.Logger
	Metrics  *metrics.Metrics

	results chan models.MFetchResult
	quit    chan struct{}

	debounced func(func())

	mu      sync.Mutex
	seq     uint64 // last issued sequence number
	target  *fetchTarget
	pending *pendingFetch
	closed  bool
}

// -----------------------------------------------------------------------------

func NewFetchCoordinator(cfg models.MChartConfig, provider interfaces.IHistoryProvider, cache *ChunkCache, log *logger.Logger, met *metrics.Metrics) *FetchCoordinator {
	interval := time.Duration(cfg.DebounceMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Duration(utils.DefaultDebounceMs) * time.Millisecond
	}

	return &FetchCoordinator{
		Provider:  provider,
		Cache:     cache,
		Logger:    log,
		Metrics:   met,
		results:   make(chan models.MFetchResult, utils.FetchChannelSize),
		quit:      make(chan struct{}),
		debounced: debounce.New(interval),
	}
}

// -----------------------------------------------------------------------------

// Results delivers fetch completions to the controller loop.
func (fc *FetchCoordinator) Results() <-chan models.MFetchResult {
	return fc.results
}

// Idle reports whether no request is in flight.
func (fc *FetchCoordinator) Idle() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.pending == nil
}

// -----------------------------------------------------------------------------

// Serve returns the cached points for span when the cache fully covers it.
// On a miss it records span as the desired target and schedules a debounced
// fetch, so a burst of zoom events collapses into one request for the latest
// target.
func (fc *FetchCoordinator) Serve(band models.MZoomBand, span models.MTimeRange) (models.MSeries, bool) {
	if series, ok := fc.Cache.Lookup(band.Level, span.StartMs, span.EndMs); ok {
		return series, true
	}

	fc.mu.Lock()
	if fc.closed {
		fc.mu.Unlock()
		return nil, false
	}
	fc.target = &fetchTarget{band: band, span: span}
	fc.mu.Unlock()

	fc.debounced(fc.issueTarget)
	return nil, false
}

// RequestImmediate issues a fetch for span without debouncing. Mount path:
// the initial coarse load should not wait out the zoom debounce interval.
func (fc *FetchCoordinator) RequestImmediate(band models.MZoomBand, span models.MTimeRange) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.issueLocked(band, span, false)
}

// Prefetch speculatively stages span in the cache. Skipped whenever any
// request is already pending: user fetches are never delayed or preempted by
// speculation, while speculative requests themselves are superseded by any
// later user request.
func (fc *FetchCoordinator) Prefetch(band models.MZoomBand, span models.MTimeRange) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.closed || fc.pending != nil {
		return
	}
	if len(fc.Cache.MissingRanges(band.Level, span.StartMs, span.EndMs)) == 0 {
		return
	}
	fc.issueLocked(band, span, true)
}

// InvalidateLevel drops every cached chunk at the given level. Called when a
// live correction rewrites history a cached chunk still covers.
func (fc *FetchCoordinator) InvalidateLevel(level models.MGranularityLevel) {
	fc.Cache.Invalidate(level)
}

// CancelAll cancels any in-flight request, rejects everything after it and
// drops the cached chunks. Called on controller teardown; late completions
// become no-ops.
func (fc *FetchCoordinator) CancelAll() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.closed {
		return
	}
	fc.closed = true
	fc.target = nil
	close(fc.quit)

	if fc.pending != nil {
		fc.pending.cancel()
		fc.pending = nil
	}
	fc.Cache.Purge()
}

// -----------------------------------------------------------------------------

// Resolve applies coordinator bookkeeping to a completed fetch and returns
// the series the controller should ingest. apply is false for stale results
// (a newer request was issued since), cancellations and speculative results;
// those carry no user-visible effect beyond the cache. When the cache can
// assemble the full requested span after storing the new chunk, that wider
// series is returned instead of the raw chunk, so prefetched neighbours end
// up in the window too.
func (fc *FetchCoordinator) Resolve(res models.MFetchResult) (models.MSeries, bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	current := res.Seq == fc.seq
	if fc.pending != nil && fc.pending.seq == res.Seq {
		fc.pending = nil
	}

	if !current {
		fc.Logger.Debug("Dropping stale fetch result %s (seq %d, latest %d)", res.RequestID, res.Seq, fc.seq)
		return nil, false
	}

	if res.Err != nil {
		if helpers.IsFetchCancelled(res.Err) {
			fc.Logger.Debug("Fetch %s cancelled", res.RequestID)
			return nil, false
		}
		if fc.Metrics != nil {
			fc.Metrics.FetchesFailed.Inc()
		}
		if res.Speculative {
			fc.Logger.Debug("Speculative fetch %s failed: %v", res.RequestID, res.Err)
			return nil, false
		}
		return nil, true
	}

	if !res.FromCache {
		fc.Cache.Put(res.Level, res.Range.StartMs, res.Range.EndMs, res.Series)
	}
	if res.Speculative {
		fc.Logger.Debug("Speculative fetch %s cached %d points", res.RequestID, len(res.Series))
		return nil, false
	}

	out := res.Series
	if full, ok := fc.Cache.Lookup(res.Level, res.Requested.StartMs, res.Requested.EndMs); ok {
		out = full
	}
	return out, true
}

// -----------------------------------------------------------------------------

// issueTarget runs on the debounce timer goroutine once a zoom burst settles.
func (fc *FetchCoordinator) issueTarget() {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if fc.target == nil {
		return
	}
	t := *fc.target
	fc.target = nil
	fc.issueLocked(t.band, t.span, false)
}

// issueLocked supersedes any pending request and issues one request covering
// the uncovered parts of span. Adjacent gaps coalesce into a single request
// spanning their union. Caller holds fc.mu.
func (fc *FetchCoordinator) issueLocked(band models.MZoomBand, span models.MTimeRange, speculative bool) {
	if fc.closed {
		return
	}

	// Bucket-align the span. Providers stamp buckets at floored multiples of
	// BucketMs, so an unaligned start would exclude its own leading bucket.
	span = alignRange(span, band.BucketMs)

	if fc.pending != nil {
		fc.pending.cancel()
		if fc.Metrics != nil {
			fc.Metrics.FetchesSuperseded.Inc()
		}
		fc.Logger.Debug("Superseding fetch %s (seq %d)", fc.pending.id, fc.pending.seq)
		fc.pending = nil
	}

	missing := fc.Cache.MissingRanges(band.Level, span.StartMs, span.EndMs)
	if len(missing) == 0 {
		// Covered since the miss was recorded (a prefetch or a superseding
		// fetch landed first). Deliver from cache so the window still updates.
		series, ok := fc.Cache.Lookup(band.Level, span.StartMs, span.EndMs)
		if !ok {
			return
		}
		fc.seq++
		fc.deliverAsync(models.MFetchResult{
			RequestID:   uuid.NewString(),
			Seq:         fc.seq,
			Level:       band.Level,
			Range:       span,
			Requested:   span,
			Series:      series,
			Speculative: speculative,
			FromCache:   true,
		})
		return
	}

	union := models.MTimeRange{StartMs: missing[0].StartMs, EndMs: missing[len(missing)-1].EndMs}

	fc.seq++
	ctx, cancel := context.WithCancel(context.Background())
	req := &pendingFetch{
		id:          uuid.NewString(),
		seq:         fc.seq,
		level:       band.Level,
		span:        union,
		requested:   span,
		bucketMs:    band.BucketMs,
		cancel:      cancel,
		speculative: speculative,
	}
	fc.pending = req

	if fc.Metrics != nil {
		fc.Metrics.FetchesIssued.Inc()
	}
	fc.Logger.Debug("Issuing fetch %s seq=%d level=%s range=[%d,%d) gaps=%d speculative=%v",
		req.id, req.seq, req.level, union.StartMs, union.EndMs, len(missing), speculative)

	go fc.runFetch(ctx, req)
}

// runFetch executes one provider call and delivers the outcome. A request
// cancelled mid-flight (superseded or torn down) drops its result instead of
// delivering: by then a newer request owns the window.
func (fc *FetchCoordinator) runFetch(ctx context.Context, req *pendingFetch) {
	defer req.cancel()

	started := time.Now()
	series, err := fc.Provider.FetchRange(ctx, req.span.StartMs, req.span.EndMs, req.bucketMs)
	if fc.Metrics != nil {
		fc.Metrics.FetchDuration.Observe(time.Since(started).Seconds())
	}

	res := models.MFetchResult{
		RequestID:   req.id,
		Seq:         req.seq,
		Level:       req.level,
		Range:       req.span,
		Requested:   req.requested,
		Series:      series,
		Speculative: req.speculative,
	}
	if err != nil {
		res.Series = nil
		if ctx.Err() != nil || helpers.IsFetchCancelled(err) {
			res.Err = helpers.NewFetchCancelledError(fmt.Sprintf("fetch %s cancelled", req.id), err)
		} else {
			res.Err = helpers.NewFetchFailedError(
				fmt.Sprintf("history fetch for [%d,%d) at %s failed", req.span.StartMs, req.span.EndMs, req.level), err)
		}
	}

	select {
	case fc.results <- res:
	case <-ctx.Done():
	case <-fc.quit:
	}
}

// deliverAsync hands a cache-assembled result to the controller loop without
// blocking issueLocked, which runs under fc.mu.
func (fc *FetchCoordinator) deliverAsync(res models.MFetchResult) {
	go func() {
		select {
		case fc.results <- res:
		case <-fc.quit:
		}
	}()
}

// -----------------------------------------------------------------------------

// alignRange widens [StartMs, EndMs) outward to bucket boundaries.
func alignRange(r models.MTimeRange, bucketMs int64) models.MTimeRange {
	if bucketMs <= 1 {
		return r
	}
	aligned := models.MTimeRange{
		StartMs: (r.StartMs / bucketMs) * bucketMs,
		EndMs:   r.EndMs,
	}
	if rem := aligned.EndMs % bucketMs; rem != 0 {
		aligned.EndMs += bucketMs - rem
	}
	return aligned
}
