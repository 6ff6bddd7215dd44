package chart

import (
	"context"
	"fmt"
	"sync"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/interfaces"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
	"github.com/naikprasanna/Plant-Monitoring/src/utils"
)

// -----------------------------------------------------------------------------
// LiveFeedAdapter bridges a push feed source to the controller loop. It
// normalizes incoming points (non-finite values never reach the window),
// keeps a small ring of recent points for the live API, and owns the
// subscription lifecycle: Start while running and Stop while stopped are
// no-ops, and a failed source leaves the adapter stopped until the next
// Start.
// -----------------------------------------------------------------------------

type LiveFeedAdapter struct {
	Config  *models.MConfig
	Source  interfaces.IFeedSource
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	points chan models.MSensorPoint
	errs   chan error

	epsilonMs int64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	ringMu sync.Mutex
	ring   *utils.RingBuffer
}

// -----------------------------------------------------------------------------

func NewLiveFeedAdapter(cfg *models.MConfig, source interfaces.IFeedSource, log *logger.Logger, met *metrics.Metrics) *LiveFeedAdapter {
	epsilon := cfg.Chart.AutoScrollEpsilonMs
	if epsilon <= 0 {
		epsilon = utils.DefaultAutoScrollEpsilonMs
	}

	return &LiveFeedAdapter{
		Config:    cfg,
		Source:    source,
		Logger:    log,
		Metrics:   met,
		points:    make(chan models.MSensorPoint, utils.LiveChannelSize),
		errs:      make(chan error, utils.ErrorChannelSize),
		epsilonMs: epsilon,
		ring:      utils.NewRingBuffer(cfg.Feed.RingCapacity),
	}
}

// -----------------------------------------------------------------------------

// Points delivers normalized live points to the controller loop.
func (a *LiveFeedAdapter) Points() <-chan models.MSensorPoint {
	return a.points
}

// Errors delivers fatal subscription errors to the controller loop.
func (a *LiveFeedAdapter) Errors() <-chan error {
	return a.errs
}

// -----------------------------------------------------------------------------

// Start subscribes to the feed source. Calling Start on a running adapter is
// a logged no-op.
func (a *LiveFeedAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		a.Logger.Debug("Live feed already active, start ignored")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	raw := make(chan models.MSensorPoint, utils.LiveChannelSize)
	srcErrs := make(chan error, utils.ErrorChannelSize)

	if err := a.Source.Start(runCtx, raw, srcErrs, &a.wg); err != nil {
		cancel()
		return helpers.NewSubscriptionError(fmt.Sprintf("feed source %s failed to start", a.Source.Name()), err)
	}

	a.cancel = cancel
	a.running = true

	a.wg.Add(1)
	go a.pump(runCtx, raw, srcErrs)

	a.Logger.Info("Live feed started (source=%s)", a.Source.Name())
	return nil
}

// Stop tears the subscription down and waits until the source and the pump
// are quiesced. Safe to call multiple times.
func (a *LiveFeedAdapter) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()

	if err := a.Source.Stop(); err != nil {
		a.Logger.Debug("Source stop: %v", err)
	}
	a.wg.Wait()

	a.Logger.Info("Live feed stopped")
	return nil
}

// Running reports the subscription state.
func (a *LiveFeedAdapter) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// -----------------------------------------------------------------------------

// ShouldAutoScroll reports whether the view is tracking "now": true when the
// visible end sits within the epsilon tolerance of the newest buffered
// timestamp. Callers evaluate it against the max timestamp from before the
// new point is appended.
func (a *LiveFeedAdapter) ShouldAutoScroll(visible models.MVisibleSpan, maxTs int64) bool {
	return visible.EndTime >= maxTs-a.epsilonMs
}

// Recent returns the last n live points, oldest first.
func (a *LiveFeedAdapter) Recent(n int) models.MSeries {
	a.ringMu.Lock()
	defer a.ringMu.Unlock()
	return a.ring.GetLatest(n)
}

// -----------------------------------------------------------------------------

// pump normalizes raw source output. One pump runs per Start; it exits on
// teardown or when the source reports a fatal error, in which case the feed
// counts as stopped until the next Start.
func (a *LiveFeedAdapter) pump(ctx context.Context, raw <-chan models.MSensorPoint, srcErrs <-chan error) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case p := <-raw:
			if !p.IsFinite() {
				if a.Metrics != nil {
					a.Metrics.LivePointsDropped.Inc()
				}
				a.Logger.Warning("Dropping non-finite live point at %d", p.Timestamp)
				continue
			}

			a.ringMu.Lock()
			a.ring.Append(p)
			a.ringMu.Unlock()
			if a.Metrics != nil {
				a.Metrics.LivePoints.Inc()
			}

			select {
			case a.points <- p:
			default:
				if a.Metrics != nil {
					a.Metrics.LivePointsDropped.Inc()
				}
				a.Logger.Warning("Live channel full, dropping point at %d", p.Timestamp)
			}

		case err := <-srcErrs:
			a.mu.Lock()
			a.running = false
			if a.cancel != nil {
				a.cancel()
				a.cancel = nil
			}
			a.mu.Unlock()

			a.Logger.Error("Feed source failed: %v", err)
			sub := helpers.NewSubscriptionError("live feed subscription lost", err)
			select {
			case a.errs <- sub:
			default:
			}
			return
		}
	}
}
