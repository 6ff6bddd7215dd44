package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/chart"
	"github.com/naikprasanna/Plant-Monitoring/src/history"
	"github.com/naikprasanna/Plant-Monitoring/src/interfaces"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// captureSurface records every payload the controller renders, in order.
// -----------------------------------------------------------------------------

type captureSurface struct {
	mu       sync.Mutex
	payloads []*models.MRenderPayload
	notify   chan struct{}
}

func newCaptureSurface() *captureSurface {
	return &captureSurface{notify: make(chan struct{}, 128)}
}

func (cs *captureSurface) Render(payload *models.MRenderPayload) {
	cs.mu.Lock()
	cs.payloads = append(cs.payloads, payload)
	cs.mu.Unlock()

	select {
	case cs.notify <- struct{}{}:
	default:
	}
}

func (cs *captureSurface) Start() error { return nil }
func (cs *captureSurface) Stop() error  { return nil }

func (cs *captureSurface) first() *models.MRenderPayload {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.payloads) == 0 {
		return nil
	}
	return cs.payloads[0]
}

func (cs *captureSurface) latest() *models.MRenderPayload {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.payloads) == 0 {
		return nil
	}
	return cs.payloads[len(cs.payloads)-1]
}

// waitFor blocks until a rendered payload satisfies pred or the timeout
// elapses. The latest payload is checked first so already-settled state
// passes immediately.
func (cs *captureSurface) waitFor(pred func(*models.MRenderPayload) bool, timeout time.Duration) (*models.MRenderPayload, bool) {
	deadline := time.After(timeout)
	for {
		if p := cs.latest(); p != nil && pred(p) {
			return p, true
		}
		select {
		case <-cs.notify:
		case <-deadline:
			p := cs.latest()
			if p != nil && pred(p) {
				return p, true
			}
			return p, false
		}
	}
}

// -----------------------------------------------------------------------------
// countingProvider wraps the real provider, counting FetchRange calls and
// optionally failing them, so scenarios can assert on fetch activity.
// -----------------------------------------------------------------------------

type countingProvider struct {
	inner interfaces.IHistoryProvider
	calls atomic.Int64
	fail  atomic.Bool
}

func (p *countingProvider) Name() string      { return p.inner.Name() }
func (p *countingProvider) Initialize() error { return p.inner.Initialize() }
func (p *countingProvider) Close() error      { return p.inner.Close() }

func (p *countingProvider) FetchRange(ctx context.Context, startMs, endMs, bucketMs int64) (models.MSeries, error) {
	p.calls.Add(1)
	if p.fail.Load() {
		return nil, fmt.Errorf("injected provider failure")
	}
	return p.inner.FetchRange(ctx, startMs, endMs, bucketMs)
}

// -----------------------------------------------------------------------------
// scriptedSource is a feed source the scenarios drive by hand, so zoom
// scenarios run without live interference.
// -----------------------------------------------------------------------------

type scriptedSource struct {
	mu      sync.Mutex
	out     chan<- models.MSensorPoint
	ctx     context.Context
	running bool
}

func (s *scriptedSource) Name() string { return "scripted" }

func (s *scriptedSource) Start(ctx context.Context, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("source %s is already running", s.Name())
	}
	s.out = out
	s.ctx = ctx
	s.running = true
	return nil
}

func (s *scriptedSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// Push emits one reading as if the external system produced it.
func (s *scriptedSource) Push(p models.MSensorPoint) error {
	s.mu.Lock()
	out, ctx, running := s.out, s.ctx, s.running
	s.mu.Unlock()

	if !running {
		return fmt.Errorf("source %s is not running", s.Name())
	}
	select {
	case out <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// -----------------------------------------------------------------------------
// harness bundles the wired engine for the scenario functions.
// -----------------------------------------------------------------------------

type harness struct {
	cfg      *models.MConfig
	provider *countingProvider
	source   *scriptedSource
	surface  *captureSurface
	ctrl     *chart.ChartController
	logger   *logger.Logger
}

// newHarness initializes the sqlite history, seeds it, and mounts a chart
// controller on a capturing surface.
func newHarness(cfg *models.MConfig, appLogger *logger.Logger) (*harness, error) {
	sqlite, err := history.NewSQLiteProvider(cfg, logger.NewLogger(cfg, "SQLiteProvider"))
	if err != nil {
		return nil, err
	}
	if err := sqlite.Initialize(); err != nil {
		return nil, err
	}
	if err := seedHistory(sqlite, time.Now().UnixMilli(), appLogger); err != nil {
		return nil, err
	}

	h := &harness{
		cfg:      cfg,
		provider: &countingProvider{inner: sqlite},
		source:   &scriptedSource{},
		surface:  newCaptureSurface(),
		logger:   appLogger,
	}
	h.ctrl = chart.NewChartController(cfg, h.provider, h.source, metrics.NewNopMetrics())

	if err := h.ctrl.Mount(context.Background(), h.surface); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *harness) close() {
	h.ctrl.Close()
	h.provider.Close()
}

// -----------------------------------------------------------------------------
// Scenario helpers
// -----------------------------------------------------------------------------

func (h *harness) fetchCalls() int64 {
	return h.provider.calls.Load()
}

// waitCalm blocks until no fetch has been issued for the given window, so the
// next scenario starts from a settled engine.
func (h *harness) waitCalm(window, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	last := h.fetchCalls()
	calmSince := time.Now()

	for time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		if cur := h.fetchCalls(); cur != last {
			last = cur
			calmSince = time.Now()
			continue
		}
		if time.Since(calmSince) >= window {
			return true
		}
	}
	return false
}

// waitUntil polls an arbitrary condition.
func waitUntil(pred func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if pred() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return pred()
}

// zoomTo sends a zoom change and waits until a payload reflects both the
// fractions and the expected granularity label.
func (h *harness) zoomTo(start, end float64, wantLabel string, timeout time.Duration) (*models.MRenderPayload, error) {
	if err := h.ctrl.OnZoomChange(models.MZoomRange{StartFraction: start, EndFraction: end}); err != nil {
		return nil, err
	}

	p, ok := h.surface.waitFor(func(p *models.MRenderPayload) bool {
		return p.GranularityLabel == wantLabel &&
			approx(p.ZoomRange.StartFraction, start, 1.0) &&
			approx(p.ZoomRange.EndFraction, end, 1.0)
	}, timeout)
	if !ok {
		return p, fmt.Errorf("no payload with label %q for zoom [%.1f,%.1f] (latest: %s)", wantLabel, start, end, describe(p))
	}
	return p, nil
}

func approx(got, want, tolerance float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

func describe(p *models.MRenderPayload) string {
	if p == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s %q zoom=[%.2f,%.2f] points=%d",
		p.Type, p.GranularityLabel, p.ZoomRange.StartFraction, p.ZoomRange.EndFraction, len(p.Series))
}
