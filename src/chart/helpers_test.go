package chart

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

func TestMain(m *testing.M) {
	logger.SetLevel("ERROR")
	os.Exit(m.Run())
}

// -----------------------------------------------------------------------------
// Shared fixtures and fakes.
// -----------------------------------------------------------------------------

func pt(ts int64, v float64) models.MSensorPoint {
	return models.MSensorPoint{Timestamp: ts, Value: v}
}

// stepSeries builds count points from startMs spaced stepMs apart.
func stepSeries(startMs, stepMs int64, count int, value func(i int) float64) models.MSeries {
	out := make(models.MSeries, count)
	for i := range out {
		out[i] = pt(startMs+int64(i)*stepMs, value(i))
	}
	return out
}

func flatValue(v float64) func(int) float64 {
	return func(int) float64 { return v }
}

func newTestConfig() *models.MConfig {
	return &models.MConfig{
		Name:     "chart-test",
		Host:     "127.0.0.1",
		Port:     9100,
		LogLevel: "ERROR",
		Sensor: models.MSensorConfig{
			ID:             "sensor-under-test",
			Unit:           "C",
			UpperThreshold: 8.0,
			LowerThreshold: -8.0,
			SpikesEnabled:  true,
		},
		Chart: models.MChartConfig{
			RetentionWindowMs:   24 * 60 * 60 * 1000,
			BufferMarginMs:      5 * 60 * 1000,
			MaxPoints:           50_000,
			MaxRenderPoints:     2_000,
			DebounceMs:          10,
			AutoScrollEpsilonMs: 2_000,
			PrefetchEnabled:     true,
		},
		Cache: models.MCacheConfig{MaxEntries: 64, MaxBytes: 8 * 1024 * 1024},
		Feed:  models.MFeedConfig{SourceType: "simulator", RingCapacity: 16},
	}
}

func testLogger(name string) *logger.Logger {
	return logger.NewLogger(nil, name)
}

// testBand builds a band decoupled from the classifier table, so gap and
// supersession tests control the alignment granularity themselves.
func testBand(level models.MGranularityLevel, bucketMs int64) models.MZoomBand {
	return models.MZoomBand{RatioCeiling: 1.0, Label: level.String(), Level: level, BucketMs: bucketMs}
}

// -----------------------------------------------------------------------------
// fakeProvider records FetchRange calls and synthesizes bucket-aligned
// responses. An optional gate blocks calls until released, so tests can hold
// a fetch in flight; an injected error fails calls instead.
// -----------------------------------------------------------------------------

type fetchCall struct {
	startMs, endMs, bucketMs int64
}

type fakeProvider struct {
	mu    sync.Mutex
	calls []fetchCall
	gate  chan struct{}
	err   error
	// synthesize overrides the default full-coverage response.
	synthesize func(startMs, endMs, bucketMs int64) models.MSeries
}

func (f *fakeProvider) Name() string      { return "fake" }
func (f *fakeProvider) Initialize() error { return nil }
func (f *fakeProvider) Close() error      { return nil }

func (f *fakeProvider) FetchRange(ctx context.Context, startMs, endMs, bucketMs int64) (models.MSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{startMs, endMs, bucketMs})
	gate := f.gate
	err := f.err
	fn := f.synthesize
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if fn != nil {
		return fn(startMs, endMs, bucketMs), nil
	}
	return bucketFill(startMs, endMs, bucketMs), nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeProvider) call(i int) fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func (f *fakeProvider) setError(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// bucketFill emits one point per bucket across [startMs, endMs), the shape a
// fully populated history would return.
func bucketFill(startMs, endMs, bucketMs int64) models.MSeries {
	if bucketMs < 1 {
		bucketMs = 1
	}
	var out models.MSeries
	first := (startMs / bucketMs) * bucketMs
	if first < startMs {
		first += bucketMs
	}
	for ts := first; ts < endMs; ts += bucketMs {
		out = append(out, pt(ts, 1.0))
	}
	return out
}

// -----------------------------------------------------------------------------
// fakeFeedSource exposes the channels the adapter wires in, so tests push
// points and fatal errors by hand.
// -----------------------------------------------------------------------------

type fakeFeedSource struct {
	mu         sync.Mutex
	out        chan<- models.MSensorPoint
	errs       chan<- error
	startCount int
	stopCount  int
	startErr   error
}

func (s *fakeFeedSource) Name() string { return "fake-feed" }

func (s *fakeFeedSource) Start(ctx context.Context, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCount++
	if s.startErr != nil {
		return s.startErr
	}
	s.out = out
	s.errs = errs
	return nil
}

func (s *fakeFeedSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCount++
	return nil
}

func (s *fakeFeedSource) push(p models.MSensorPoint) {
	s.mu.Lock()
	out := s.out
	s.mu.Unlock()
	out <- p
}

func (s *fakeFeedSource) fail(err error) {
	s.mu.Lock()
	errs := s.errs
	s.mu.Unlock()
	errs <- err
}

func (s *fakeFeedSource) starts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startCount
}

// -----------------------------------------------------------------------------
// recordSurface captures rendered payloads for assertions.
// -----------------------------------------------------------------------------

type recordSurface struct {
	mu       sync.Mutex
	payloads []*models.MRenderPayload
	notify   chan struct{}
}

func newRecordSurface() *recordSurface {
	return &recordSurface{notify: make(chan struct{}, 64)}
}

func (rs *recordSurface) Render(payload *models.MRenderPayload) {
	rs.mu.Lock()
	rs.payloads = append(rs.payloads, payload)
	rs.mu.Unlock()
	select {
	case rs.notify <- struct{}{}:
	default:
	}
}

func (rs *recordSurface) Start() error { return nil }
func (rs *recordSurface) Stop() error  { return nil }

func (rs *recordSurface) first() *models.MRenderPayload {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.payloads) == 0 {
		return nil
	}
	return rs.payloads[0]
}

func (rs *recordSurface) latest() *models.MRenderPayload {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if len(rs.payloads) == 0 {
		return nil
	}
	return rs.payloads[len(rs.payloads)-1]
}

func (rs *recordSurface) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.payloads)
}

// waitFor blocks until a payload satisfies pred or the timeout elapses.
func (rs *recordSurface) waitFor(pred func(*models.MRenderPayload) bool, timeout time.Duration) (*models.MRenderPayload, bool) {
	deadline := time.After(timeout)
	for {
		if p := rs.latest(); p != nil && pred(p) {
			return p, true
		}
		select {
		case <-rs.notify:
		case <-deadline:
			p := rs.latest()
			if p != nil && pred(p) {
				return p, true
			}
			return p, false
		}
	}
}
