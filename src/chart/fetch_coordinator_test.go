package chart

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

func newCoordinator(t *testing.T, provider *fakeProvider, debounceMs int) (*FetchCoordinator, *ChunkCache) {
	t.Helper()
	cache := newCache(0, 0)
	fc := NewFetchCoordinator(models.MChartConfig{DebounceMs: debounceMs},
		provider, cache, testLogger("FetchCoordinator"), metrics.NewNopMetrics())
	t.Cleanup(fc.CancelAll)
	return fc, cache
}

// resolveUntilApplied drains completions, resolving each, until one applies.
// Stale and cancelled results along the way are expected and dropped.
func resolveUntilApplied(t *testing.T, fc *FetchCoordinator, timeout time.Duration) (models.MFetchResult, models.MSeries) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case res := <-fc.Results():
			if series, apply := fc.Resolve(res); apply {
				return res, series
			}
		case <-deadline:
			t.Fatal("no applied fetch result before timeout")
		}
	}
}

// assertNoApply drains completions for the given window and requires that
// none of them resolve to an applied result.
func assertNoApply(t *testing.T, fc *FetchCoordinator, window time.Duration) {
	t.Helper()
	deadline := time.After(window)
	for {
		select {
		case res := <-fc.Results():
			_, apply := fc.Resolve(res)
			assert.False(t, apply, "result %s should not apply", res.RequestID)
		case <-deadline:
			return
		}
	}
}

func TestRequestImmediateFetchesAlignedAndCaches(t *testing.T) {
	provider := &fakeProvider{}
	fc, cache := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 60_000)

	fc.RequestImmediate(band, models.MTimeRange{StartMs: 90_000, EndMs: 200_000})

	res, series := resolveUntilApplied(t, fc, 2*time.Second)
	require.NoError(t, res.Err)

	// The unaligned span widened outward to whole minute buckets.
	require.Equal(t, 1, provider.callCount())
	assert.Equal(t, fetchCall{60_000, 240_000, 60_000}, provider.call(0))

	require.Len(t, series, 3)
	assert.Equal(t, int64(60_000), series[0].Timestamp)
	assert.Equal(t, int64(180_000), series[2].Timestamp)

	_, ok := cache.Lookup(models.LevelMinute, 60_000, 240_000)
	assert.True(t, ok, "fetched chunk is cached for replay")
	assert.True(t, fc.Idle())
}

func TestSupersededRequestNeverApplies(t *testing.T) {
	gate := make(chan struct{})
	provider := &fakeProvider{gate: gate}
	fc, _ := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 100)

	fc.RequestImmediate(band, models.MTimeRange{StartMs: 0, EndMs: 1000})
	require.Eventually(t, func() bool { return provider.callCount() == 1 },
		2*time.Second, 2*time.Millisecond)

	// The wider request cancels the one blocked in the provider.
	fc.RequestImmediate(band, models.MTimeRange{StartMs: 0, EndMs: 2000})
	require.Eventually(t, func() bool { return provider.callCount() == 2 },
		2*time.Second, 2*time.Millisecond)
	close(gate)

	res, series := resolveUntilApplied(t, fc, 2*time.Second)
	assert.Equal(t, models.MTimeRange{StartMs: 0, EndMs: 2000}, res.Requested)
	require.Len(t, series, 20)
	assert.Equal(t, int64(0), series[0].Timestamp)
	assert.Equal(t, int64(1900), series[19].Timestamp)

	assert.Equal(t, fetchCall{0, 1000, 100}, provider.call(0))
	assert.Equal(t, fetchCall{0, 2000, 100}, provider.call(1))

	// A late completion of the superseded request must not apply.
	assertNoApply(t, fc, 100*time.Millisecond)
}

func TestServeCollapsesBurstIntoLatestTarget(t *testing.T) {
	provider := &fakeProvider{}
	fc, _ := newCoordinator(t, provider, 30)
	band := testBand(models.LevelMinute, 100)

	_, hit := fc.Serve(band, models.MTimeRange{StartMs: 0, EndMs: 1000})
	assert.False(t, hit)
	_, hit = fc.Serve(band, models.MTimeRange{StartMs: 2000, EndMs: 3000})
	assert.False(t, hit)

	_, series := resolveUntilApplied(t, fc, 2*time.Second)

	// Only the last span of the burst was fetched.
	require.Equal(t, 1, provider.callCount())
	assert.Equal(t, fetchCall{2000, 3000, 100}, provider.call(0))
	require.NotEmpty(t, series)
	assert.Equal(t, int64(2000), series[0].Timestamp)
	assert.Equal(t, int64(2900), series[len(series)-1].Timestamp)
}

func TestServeReturnsCachedSpanWithoutFetching(t *testing.T) {
	provider := &fakeProvider{}
	fc, cache := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 100)
	cache.Put(models.LevelMinute, 0, 1000, bucketFill(0, 1000, 100))

	series, hit := fc.Serve(band, models.MTimeRange{StartMs: 0, EndMs: 1000})
	require.True(t, hit)
	assert.Len(t, series, 10)

	// No debounced fetch was scheduled for a hit.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, provider.callCount())
}

func TestGapsCoalesceIntoOneProviderCall(t *testing.T) {
	provider := &fakeProvider{}
	fc, cache := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 1000)

	// Cached middle chunk splits the request into two gaps; the provider
	// still sees a single call covering their union.
	cache.Put(models.LevelMinute, 2000, 3000, bucketFill(2000, 3000, 1000))
	fc.RequestImmediate(band, models.MTimeRange{StartMs: 0, EndMs: 5000})

	_, series := resolveUntilApplied(t, fc, 2*time.Second)

	require.Equal(t, 1, provider.callCount())
	assert.Equal(t, fetchCall{0, 5000, 1000}, provider.call(0))

	require.Len(t, series, 5)
	require.True(t, series.IsStrictlySorted())
	assert.Equal(t, int64(0), series[0].Timestamp)
	assert.Equal(t, int64(4000), series[4].Timestamp)
}

func TestFailedFetchAppliesWithError(t *testing.T) {
	provider := &fakeProvider{}
	provider.setError(errors.New("backend offline"))
	fc, cache := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 1)

	fc.RequestImmediate(band, models.MTimeRange{StartMs: 0, EndMs: 1000})

	var res models.MFetchResult
	select {
	case res = <-fc.Results():
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch result before timeout")
	}

	require.Error(t, res.Err)
	var failed *helpers.FetchFailedError
	assert.True(t, errors.As(res.Err, &failed))

	// Failures still apply so the controller can surface them; nothing was
	// cached and the coordinator is free for the next request.
	series, apply := fc.Resolve(res)
	assert.Nil(t, series)
	assert.True(t, apply)
	assert.True(t, fc.Idle())
	assert.Len(t, cache.MissingRanges(models.LevelMinute, 0, 1000), 1)
}

func TestPrefetchPopulatesCacheSilently(t *testing.T) {
	provider := &fakeProvider{}
	fc, cache := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 100)

	fc.Prefetch(band, models.MTimeRange{StartMs: 0, EndMs: 1000})

	var res models.MFetchResult
	select {
	case res = <-fc.Results():
	case <-time.After(2 * time.Second):
		t.Fatal("no fetch result before timeout")
	}

	require.True(t, res.Speculative)
	series, apply := fc.Resolve(res)
	assert.Nil(t, series)
	assert.False(t, apply, "speculative results never reach the window")

	_, ok := cache.Lookup(models.LevelMinute, 0, 1000)
	assert.True(t, ok)
	assert.True(t, fc.Idle())
}

func TestPrefetchSkippedWhilePending(t *testing.T) {
	gate := make(chan struct{})
	provider := &fakeProvider{gate: gate}
	fc, _ := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 100)

	fc.RequestImmediate(band, models.MTimeRange{StartMs: 0, EndMs: 1000})
	require.Eventually(t, func() bool { return provider.callCount() == 1 },
		2*time.Second, 2*time.Millisecond)

	// Speculation must not preempt the user fetch in flight.
	fc.Prefetch(band, models.MTimeRange{StartMs: 5000, EndMs: 6000})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, provider.callCount())

	close(gate)
	resolveUntilApplied(t, fc, 2*time.Second)
}

func TestPrefetchSkippedWhenCovered(t *testing.T) {
	provider := &fakeProvider{}
	fc, cache := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 100)
	cache.Put(models.LevelMinute, 0, 1000, bucketFill(0, 1000, 100))

	fc.Prefetch(band, models.MTimeRange{StartMs: 0, EndMs: 1000})

	select {
	case res := <-fc.Results():
		t.Fatalf("unexpected result %s for covered prefetch", res.RequestID)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 0, provider.callCount())
	assert.True(t, fc.Idle())
}

func TestCoveredRequestDeliversFromCache(t *testing.T) {
	provider := &fakeProvider{}
	fc, cache := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 60_000)
	cached := bucketFill(0, 60_000, 60_000)
	cache.Put(models.LevelMinute, 0, 60_000, cached)

	fc.RequestImmediate(band, models.MTimeRange{StartMs: 0, EndMs: 60_000})

	res, series := resolveUntilApplied(t, fc, 2*time.Second)
	assert.True(t, res.FromCache)
	assert.Equal(t, cached, series)
	assert.Equal(t, 0, provider.callCount())
}

func TestCancelAllStopsEverything(t *testing.T) {
	gate := make(chan struct{})
	provider := &fakeProvider{gate: gate}
	fc, _ := newCoordinator(t, provider, 10)
	band := testBand(models.LevelMinute, 100)

	fc.RequestImmediate(band, models.MTimeRange{StartMs: 0, EndMs: 1000})
	require.Eventually(t, func() bool { return provider.callCount() == 1 },
		2*time.Second, 2*time.Millisecond)

	fc.CancelAll()
	assertNoApply(t, fc, 150*time.Millisecond)

	// The coordinator is closed: nothing new is issued.
	fc.RequestImmediate(band, models.MTimeRange{StartMs: 2000, EndMs: 3000})
	series, hit := fc.Serve(band, models.MTimeRange{StartMs: 4000, EndMs: 5000})
	assert.Nil(t, series)
	assert.False(t, hit)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, provider.callCount())
}
