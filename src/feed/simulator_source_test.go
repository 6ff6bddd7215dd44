package feed

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

func TestMain(m *testing.M) {
	logger.SetLevel("ERROR")
	os.Exit(m.Run())
}

func simulatorConfig(spikeEveryN int) *models.MConfig {
	return &models.MConfig{
		Sensor: models.MSensorConfig{
			ID:             "sensor-under-test",
			UpperThreshold: 8,
			LowerThreshold: -8,
			SpikesEnabled:  true,
		},
		Feed: models.MFeedConfig{
			SourceType:  "simulator",
			IntervalMs:  2,
			BaseValue:   0,
			Amplitude:   5,
			PeriodMs:    3_600_000,
			SpikeEveryN: spikeEveryN,
		},
	}
}

func collectPoints(t *testing.T, out <-chan models.MSensorPoint, n int) models.MSeries {
	t.Helper()
	got := make(models.MSeries, 0, n)
	for len(got) < n {
		select {
		case p := <-out:
			got = append(got, p)
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d points arrived", len(got), n)
		}
	}
	return got
}

func TestSimulatorEmitsBoundedSinusoid(t *testing.T) {
	src := NewSimulatorSource(simulatorConfig(0))
	out := make(chan models.MSensorPoint, 64)
	errs := make(chan error, 1)
	var wg sync.WaitGroup

	require.NoError(t, src.Start(context.Background(), out, errs, &wg))
	got := collectPoints(t, out, 5)
	require.NoError(t, src.Stop())
	wg.Wait()

	for i, p := range got {
		assert.True(t, p.IsFinite())
		assert.Greater(t, p.Timestamp, int64(0))
		// Sinusoid plus at most 5% noise around the base value.
		assert.LessOrEqual(t, p.Value, 5.25)
		assert.GreaterOrEqual(t, p.Value, -5.25)
		if i > 0 {
			assert.GreaterOrEqual(t, p.Timestamp, got[i-1].Timestamp)
		}
	}
}

func TestSimulatorLifecycleGuards(t *testing.T) {
	src := NewSimulatorSource(simulatorConfig(0))
	out := make(chan models.MSensorPoint, 64)
	errs := make(chan error, 1)
	var wg sync.WaitGroup

	assert.Error(t, src.Stop(), "stop before start must fail")

	require.NoError(t, src.Start(context.Background(), out, errs, &wg))
	assert.Error(t, src.Start(context.Background(), out, errs, &wg), "double start must fail")

	require.NoError(t, src.Stop())
	assert.Error(t, src.Stop(), "double stop must fail")
	wg.Wait()
}

func TestSimulatorRestartsAfterStop(t *testing.T) {
	src := NewSimulatorSource(simulatorConfig(0))
	out := make(chan models.MSensorPoint, 64)
	errs := make(chan error, 1)
	var wg sync.WaitGroup

	require.NoError(t, src.Start(context.Background(), out, errs, &wg))
	collectPoints(t, out, 1)
	require.NoError(t, src.Stop())
	wg.Wait()

	require.NoError(t, src.Start(context.Background(), out, errs, &wg))
	collectPoints(t, out, 1)
	require.NoError(t, src.Stop())
	wg.Wait()
}

func TestSimulatorInjectsAlternatingSpikes(t *testing.T) {
	src := NewSimulatorSource(simulatorConfig(2))
	out := make(chan models.MSensorPoint, 64)
	errs := make(chan error, 1)
	var wg sync.WaitGroup

	require.NoError(t, src.Start(context.Background(), out, errs, &wg))
	got := collectPoints(t, out, 8)
	require.NoError(t, src.Stop())
	wg.Wait()

	// Every second tick spikes one side past its threshold, alternating.
	var upper, lower int
	for _, p := range got {
		switch {
		case p.Value > 8:
			upper++
			assert.Equal(t, 14.0, p.Value, "upper spike is threshold + amplitude + 1")
		case p.Value < -8:
			lower++
			assert.Equal(t, -14.0, p.Value, "lower spike is threshold - amplitude - 1")
		}
	}
	assert.GreaterOrEqual(t, upper, 1)
	assert.GreaterOrEqual(t, lower, 1)
	assert.Equal(t, 4, upper+lower)
}

func TestSimulatorStopsOnContextCancel(t *testing.T) {
	src := NewSimulatorSource(simulatorConfig(0))
	out := make(chan models.MSensorPoint, 64)
	errs := make(chan error, 1)
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, src.Start(ctx, out, errs, &wg))
	collectPoints(t, out, 1)

	cancel()
	wg.Wait() // the run loop exits on parent cancellation

	// The source still considers itself running until Stop reconciles it.
	require.NoError(t, src.Stop())
}
