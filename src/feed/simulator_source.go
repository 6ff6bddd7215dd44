package feed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// SimulatorSource synthesizes a sinusoid reading stream for development and
// the end-to-end harness. Every SpikeEveryN-th tick it pushes a value past
// the configured thresholds, alternating sides, so spike handling can be
// exercised without real hardware.
// -----------------------------------------------------------------------------

type SimulatorSource struct {
	Config *models.MConfig
	Logger *logger.Logger

	mu         sync.Mutex
	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
	rng        *rand.Rand
	ticks      int
}

// -----------------------------------------------------------------------------

func NewSimulatorSource(cfg *models.MConfig) *SimulatorSource {
	return &SimulatorSource{
		Config: cfg,
		Logger: logger.NewLogger(cfg, "SimulatorSource"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// -----------------------------------------------------------------------------

func (s *SimulatorSource) Name() string {
	return "simulator"
}

// -----------------------------------------------------------------------------

func (s *SimulatorSource) Start(parentCtx context.Context, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	ctx, cancel := context.WithCancel(parentCtx)
	s.cancelFunc = cancel
	s.isRunning.Store(true)

	wg.Add(1)
	go s.runLoop(ctx, out, wg)

	s.Logger.Info("Started SimulatorSource (interval=%dms, base=%.2f, amplitude=%.2f)",
		s.Config.Feed.IntervalMs, s.Config.Feed.BaseValue, s.Config.Feed.Amplitude)
	return nil
}

// -----------------------------------------------------------------------------

func (s *SimulatorSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped SimulatorSource")
	return nil
}

// -----------------------------------------------------------------------------

func (s *SimulatorSource) runLoop(ctx context.Context, out chan<- models.MSensorPoint, wg *sync.WaitGroup) {
	defer wg.Done()

	interval := time.Duration(s.Config.Feed.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			point := s.generate(t)
			select {
			case out <- point:
			case <-ctx.Done():
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

// generate produces the next reading: sinusoid around the base value with a
// little noise, plus the periodic injected spike.
func (s *SimulatorSource) generate(t time.Time) models.MSensorPoint {
	cfg := s.Config.Feed

	s.mu.Lock()
	s.ticks++
	tick := s.ticks
	noise := (s.rng.Float64() - 0.5) * cfg.Amplitude * 0.1
	s.mu.Unlock()

	period := cfg.PeriodMs
	if period <= 0 {
		period = 60_000
	}

	tMs := t.UnixMilli()
	phase := 2 * math.Pi * float64(tMs%period) / float64(period)
	value := cfg.BaseValue + cfg.Amplitude*math.Sin(phase) + noise

	if cfg.SpikeEveryN > 0 && tick%cfg.SpikeEveryN == 0 {
		if (tick/cfg.SpikeEveryN)%2 == 0 {
			value = s.Config.Sensor.UpperThreshold + math.Abs(cfg.Amplitude) + 1
		} else {
			value = s.Config.Sensor.LowerThreshold - math.Abs(cfg.Amplitude) - 1
		}
	}

	return models.MSensorPoint{Timestamp: tMs, Value: value}
}
