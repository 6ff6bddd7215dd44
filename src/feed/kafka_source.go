package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// KafkaSource consumes sensor readings from a topic. Each message value is a
// JSON reading; keys and headers are ignored.
// -----------------------------------------------------------------------------

type KafkaSource struct {
	Config *models.MConfig
	Logger *logger.Logger

	mu         sync.Mutex
	reader     *kafka.Reader
	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
}

// -----------------------------------------------------------------------------

func NewKafkaSource(cfg *models.MConfig) *KafkaSource {
	return &KafkaSource{
		Config: cfg,
		Logger: logger.NewLogger(cfg, "KafkaSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *KafkaSource) Name() string {
	return "kafka"
}

// -----------------------------------------------------------------------------

func (s *KafkaSource) Start(parentCtx context.Context, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	ctx, cancel := context.WithCancel(parentCtx)

	s.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  s.Config.Feed.Brokers,
		GroupID:  s.Config.Feed.GroupID,
		Topic:    s.Config.Feed.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	s.cancelFunc = cancel
	s.isRunning.Store(true)

	wg.Add(1)
	go s.runLoop(ctx, s.reader, out, errs, wg)

	s.Logger.Info("Started KafkaSource: %v topic=%s group=%s",
		s.Config.Feed.Brokers, s.Config.Feed.Topic, s.Config.Feed.GroupID)
	return nil
}

// -----------------------------------------------------------------------------

func (s *KafkaSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped KafkaSource")
	return nil
}

// -----------------------------------------------------------------------------

func (s *KafkaSource) runLoop(ctx context.Context, reader *kafka.Reader, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.isRunning.Store(false)
			s.Logger.Error("Read failed: %v", err)
			select {
			case errs <- fmt.Errorf("kafka read failed: %w", err):
			default:
			}
			return
		}

		var point models.MSensorPoint
		if err := json.Unmarshal(msg.Value, &point); err != nil {
			s.Logger.Warning("Discarding malformed message at offset %d: %v", msg.Offset, err)
			continue
		}

		select {
		case out <- point:
		case <-ctx.Done():
			return
		}
	}
}
