package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// WebsocketSource subscribes to a collector that pushes readings as JSON
// frames ({"timestamp": ms, "value": v}). A malformed frame is skipped; a
// broken connection is fatal and reported on the errs channel.
// -----------------------------------------------------------------------------

const (
	wsWriteWait  = 2 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

type WebsocketSource struct {
	Config *models.MConfig
	Logger *logger.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	cancelFunc context.CancelFunc
	isRunning  atomic.Bool
}

// -----------------------------------------------------------------------------

func NewWebsocketSource(cfg *models.MConfig) *WebsocketSource {
	return &WebsocketSource{
		Config: cfg,
		Logger: logger.NewLogger(cfg, "WebsocketSource"),
	}
}

// -----------------------------------------------------------------------------

func (s *WebsocketSource) Name() string {
	return "websocket"
}

// -----------------------------------------------------------------------------

func (s *WebsocketSource) Start(parentCtx context.Context, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	conn, _, err := websocket.DefaultDialer.DialContext(parentCtx, s.Config.Feed.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", s.Config.Feed.URL, err)
	}

	ctx, cancel := context.WithCancel(parentCtx)
	s.conn = conn
	s.cancelFunc = cancel
	s.isRunning.Store(true)

	wg.Add(2)
	go s.readLoop(ctx, conn, out, errs, wg)
	go s.pingLoop(ctx, conn, wg)

	s.Logger.Info("Started WebsocketSource: %s", s.Config.Feed.URL)
	return nil
}

// -----------------------------------------------------------------------------

func (s *WebsocketSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped WebsocketSource")
	return nil
}

// -----------------------------------------------------------------------------

func (s *WebsocketSource) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.isRunning.Store(false)
			s.Logger.Error("Read failed: %v", err)
			select {
			case errs <- fmt.Errorf("websocket read failed: %w", err):
			default:
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var point models.MSensorPoint
		if err := json.Unmarshal(message, &point); err != nil {
			s.Logger.Warning("Discarding malformed frame: %v", err)
			continue
		}

		select {
		case out <- point:
		case <-ctx.Done():
			return
		}
	}
}

// -----------------------------------------------------------------------------

// pingLoop keeps the connection alive and closes it on teardown so the
// blocking read unblocks.
func (s *WebsocketSource) pingLoop(ctx context.Context, conn *websocket.Conn, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
