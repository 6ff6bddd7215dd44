package server

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/naikprasanna/Plant-Monitoring/src/chart"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
	"github.com/naikprasanna/Plant-Monitoring/src/utils"
)

// -----------------------------------------------------------------------------
// ChartServer
//
// The HTTP/WebSocket rendering surface. Render payloads enter through the
// Render callback and fan out to connected websocket clients via the hub
// loop; zoom commands travel the other way into the controller.
// -----------------------------------------------------------------------------

type ChartServer struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	Controller *chart.ChartController
	engine     *gin.Engine

	// WebSocket clients, owned by the hub loop
	clients    map[*Client]struct{}
	broadcast  chan *models.MRenderPayload // Strongly typed and Buffered Queue
	register   chan *Client
	unregister chan *Client
	replay     chan *Client

	// Local copy of the latest payload for replay and the REST surface
	latestPayload *models.MRenderPayload
	stateMutex    sync.RWMutex

	clientCount atomic.Int32
	stopped     atomic.Bool
	quit        chan struct{}
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewChartServer(cfg *models.MConfig, controller *chart.ChartController, logger *logger.Logger) *ChartServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ChartServer{
		Config:     cfg,
		Logger:     logger,
		Controller: controller,
		engine:     gin.Default(),
		clients:    make(map[*Client]struct{}),
		// Buffered queue so a render burst never blocks the controller loop
		broadcast:  make(chan *models.MRenderPayload, utils.BroadcastCapacity),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		replay:     make(chan *Client),
		quit:       make(chan struct{}),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ChartServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/chart", s.getChart)
	s.engine.GET("/api/chart/stats", s.getStats)
	s.engine.GET("/api/chart/live", s.getLive)
	s.engine.POST("/api/chart/zoom", s.postZoom)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)

	// Prometheus scrape endpoint
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *ChartServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *ChartServer) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(s.quit)
	return nil
}

// -----------------------------------------------------------------------------
// IRenderSurface implementation
// -----------------------------------------------------------------------------

// Render enqueues a payload for fan-out. Never blocks the controller loop:
// when the queue is full the oldest payload is dropped, clients only ever
// need the newest frame.
func (s *ChartServer) Render(payload *models.MRenderPayload) {
	if s.stopped.Load() {
		return
	}

	select {
	case s.broadcast <- payload:
	default:
		select {
		case <-s.broadcast:
		default:
		}
		select {
		case s.broadcast <- payload:
		default:
		}
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *ChartServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	var timestamp int64
	if s.latestPayload != nil {
		timestamp = s.latestPayload.Timestamp
	}
	s.stateMutex.RUnlock()

	status := "ok"
	lastError := ""
	if err := s.Controller.LastError(); err != nil {
		status = "degraded"
		lastError = err.Error()
	}

	c.JSON(200, gin.H{
		"status":        status,
		"connections":   s.clientCount.Load(),
		"latest_update": timestamp,
		"last_error":    lastError,
	})
}

// -----------------------------------------------------------------------------

func (s *ChartServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"sensor": gin.H{
			"id":              s.Config.Sensor.ID,
			"unit":            s.Config.Sensor.Unit,
			"upper_threshold": s.Config.Sensor.UpperThreshold,
			"lower_threshold": s.Config.Sensor.LowerThreshold,
			"spikes_enabled":  s.Config.Sensor.SpikesEnabled,
		},
		"bands": s.Controller.Bands(),
		"chart": gin.H{
			"retention_window_ms": s.Config.Chart.RetentionWindowMs,
			"max_points":          s.Config.Chart.MaxPoints,
			"max_render_points":   s.Config.Chart.MaxRenderPoints,
			"debounce_ms":         s.Config.Chart.DebounceMs,
		},
	})
}

// -----------------------------------------------------------------------------

func (s *ChartServer) getChart(c *gin.Context) {
	payload := s.Controller.LatestPayload()
	if payload == nil {
		c.JSON(404, gin.H{"error": "no chart data yet"})
		return
	}
	c.JSON(200, payload)
}

// -----------------------------------------------------------------------------

func (s *ChartServer) getStats(c *gin.Context) {
	c.JSON(200, s.Controller.Stats())
}

// -----------------------------------------------------------------------------

func (s *ChartServer) getLive(c *gin.Context) {
	n := parseLimitQuery(c, "n", 50, s.Config.Feed.RingCapacity)
	points := s.Controller.RecentLive(n)

	c.JSON(200, gin.H{
		"count":  len(points),
		"points": points,
	})
}

// -----------------------------------------------------------------------------

func (s *ChartServer) postZoom(c *gin.Context) {
	var cmd models.MClientCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(400, gin.H{"error": "invalid zoom payload"})
		return
	}

	zoom, err := parseZoomCommand(cmd)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if err := s.Controller.OnZoomChange(zoom); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	c.JSON(202, gin.H{"status": "accepted"})
}
