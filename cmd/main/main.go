package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/naikprasanna/Plant-Monitoring/src/chart"
	"github.com/naikprasanna/Plant-Monitoring/src/config"
	"github.com/naikprasanna/Plant-Monitoring/src/feed"
	"github.com/naikprasanna/Plant-Monitoring/src/helpers"
	"github.com/naikprasanna/Plant-Monitoring/src/history"
	"github.com/naikprasanna/Plant-Monitoring/src/interfaces"
	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/network"
	"github.com/naikprasanna/Plant-Monitoring/src/server"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger.SetLevel(conf.LogLevel)
	appLogger := logger.NewLogger(conf, conf.Name)

	// Metrics registry (exposed on /metrics)
	met := metrics.NewMetrics()

	// Warn when the cache budget exceeds what the host can hold.
	memLimitMB := helpers.RecommendedMemoryLimitMB()
	appLogger.Info("Memory limit: %d MB", memLimitMB)
	if conf.Cache.MaxBytes > int64(memLimitMB)*1024*1024 {
		appLogger.Warning("Cache budget (%d bytes) exceeds the recommended memory limit (%d MB)",
			conf.Cache.MaxBytes, memLimitMB)
	}

	// 1. History provider
	var provider interfaces.IHistoryProvider

	switch conf.History.ProviderType {
	case "postgres":
		provider, err = history.NewPostgresProvider(conf.MConfig, logger.NewLogger(conf, "PostgresProvider"))
	case "http":
		netMgr := network.NewAsyncNetworkManager(conf.MConfig, logger.NewLogger(conf, "Network"))
		provider = history.NewHTTPProvider(conf.MConfig, netMgr, logger.NewLogger(conf, "HTTPProvider"))
	default:
		// Default to SQLite
		provider, err = history.NewSQLiteProvider(conf.MConfig, logger.NewLogger(conf, "SQLiteProvider"))
	}
	if err != nil {
		appLogger.Critical("Failed to build history provider: %v", err)
	}

	// Initial connects may race a database that is still coming up.
	if _, err := helpers.RetryWithBackoff("provider initialize", 3, time.Second, func() (interface{}, error) {
		return nil, provider.Initialize()
	}); err != nil {
		appLogger.Critical("Failed to initialize history provider: %v", err)
	}
	defer provider.Close()

	// 2. Live feed source
	source, err := feed.NewSource(conf.MConfig)
	if err != nil {
		appLogger.Critical("Failed to build feed source: %v", err)
	}

	// 3. Engine and surface
	controller := chart.NewChartController(conf.MConfig, provider, source, met)
	srv := server.NewChartServer(conf.MConfig, controller, logger.NewLogger(conf, "ChartServer"))

	// 4. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 5. Mount the chart: initial load, live feed, event loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Mount(ctx, srv); err != nil {
		appLogger.Critical("Failed to mount chart: %v", err)
	}

	appLogger.Info("%s running (sensor=%s, history=%s, feed=%s)",
		conf.Name, conf.Sensor.ID, provider.Name(), source.Name())

	// 6. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	cancel()
	if err := controller.Close(); err != nil {
		appLogger.Error("Controller close: %v", err)
	}
	if err := srv.Stop(); err != nil {
		appLogger.Error("Server stop: %v", err)
	}
}
