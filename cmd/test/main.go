package main

import (
	"fmt"
	"os"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
)

// End-to-end harness. Wires the real engine (sqlite history, scripted feed,
// capturing render surface) and drives it through the scenarios a chart
// frontend would produce. Exits non-zero when any scenario fails.
func main() {
	os.Exit(run())
}

func run() int {
	// 1. Workspace for the seeded history database
	dir, err := os.MkdirTemp("", "plant-monitor-harness-*")
	if err != nil {
		fmt.Printf("Error creating workspace: %v\n", err)
		return 1
	}
	defer os.RemoveAll(dir)

	// 2. Config + logger
	cfg := buildConfig(dir)
	logger.SetLevel(cfg.LogLevel)
	appLogger := logger.NewLogger(cfg, "Harness")

	// 3. Seed history and mount the controller on a capturing surface
	h, err := newHarness(cfg, appLogger)
	if err != nil {
		fmt.Printf("Error building harness: %v\n", err)
		return 1
	}
	defer h.close()

	// 4. Run scenarios in order; later ones build on the window state left
	// by earlier ones.
	scenarios := []struct {
		name string
		run  func(*harness) error
	}{
		{"initial load", scenarioInitialLoad},
		{"zoom ladder", scenarioZoomLadder},
		{"cache replay", scenarioCacheReplay},
		{"live auto-scroll", scenarioLiveAutoScroll},
		{"live zoomed back", scenarioLiveZoomedBack},
		{"spike markers", scenarioSpikeMarkers},
		{"fetch failure", scenarioFetchFailure},
	}

	failed := 0
	for _, sc := range scenarios {
		if err := sc.run(h); err != nil {
			failed++
			fmt.Printf("FAIL  %-17s %v\n", sc.name, err)
			continue
		}
		fmt.Printf("PASS  %s\n", sc.name)
	}

	if failed > 0 {
		fmt.Printf("%d of %d scenarios failed\n", failed, len(scenarios))
		return 1
	}
	fmt.Printf("all %d scenarios passed\n", len(scenarios))
	return 0
}
