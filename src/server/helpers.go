package server

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------

// parseZoomCommand validates the fraction pair carried by a client command.
func parseZoomCommand(cmd models.MClientCommand) (models.MZoomRange, error) {
	zoom := models.MZoomRange{
		StartFraction: cmd.Start,
		EndFraction:   cmd.End,
	}
	if !zoom.IsValid() {
		return models.MZoomRange{}, fmt.Errorf("invalid zoom range [%.2f, %.2f]", cmd.Start, cmd.End)
	}
	return zoom, nil
}

// -----------------------------------------------------------------------------

// parseLimitQuery reads a positive integer query parameter, falling back to
// def when absent or malformed and capping at max.
func parseLimitQuery(c *gin.Context, name string, def int, max int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}
