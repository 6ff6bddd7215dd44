package interfaces

import "github.com/naikprasanna/Plant-Monitoring/src/models"

// -----------------------------------------------------------------------------
// IRenderSurface is the rendering side of the chart: it accepts normalized
// render payloads and feeds user zoom events back into the controller. The
// engine never knows how payloads are drawn.
// -----------------------------------------------------------------------------

type IRenderSurface interface {

	// -----------------------------------------------------------------------------

	// Render delivers the latest payload. Must not block the caller; must not
	// mutate the payload.
	Render(payload *models.MRenderPayload)

	// -----------------------------------------------------------------------------

	// Start the surface (server loop, hub, ...)
	Start() error

	// -----------------------------------------------------------------------------

	// Stop the surface gracefully
	Stop() error
}
