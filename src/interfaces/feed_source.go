package interfaces

import (
	"context"
	"sync"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// IFeedSource interface for live sensor readings pushed from external systems.
// -----------------------------------------------------------------------------

type IFeedSource interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// Start begins the push loop.
	// ctx: controls the lifecycle (cancellation stops the source)
	// out: channel new readings are pushed to
	// errs: channel fatal subscription failures are reported on; after a send
	//       the source is stopped and must be restarted by the owner
	// wg: WaitGroup to signal when the source has fully stopped
	Start(ctx context.Context, out chan<- models.MSensorPoint, errs chan<- error, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Stop terminates the push loop (manual stop)
	// Cancelling the context passed to Start is equivalent.
	Stop() error
}
