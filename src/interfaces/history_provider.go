package interfaces

import (
	"context"

	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// IHistoryProvider defines the contract for historical reading queries.
// -----------------------------------------------------------------------------

type IHistoryProvider interface {

	// -----------------------------------------------------------------------------

	// Name returns the unique identifier of the provider.
	Name() string

	// -----------------------------------------------------------------------------

	// Initialize opens the underlying connection or client.
	Initialize() error

	// -----------------------------------------------------------------------------

	// FetchRange returns readings in [startMs, endMs) aggregated into bucketMs
	// buckets, sorted ascending by timestamp. The call must honour ctx
	// cancellation promptly so superseded fetches can be aborted.
	FetchRange(ctx context.Context, startMs, endMs, bucketMs int64) (models.MSeries, error)

	// -----------------------------------------------------------------------------

	// Close releases the underlying connection.
	Close() error
}
