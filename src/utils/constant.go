package utils

// -----------------------------------------------------------------------------

// Channel capacities for the controller event loop. Live points arrive in
// bursts when a feed reconnects; fetch results and zoom events are sparse.
const (
	LiveChannelSize   = 256
	FetchChannelSize  = 8
	ZoomChannelSize   = 32
	ErrorChannelSize  = 8
	BroadcastCapacity = 256
)

// -----------------------------------------------------------------------------

// Engine defaults applied when the config leaves a value unset.
const (
	DefaultRetentionWindowMs   = int64(24 * 60 * 60 * 1000) // one day
	DefaultBufferMarginMs      = int64(5 * 60 * 1000)
	DefaultMaxPoints           = 50000
	DefaultMaxRenderPoints     = 2000
	DefaultDebounceMs          = 150
	DefaultAutoScrollEpsilonMs = int64(2000)
	DefaultCacheEntries        = 64
	DefaultCacheBytes          = int64(8 * 1024 * 1024)
	DefaultRingCapacity        = 512
)
