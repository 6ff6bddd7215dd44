package models

// -----------------------------------------------------------------------------
// MFetchResult is the completion event a history fetch delivers to the
// controller loop. Results are applied in issuance order: Seq identifies the
// request, and the coordinator drops any sequence number older than the most
// recently issued one.
// -----------------------------------------------------------------------------

type MFetchResult struct {
	RequestID   string            // uuid, log correlation only
	Seq         uint64            // monotonic issuance order
	Level       MGranularityLevel // granularity the chunk was fetched at
	Range       MTimeRange        // range the fetched series covers (cache key)
	Requested   MTimeRange        // full span the zoom asked for
	Series      MSeries
	Err         error
	Speculative bool // prefetch result: cache only, never ingested
	FromCache   bool // assembled from cache, nothing to store back
}
