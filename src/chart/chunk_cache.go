package chart

import (
	"container/list"
	"fmt"
	"sort"
	"sync"

	"github.com/naikprasanna/Plant-Monitoring/src/logger"
	"github.com/naikprasanna/Plant-Monitoring/src/metrics"
	"github.com/naikprasanna/Plant-Monitoring/src/models"
)

// -----------------------------------------------------------------------------
// ChunkCache holds recently fetched history chunks keyed by granularity and
// time range, so revisiting a zoom band can render without touching the
// provider. Entries are evicted least-recently-used under both an entry cap
// and a byte cap. Safe for concurrent use.
// -----------------------------------------------------------------------------

const bytesPerPoint = 16 // two 8-byte fields per stored point

type cacheEntry struct {
	key     string
	level   models.MGranularityLevel
	startMs int64
	endMs   int64
	series  models.MSeries
	bytes   int64
}

type ChunkCache struct {
	mu         sync.Mutex
	maxEntries int
	maxBytes   int64
	curBytes   int64

	ll      *list.List
	items   map[string]*list.Element
	byLevel map[models.MGranularityLevel][]*cacheEntry

	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// -----------------------------------------------------------------------------

func NewChunkCache(cfg models.MCacheConfig, log *logger.Logger, met *metrics.Metrics) *ChunkCache {
	return &ChunkCache{
		maxEntries: cfg.MaxEntries,
		maxBytes:   cfg.MaxBytes,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
		byLevel:    make(map[models.MGranularityLevel][]*cacheEntry),
		Logger:     log,
		Metrics:    met,
	}
}

// -----------------------------------------------------------------------------

// Put stores a fetched chunk for [startMs, endMs) at the given level. An
// existing entry with the same key is replaced and refreshed.
func (cc *ChunkCache) Put(level models.MGranularityLevel, startMs, endMs int64, series models.MSeries) {
	if endMs <= startMs {
		return
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()

	key := cacheKey(level, startMs, endMs)
	if elem, ok := cc.items[key]; ok {
		cc.removeElement(elem)
	}

	entry := &cacheEntry{
		key:     key,
		level:   level,
		startMs: startMs,
		endMs:   endMs,
		series:  series.Clone(),
		bytes:   int64(len(series)) * bytesPerPoint,
	}
	cc.items[key] = cc.ll.PushFront(entry)
	cc.curBytes += entry.bytes
	cc.insertLevelIndex(entry)

	cc.evictLocked()
}

// -----------------------------------------------------------------------------

// Lookup assembles the points covering [startMs, endMs) at the given level
// from cached entries. It succeeds only when the range is fully covered;
// partial coverage is a miss (callers use MissingRanges to plan the fetch).
func (cc *ChunkCache) Lookup(level models.MGranularityLevel, startMs, endMs int64) (models.MSeries, bool) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if len(cc.missingLocked(level, startMs, endMs)) > 0 {
		if cc.Metrics != nil {
			cc.Metrics.CacheMisses.Inc()
		}
		return nil, false
	}

	out := make(models.MSeries, 0, 64)
	var lastTs int64
	first := true
	for _, entry := range cc.overlappingLocked(level, startMs, endMs) {
		if elem, ok := cc.items[entry.key]; ok {
			cc.ll.MoveToFront(elem)
		}
		for _, p := range entry.series {
			if p.Timestamp < startMs || p.Timestamp >= endMs {
				continue
			}
			if !first && p.Timestamp <= lastTs {
				continue
			}
			out = append(out, p)
			lastTs = p.Timestamp
			first = false
		}
	}

	if cc.Metrics != nil {
		cc.Metrics.CacheHits.Inc()
	}
	return out, true
}

// -----------------------------------------------------------------------------

// MissingRanges returns the sub-ranges of [startMs, endMs) not covered at the
// given level, in ascending order. An empty result means full coverage.
func (cc *ChunkCache) MissingRanges(level models.MGranularityLevel, startMs, endMs int64) []models.MTimeRange {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.missingLocked(level, startMs, endMs)
}

// -----------------------------------------------------------------------------

// Len returns the number of cached entries.
func (cc *ChunkCache) Len() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.ll.Len()
}

// -----------------------------------------------------------------------------

// Bytes returns the estimated resident size of all cached series.
func (cc *ChunkCache) Bytes() int64 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.curBytes
}

// -----------------------------------------------------------------------------

// Invalidate drops every entry at the given level, forcing the next lookup
// there to refetch. Called when revised data makes cached chunks stale.
func (cc *ChunkCache) Invalidate(level models.MGranularityLevel) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	for _, entry := range cc.byLevel[level] {
		if elem, ok := cc.items[entry.key]; ok {
			cc.ll.Remove(elem)
			delete(cc.items, entry.key)
			cc.curBytes -= entry.bytes
		}
	}
	delete(cc.byLevel, level)
}

// -----------------------------------------------------------------------------

// Purge drops every entry.
func (cc *ChunkCache) Purge() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.ll.Init()
	cc.items = make(map[string]*list.Element)
	cc.byLevel = make(map[models.MGranularityLevel][]*cacheEntry)
	cc.curBytes = 0
}

// -----------------------------------------------------------------------------

func (cc *ChunkCache) missingLocked(level models.MGranularityLevel, startMs, endMs int64) []models.MTimeRange {
	if endMs <= startMs {
		return nil
	}

	var gaps []models.MTimeRange
	cursor := startMs
	for _, entry := range cc.overlappingLocked(level, startMs, endMs) {
		if entry.startMs > cursor {
			gaps = append(gaps, models.MTimeRange{StartMs: cursor, EndMs: entry.startMs})
		}
		if entry.endMs > cursor {
			cursor = entry.endMs
		}
		if cursor >= endMs {
			break
		}
	}
	if cursor < endMs {
		gaps = append(gaps, models.MTimeRange{StartMs: cursor, EndMs: endMs})
	}
	return gaps
}

// -----------------------------------------------------------------------------

// overlappingLocked returns level entries intersecting [startMs, endMs),
// ordered by start time. The per-level index is kept sorted on insert.
func (cc *ChunkCache) overlappingLocked(level models.MGranularityLevel, startMs, endMs int64) []*cacheEntry {
	var out []*cacheEntry
	for _, entry := range cc.byLevel[level] {
		if entry.startMs >= endMs {
			break
		}
		if entry.endMs > startMs {
			out = append(out, entry)
		}
	}
	return out
}

// -----------------------------------------------------------------------------

func (cc *ChunkCache) insertLevelIndex(entry *cacheEntry) {
	idx := cc.byLevel[entry.level]
	pos := sort.Search(len(idx), func(i int) bool {
		return idx[i].startMs >= entry.startMs
	})
	idx = append(idx, nil)
	copy(idx[pos+1:], idx[pos:])
	idx[pos] = entry
	cc.byLevel[entry.level] = idx
}

// -----------------------------------------------------------------------------

func (cc *ChunkCache) removeLevelIndex(entry *cacheEntry) {
	idx := cc.byLevel[entry.level]
	for i, e := range idx {
		if e == entry {
			cc.byLevel[entry.level] = append(idx[:i], idx[i+1:]...)
			return
		}
	}
}

// -----------------------------------------------------------------------------

func (cc *ChunkCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	cc.ll.Remove(elem)
	delete(cc.items, entry.key)
	cc.removeLevelIndex(entry)
	cc.curBytes -= entry.bytes
}

// -----------------------------------------------------------------------------

func (cc *ChunkCache) evictLocked() {
	for (cc.maxEntries > 0 && cc.ll.Len() > cc.maxEntries) ||
		(cc.maxBytes > 0 && cc.curBytes > cc.maxBytes && cc.ll.Len() > 1) {
		back := cc.ll.Back()
		if back == nil {
			return
		}
		cc.removeElement(back)
		if cc.Metrics != nil {
			cc.Metrics.CacheEvictions.Inc()
		}
	}
}

// -----------------------------------------------------------------------------

func cacheKey(level models.MGranularityLevel, startMs, endMs int64) string {
	return fmt.Sprintf("%d:%d:%d", level, startMs, endMs)
}
