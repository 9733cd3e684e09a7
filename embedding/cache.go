package embedding

import (
	"strings"
	"sync"
	"time"

	"github.com/poiesic/tabstash/ai"
)

// cacheEntry holds one cached vector with its access metadata.
type cacheEntry struct {
	vector      []float32
	task        ai.EmbeddingTask
	textLength  int
	insertedAt  time.Time
	lastAccess  time.Time
	accessSeq   uint64 // monotonic tie-breaker for equal lastAccess times
	accessCount int
}

// CacheStats reports hit/miss counters for tuning.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// HitRate returns the fraction of lookups that hit, or 0 with no lookups.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CacheEntryInfo is a redacted view of one cache entry for diagnostics.
// It never exposes the cached vector or the query text.
type CacheEntryInfo struct {
	Task        ai.EmbeddingTask
	TextLength  int
	Age         time.Duration
	AccessCount int
}

// QueryCache is a bounded LRU cache of query embeddings.
//
// Keys are normalized (trimmed, lower-cased) so queries differing only in
// case or surrounding whitespace share an entry. Vectors are defensively
// copied in both directions: callers can never mutate cached contents.
//
// Eviction is a lazy insert-time sweep: when Set pushes the table over
// capacity, the least-recently-accessed entries are removed until the table
// fits again. Safe for concurrent use.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	maxSize int
	seq     uint64
	hits    uint64
	misses  uint64
}

// NewQueryCache creates a cache holding at most maxSize entries.
func NewQueryCache(maxSize int) *QueryCache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry, maxSize),
		maxSize: maxSize,
	}
}

// cacheKey normalizes the text and joins it with the task label.
func cacheKey(text string, task ai.EmbeddingTask) string {
	return strings.ToLower(strings.TrimSpace(text)) + "\x00" + string(task)
}

// Get returns a copy of the cached vector for (text, task), or nil and false
// on a miss. A hit refreshes the entry's last-access time.
func (c *QueryCache) Get(text string, task ai.EmbeddingTask) ([]float32, bool) {
	key := cacheKey(text, task)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	c.hits++
	c.seq++
	entry.lastAccess = time.Now()
	entry.accessSeq = c.seq
	entry.accessCount++

	out := make([]float32, len(entry.vector))
	copy(out, entry.vector)
	return out, true
}

// Set stores a copy of the vector for (text, task). If the table exceeds
// capacity afterwards, the least-recently-accessed entries are evicted until
// it fits.
func (c *QueryCache) Set(text string, task ai.EmbeddingTask, vector []float32) {
	key := cacheKey(text, task)

	stored := make([]float32, len(vector))
	copy(stored, vector)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	now := time.Now()
	c.entries[key] = &cacheEntry{
		vector:      stored,
		task:        task,
		textLength:  len(text),
		insertedAt:  now,
		lastAccess:  now,
		accessSeq:   c.seq,
		accessCount: 0,
	}

	for len(c.entries) > c.maxSize {
		c.evictOldestLocked()
	}
}

// evictOldestLocked removes the entry with the oldest last access.
// Ties are broken by access sequence so eviction stays deterministic even
// when timestamps collide.
func (c *QueryCache) evictOldestLocked() {
	var oldestKey string
	var oldest *cacheEntry
	for key, entry := range c.entries {
		if oldest == nil ||
			entry.lastAccess.Before(oldest.lastAccess) ||
			(entry.lastAccess.Equal(oldest.lastAccess) && entry.accessSeq < oldest.accessSeq) {
			oldestKey = key
			oldest = entry
		}
	}
	if oldest != nil {
		delete(c.entries, oldestKey)
	}
}

// EvictOlderThan removes entries whose last access is older than maxAge.
// Returns the number of entries removed.
func (c *QueryCache) EvictOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.lastAccess.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns hit/miss counters and the current size.
func (c *QueryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:   c.hits,
		Misses: c.misses,
		Size:   len(c.entries),
	}
}

// Debug returns a redacted listing of cache contents for diagnostics.
func (c *QueryCache) Debug() []CacheEntryInfo {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	infos := make([]CacheEntryInfo, 0, len(c.entries))
	for _, entry := range c.entries {
		infos = append(infos, CacheEntryInfo{
			Task:        entry.task,
			TextLength:  entry.textLength,
			Age:         now.Sub(entry.insertedAt),
			AccessCount: entry.accessCount,
		})
	}
	return infos
}
