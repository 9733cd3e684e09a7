package embedding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tabstash/ai"
)

func TestCacheHitAndMiss(t *testing.T) {
	cache := NewQueryCache(10)

	_, ok := cache.Get("rust async runtime", ai.TaskRetrievalQuery)
	assert.False(t, ok)

	cache.Set("rust async runtime", ai.TaskRetrievalQuery, []float32{0.1, 0.2, 0.3})

	vector, ok := cache.Get("rust async runtime", ai.TaskRetrievalQuery)
	require.True(t, ok)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)

	// Same text under a different task is a distinct entry
	_, ok = cache.Get("rust async runtime", ai.TaskTextMatching)
	assert.False(t, ok)
}

func TestCacheKeyNormalization(t *testing.T) {
	cache := NewQueryCache(10)
	cache.Set("  Rust Async Runtime  ", ai.TaskRetrievalQuery, []float32{1})

	_, ok := cache.Get("rust async runtime", ai.TaskRetrievalQuery)
	assert.True(t, ok, "lookups should ignore case and surrounding whitespace")
}

func TestCacheCopySemantics(t *testing.T) {
	cache := NewQueryCache(10)

	original := []float32{1, 2, 3}
	cache.Set("query", ai.TaskRetrievalQuery, original)

	// Mutating the slice passed to Set must not affect the cached copy
	original[0] = 99

	first, ok := cache.Get("query", ai.TaskRetrievalQuery)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, first)

	// Mutating a returned slice must not affect subsequent reads
	first[1] = 99

	second, ok := cache.Get("query", ai.TaskRetrievalQuery)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, second)
}

func TestCacheLRUEviction(t *testing.T) {
	cache := NewQueryCache(3)

	cache.Set("a", ai.TaskRetrievalQuery, []float32{1})
	cache.Set("b", ai.TaskRetrievalQuery, []float32{2})
	cache.Set("c", ai.TaskRetrievalQuery, []float32{3})

	// Touch "a" so "b" becomes the least recently accessed
	_, ok := cache.Get("a", ai.TaskRetrievalQuery)
	require.True(t, ok)

	cache.Set("d", ai.TaskRetrievalQuery, []float32{4})

	assert.Equal(t, 3, cache.Stats().Size)

	_, ok = cache.Get("b", ai.TaskRetrievalQuery)
	assert.False(t, ok, "least recently accessed entry should be evicted")

	for _, text := range []string{"a", "c", "d"} {
		_, ok := cache.Get(text, ai.TaskRetrievalQuery)
		assert.True(t, ok, "entry %q should survive eviction", text)
	}
}

func TestCacheEvictOlderThan(t *testing.T) {
	cache := NewQueryCache(10)

	cache.Set("stale", ai.TaskRetrievalQuery, []float32{1})
	time.Sleep(20 * time.Millisecond)
	cache.Set("fresh", ai.TaskRetrievalQuery, []float32{2})

	removed := cache.EvictOlderThan(10 * time.Millisecond)
	assert.Equal(t, 1, removed)

	_, ok := cache.Get("stale", ai.TaskRetrievalQuery)
	assert.False(t, ok)
	_, ok = cache.Get("fresh", ai.TaskRetrievalQuery)
	assert.True(t, ok)
}

func TestCacheStats(t *testing.T) {
	cache := NewQueryCache(10)

	cache.Set("query", ai.TaskRetrievalQuery, []float32{1})
	cache.Get("query", ai.TaskRetrievalQuery)
	cache.Get("query", ai.TaskRetrievalQuery)
	cache.Get("missing", ai.TaskRetrievalQuery)

	stats := cache.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	assert.InDelta(t, 2.0/3.0, stats.HitRate(), 1e-9)

	assert.Zero(t, CacheStats{}.HitRate())
}

func TestCacheDebugRedactsContent(t *testing.T) {
	cache := NewQueryCache(10)
	cache.Set("what was that crdt paper", ai.TaskRetrievalQuery, []float32{1, 2, 3})
	cache.Get("what was that crdt paper", ai.TaskRetrievalQuery)

	infos := cache.Debug()
	require.Len(t, infos, 1)
	assert.Equal(t, ai.TaskRetrievalQuery, infos[0].Task)
	assert.Equal(t, len("what was that crdt paper"), infos[0].TextLength)
	assert.Equal(t, 1, infos[0].AccessCount)
	assert.GreaterOrEqual(t, infos[0].Age, time.Duration(0))
}
