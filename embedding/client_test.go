package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tabstash/ai"
	"github.com/poiesic/tabstash/ai/mock"
	"github.com/poiesic/tabstash/gateway"
)

func newTestGateway(t *testing.T) *gateway.Gateway {
	t.Helper()
	gw := gateway.New(gateway.Config{
		Limits: map[string]int{gateway.ServiceEmbeddings: 1000},
	})
	t.Cleanup(func() { gw.Close() })
	return gw
}

func TestEmbedCachesQueryResults(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client := NewClient(embedder, newTestGateway(t), NewQueryCache(10))

	first := client.Embed(context.Background(), "vector databases", ai.TaskRetrievalQuery)
	second := client.Embed(context.Background(), "vector databases", ai.TaskRetrievalQuery)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, embedder.CallCount(), "second lookup should come from the cache")
}

func TestEmbedPassageBypassesCache(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client := NewClient(embedder, newTestGateway(t), NewQueryCache(10))

	client.Embed(context.Background(), "page content", ai.TaskRetrievalPassage)
	client.Embed(context.Background(), "page content", ai.TaskRetrievalPassage)

	assert.Equal(t, 2, embedder.CallCount())
}

func TestEmbedFallbackIsDeterministic(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string, task ai.EmbeddingTask) ([]float32, error) {
		return nil, errors.New("provider down")
	}
	client := NewClient(embedder, newTestGateway(t), nil)

	first := client.Embed(context.Background(), "some query", ai.TaskRetrievalQuery)
	second := client.Embed(context.Background(), "some query", ai.TaskRetrievalQuery)
	other := client.Embed(context.Background(), "different query", ai.TaskRetrievalQuery)

	require.Len(t, first, 384)
	assert.Equal(t, first, second, "same text must yield the same fallback vector")
	assert.NotEqual(t, first, other, "different texts should yield different fallbacks")

	// Fallback vectors are unit length so distance math stays meaningful
	var norm float64
	for _, v := range first {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-4)
}

func TestEmbedFallbackIsCached(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string, task ai.EmbeddingTask) ([]float32, error) {
		return nil, errors.New("provider down")
	}
	client := NewClient(embedder, newTestGateway(t), NewQueryCache(10))

	client.Embed(context.Background(), "some query", ai.TaskRetrievalQuery)
	client.Embed(context.Background(), "some query", ai.TaskRetrievalQuery)

	assert.Equal(t, 1, embedder.CallCount(), "fallback result should be cached")
}

func TestEmbedTruncatesLongInput(t *testing.T) {
	var received string
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string, task ai.EmbeddingTask) ([]float32, error) {
		received = text
		return []float32{1, 0, 0}, nil
	}
	client := NewClient(embedder, newTestGateway(t), nil, WithMaxInputChars(10))

	client.Embed(context.Background(), "this text is well past the limit", ai.TaskRetrievalPassage)

	assert.Equal(t, "this text ", received)
}

func TestEmbedNormalizesUpstreamVectors(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string, task ai.EmbeddingTask) ([]float32, error) {
		return []float32{3, 4}, nil
	}
	client := NewClient(embedder, newTestGateway(t), nil)

	vector := client.Embed(context.Background(), "query", ai.TaskRetrievalQuery)

	assert.InDelta(t, 0.6, float64(vector[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(vector[1]), 1e-6)
}

func TestEmbedBatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	client := NewClient(embedder, newTestGateway(t), nil)

	texts := []string{"first page", "second page", "third page"}
	vectors := client.EmbedBatch(context.Background(), texts, ai.TaskRetrievalPassage)

	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.NotEmpty(t, v, "vector %d", i)
	}
	assert.Equal(t, 1, embedder.CallCount(), "batch should make one upstream call")

	assert.Nil(t, client.EmbedBatch(context.Background(), nil, ai.TaskRetrievalPassage))
}

func TestEmbedBatchFallback(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string, task ai.EmbeddingTask) ([][]float32, error) {
		return nil, errors.New("provider down")
	}
	client := NewClient(embedder, newTestGateway(t), nil)

	texts := []string{"first page", "second page"}
	vectors := client.EmbedBatch(context.Background(), texts, ai.TaskRetrievalPassage)

	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		assert.Equal(t, FallbackVector(text, 384), vectors[i])
	}
}

func TestFallbackVectorEdgeCases(t *testing.T) {
	assert.Nil(t, FallbackVector("anything", 0))
	assert.Len(t, FallbackVector("", 16), 16)
}
