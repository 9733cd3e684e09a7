package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tabstash/ai/mock"
	"github.com/poiesic/tabstash/core"
	"github.com/poiesic/tabstash/embedding"
	"github.com/poiesic/tabstash/gateway"
	"github.com/poiesic/tabstash/storage"
)

// fakeTabs overrides the repository methods the searcher touches; the
// embedded interface panics on anything else.
type fakeTabs struct {
	storage.TabRepository
	findSimilar       func(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error)
	getTabRecords     func(ctx context.Context, ids ...core.ID) ([]*core.TabRecord, error)
	getRecordsByUser  func(ctx context.Context, userID string) ([]*core.TabRecord, error)
	findSimilarCalled bool
}

func (f *fakeTabs) FindSimilar(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error) {
	f.findSimilarCalled = true
	if f.findSimilar == nil {
		return nil, nil
	}
	return f.findSimilar(ctx, userID, vector, maxDistance, limit)
}

func (f *fakeTabs) GetTabRecords(ctx context.Context, ids ...core.ID) ([]*core.TabRecord, error) {
	if f.getTabRecords == nil {
		records := make([]*core.TabRecord, 0, len(ids))
		for _, id := range ids {
			records = append(records, tab(id, "user"))
		}
		return records, nil
	}
	return f.getTabRecords(ctx, ids...)
}

func (f *fakeTabs) GetTabRecordsByUser(ctx context.Context, userID string) ([]*core.TabRecord, error) {
	if f.getRecordsByUser == nil {
		return nil, nil
	}
	return f.getRecordsByUser(ctx, userID)
}

type fakeIndex struct {
	search func(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error)
}

func (f *fakeIndex) IndexTabRecords(records ...*core.TabRecord) error { return nil }
func (f *fakeIndex) RemoveTabRecords(ids ...core.ID) error            { return nil }
func (f *fakeIndex) Search(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
	if f.search == nil {
		return nil, nil
	}
	return f.search(ctx, query, userID, limit)
}

func tab(id core.ID, userID string) *core.TabRecord {
	return &core.TabRecord{
		Id:     id,
		UserID: userID,
		URL:    "https://example.com/page",
		Title:  "Example page",
	}
}

func newTestSearcher(t *testing.T, tabs storage.TabRepository, index storage.LexicalIndex) *Searcher {
	t.Helper()
	gw := gateway.New(gateway.Config{
		Limits: map[string]int{gateway.ServiceEmbeddings: 1000},
	})
	t.Cleanup(func() { gw.Close() })

	client := embedding.NewClient(mock.NewMockEmbedder(), gw, nil)
	searcher, err := NewSearcher(tabs, index, client)
	require.NoError(t, err)
	return searcher
}

func TestNewSearcherValidation(t *testing.T) {
	gw := gateway.New(gateway.Config{Limits: map[string]int{gateway.ServiceEmbeddings: 10}})
	defer gw.Close()
	client := embedding.NewClient(mock.NewMockEmbedder(), gw, nil)

	_, err := NewSearcher(nil, &fakeIndex{}, client)
	assert.ErrorIs(t, err, ErrTabRepositoryRequired)

	_, err = NewSearcher(&fakeTabs{}, nil, client)
	assert.ErrorIs(t, err, ErrLexicalIndexRequired)

	_, err = NewSearcher(&fakeTabs{}, &fakeIndex{}, nil)
	assert.ErrorIs(t, err, ErrEmbeddingClientRequired)
}

func TestSearchEmptyQueryReturnsEmpty(t *testing.T) {
	searcher := newTestSearcher(t, &fakeTabs{}, &fakeIndex{})

	hits, err := searcher.Search(context.Background(), "   ", "user", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRRFPreservesRelativeOrderOfDisjointLists(t *testing.T) {
	tabs := &fakeTabs{
		findSimilar: func(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error) {
			return []*core.VectorMatch{
				{Record: tab(1, userID), Distance: 0.10},
				{Record: tab(2, userID), Distance: 0.20},
				{Record: tab(3, userID), Distance: 0.30},
			}, nil
		},
	}
	index := &fakeIndex{
		search: func(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
			return []storage.LexicalResult{
				{Id: 4, Score: -3.0},
				{Id: 5, Score: -2.0},
				{Id: 6, Score: -1.0},
			}, nil
		},
	}
	searcher := newTestSearcher(t, tabs, index)

	hits, err := searcher.Search(context.Background(), "distributed systems reading", "user", 10)
	require.NoError(t, err)
	require.Len(t, hits, 6)

	position := make(map[core.ID]int)
	for i, hit := range hits {
		position[hit.Record.Id] = i
	}

	// Fusing disjoint lists must preserve each list's internal order
	assert.Less(t, position[1], position[2])
	assert.Less(t, position[2], position[3])
	assert.Less(t, position[4], position[5])
	assert.Less(t, position[5], position[6])
}

func TestOverlappingCandidateOutranksSingleSource(t *testing.T) {
	tabs := &fakeTabs{
		findSimilar: func(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error) {
			return []*core.VectorMatch{
				{Record: tab(1, userID), Distance: 0.10},
				{Record: tab(2, userID), Distance: 0.15},
			}, nil
		},
	}
	index := &fakeIndex{
		search: func(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
			return []storage.LexicalResult{
				{Id: 2, Score: -2.0},
				{Id: 3, Score: -1.0},
			}, nil
		},
	}
	searcher := newTestSearcher(t, tabs, index)

	hits, err := searcher.Search(context.Background(), "found by both methods", "user", 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, core.ID(2), hits[0].Record.Id, "candidate in both lists should rank first")
	assert.Positive(t, hits[0].VectorRank)
	assert.Positive(t, hits[0].LexicalRank)
}

func TestDistanceThresholdExcludesPoorMatches(t *testing.T) {
	tabs := &fakeTabs{
		findSimilar: func(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error) {
			assert.InDelta(t, 0.7, maxDistance, 1e-9)
			return []*core.VectorMatch{
				{Record: tab(1, userID), Distance: 0.69},
				{Record: tab(2, userID), Distance: 0.71},
			}, nil
		},
	}
	searcher := newTestSearcher(t, tabs, &fakeIndex{})

	hits, err := searcher.Search(context.Background(), "borderline semantic match", "user", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ID(1), hits[0].Record.Id, "candidate past the distance threshold must be excluded")
}

func TestShortAndURLQueriesAreLexicalOnly(t *testing.T) {
	for _, query := range []string{"go", "github.com/dgraph-io/badger", "https://example.com"} {
		tabs := &fakeTabs{}
		index := &fakeIndex{
			search: func(ctx context.Context, q, userID string, limit int) ([]storage.LexicalResult, error) {
				return []storage.LexicalResult{{Id: 7, Score: -1.0}}, nil
			},
		}
		searcher := newTestSearcher(t, tabs, index)

		hits, err := searcher.Search(context.Background(), query, "user", 10)
		require.NoError(t, err, "query %q", query)
		require.Len(t, hits, 1, "query %q", query)
		assert.False(t, tabs.findSimilarCalled, "query %q should not reach the vector search", query)
	}
}

func TestVectorFailureDegradesToLexical(t *testing.T) {
	tabs := &fakeTabs{
		findSimilar: func(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error) {
			return nil, errors.New("index unavailable")
		},
	}
	index := &fakeIndex{
		search: func(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
			return []storage.LexicalResult{{Id: 9, Score: -2.0}}, nil
		},
	}
	searcher := newTestSearcher(t, tabs, index)

	hits, err := searcher.Search(context.Background(), "resilient hybrid query", "user", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, core.ID(9), hits[0].Record.Id)
}

func TestBothFailuresFallBackToSubstring(t *testing.T) {
	now := time.Now().UTC()
	older := tab(1, "user")
	older.Title = "Rust ownership explained"
	older.InsertedAt = now.Add(-time.Hour)
	newer := tab(2, "user")
	newer.Summary = "Notes about rust async runtimes"
	newer.InsertedAt = now
	unrelated := tab(3, "user")
	unrelated.Title = "Sourdough starters"
	unrelated.InsertedAt = now

	tabs := &fakeTabs{
		findSimilar: func(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error) {
			return nil, errors.New("vector store down")
		},
		getRecordsByUser: func(ctx context.Context, userID string) ([]*core.TabRecord, error) {
			return []*core.TabRecord{older, newer, unrelated}, nil
		},
	}
	index := &fakeIndex{
		search: func(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
			return nil, errors.New("index corrupt")
		},
	}
	searcher := newTestSearcher(t, tabs, index)

	hits, err := searcher.Search(context.Background(), "rust", "user", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, core.ID(2), hits[0].Record.Id, "substring fallback orders most recent first")
	assert.Equal(t, core.ID(1), hits[1].Record.Id)
}

func TestSubstringFallbackRepositoryFailure(t *testing.T) {
	tabs := &fakeTabs{
		findSimilar: func(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error) {
			return nil, errors.New("down")
		},
		getRecordsByUser: func(ctx context.Context, userID string) ([]*core.TabRecord, error) {
			return nil, errors.New("also down")
		},
	}
	index := &fakeIndex{
		search: func(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
			return nil, errors.New("down too")
		},
	}
	searcher := newTestSearcher(t, tabs, index)

	_, err := searcher.Search(context.Background(), "nothing works", "user", 10)
	assert.ErrorIs(t, err, ErrAllSearchesFailed)
}

func TestSingleCandidateUsesWeightedScore(t *testing.T) {
	index := &fakeIndex{
		search: func(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
			return []storage.LexicalResult{{Id: 1, Score: -2.0}}, nil
		},
	}
	searcher := newTestSearcher(t, &fakeTabs{}, index)

	hits, err := searcher.Search(context.Background(), "lonely candidate", "user", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	// 0.5 * min(1, 2/(2+5))
	assert.InDelta(t, 0.5*2.0/7.0, hits[0].Score, 1e-9)
}

func TestSearchLimitTruncatesResults(t *testing.T) {
	index := &fakeIndex{
		search: func(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
			return []storage.LexicalResult{
				{Id: 1, Score: -5.0},
				{Id: 2, Score: -4.0},
				{Id: 3, Score: -3.0},
				{Id: 4, Score: -2.0},
			}, nil
		},
	}
	searcher := newTestSearcher(t, &fakeTabs{}, index)

	hits, err := searcher.Search(context.Background(), "plenty of matches", "user", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestLooksLikeURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com":   true,
		"http://example.com":    true,
		"www.example.com":       true,
		"github.com/poiesic":    true,
		"what is a monad":       false,
		"rust.lang borrow why":  false,
		"embedding cache paper": false,
	}
	for query, want := range cases {
		assert.Equal(t, want, looksLikeURL(query), "query %q", query)
	}
}
