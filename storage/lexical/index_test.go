package lexical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/tabstash/core"
)

func TestIndexSearchBasics(t *testing.T) {
	ix := NewIndex()

	err := ix.IndexTabRecords(
		&core.TabRecord{Id: 1, UserID: "u1", Title: "Go concurrency patterns", URL: "https://go.dev/blog/pipelines"},
		&core.TabRecord{Id: 2, UserID: "u1", Title: "Cooking pasta at home", URL: "https://example.com/pasta"},
		&core.TabRecord{Id: 3, UserID: "u1", Title: "Rust async patterns", URL: "https://example.com/rust"},
	)
	require.NoError(t, err)

	results, err := ix.Search(context.Background(), "go concurrency", "u1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, core.ID(1), results[0].Id)
	// Lower-is-better convention: negated BM25
	assert.Less(t, results[0].Score, 0.0)
}

func TestIndexSearchUserScoped(t *testing.T) {
	ix := NewIndex()

	err := ix.IndexTabRecords(
		&core.TabRecord{Id: 1, UserID: "alice", Title: "shared topic"},
		&core.TabRecord{Id: 2, UserID: "bob", Title: "shared topic"},
	)
	require.NoError(t, err)

	results, err := ix.Search(context.Background(), "shared topic", "alice", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].Id)
}

func TestIndexSearchOrdering(t *testing.T) {
	ix := NewIndex()

	err := ix.IndexTabRecords(
		&core.TabRecord{Id: 1, UserID: "u1", Title: "kubernetes deployment guide", Summary: "kubernetes kubernetes"},
		&core.TabRecord{Id: 2, UserID: "u1", Title: "a note that mentions kubernetes once among many other words here"},
	)
	require.NoError(t, err)

	results, err := ix.Search(context.Background(), "kubernetes", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Best match first, and scores ascending (more negative is better)
	assert.Equal(t, core.ID(1), results[0].Id)
	assert.LessOrEqual(t, results[0].Score, results[1].Score)
}

func TestIndexRemove(t *testing.T) {
	ix := NewIndex()

	err := ix.IndexTabRecords(
		&core.TabRecord{Id: 1, UserID: "u1", Title: "golang tutorial"},
	)
	require.NoError(t, err)

	require.NoError(t, ix.RemoveTabRecords(1))
	require.NoError(t, ix.RemoveTabRecords(1)) // missing IDs ignored

	results, err := ix.Search(context.Background(), "golang", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndexReindexReplaces(t *testing.T) {
	ix := NewIndex()

	require.NoError(t, ix.IndexTabRecords(&core.TabRecord{Id: 1, UserID: "u1", Title: "old title"}))
	require.NoError(t, ix.IndexTabRecords(&core.TabRecord{Id: 1, UserID: "u1", Title: "new title"}))

	results, err := ix.Search(context.Background(), "old", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = ix.Search(context.Background(), "new", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].Id)
}

func TestIndexSearchURLTokens(t *testing.T) {
	ix := NewIndex()

	require.NoError(t, ix.IndexTabRecords(
		&core.TabRecord{Id: 1, UserID: "u1", URL: "https://github.com/dgraph-io/badger"},
	))

	results, err := ix.Search(context.Background(), "badger", "u1", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ID(1), results[0].Id)
}

func TestIndexSearchEmptyQuery(t *testing.T) {
	ix := NewIndex()
	require.NoError(t, ix.IndexTabRecords(&core.TabRecord{Id: 1, UserID: "u1", Title: "anything"}))

	results, err := ix.Search(context.Background(), "   ", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}
