package storage

import (
	"context"
	"time"

	"github.com/poiesic/tabstash/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// FindSimilar finds tab records similar to the given vector within a user's scope.
	// Returns records with cosine distance <= maxDistance, up to limit results.
	// Results are ordered by distance (closest first).
	FindSimilar(ctx context.Context, userID string, vector []float32, maxDistance float64, limit int) ([]*core.VectorMatch, error)

	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// TabRepository provides operations for managing tab records.
type TabRepository interface {
	Repository
	// AddTabRecords adds one or more tab records to storage.
	// For records with ID=0, generates new IDs from sequence.
	// Sets InsertedAt timestamp if not already set.
	// Returns the records with generated IDs and timestamps populated.
	AddTabRecords(ctx context.Context, records ...*core.TabRecord) ([]*core.TabRecord, error)

	// UpdateTabRecords updates existing tab records.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any record doesn't exist.
	UpdateTabRecords(ctx context.Context, records ...*core.TabRecord) ([]*core.TabRecord, error)

	// DeleteTabRecords removes tab records by their IDs.
	// Also removes associated indices.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteTabRecords(ctx context.Context, ids ...core.ID) error

	// GetTabRecord retrieves a single tab record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetTabRecord(ctx context.Context, id core.ID) (*core.TabRecord, error)

	// GetTabRecords retrieves multiple tab records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetTabRecords(ctx context.Context, ids ...core.ID) ([]*core.TabRecord, error)

	// GetTabRecordsByUser retrieves all tab records owned by a user,
	// ordered by insertion time ascending.
	GetTabRecordsByUser(ctx context.Context, userID string) ([]*core.TabRecord, error)

	// GetTabRecordsByDateRange retrieves tab records within a time range.
	// Returns records where start <= InsertedAt < end, ordered by insertion time.
	GetTabRecordsByDateRange(ctx context.Context, start, end time.Time) ([]*core.TabRecord, error)
}

// LexicalResult is a single row returned by a lexical index search.
// Score follows the underlying index convention: lower is better.
type LexicalResult struct {
	Id    core.ID
	Score float64
}

// LexicalIndex provides BM25-style keyword search over tab records,
// scoped per user. Implementations must be thread-safe.
type LexicalIndex interface {
	// IndexTabRecords adds or replaces records in the index.
	IndexTabRecords(records ...*core.TabRecord) error

	// RemoveTabRecords removes records from the index by ID.
	// Missing IDs are ignored.
	RemoveTabRecords(ids ...core.ID) error

	// Search returns ranked results for the query within the user's scope.
	// Score convention: lower is better (preserved from the underlying index).
	Search(ctx context.Context, query, userID string, limit int) ([]LexicalResult, error)
}
