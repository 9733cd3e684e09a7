package importer

import (
	"context"

	"github.com/poiesic/tabstash/core"
)

// TabImporter persists a batch of new tabs, reporting per-tab outcomes.
// A returned error means the whole batch failed and may be retried; a nil
// error with individual failed results means those specific tabs were
// rejected permanently.
type TabImporter interface {
	ImportTabs(ctx context.Context, userID string, tabs []core.NewTab) ([]core.ImportResult, error)
}

// Enricher performs content extraction, embedding, and summarization for
// previously imported records. It returns the number of records within the
// batch that could not be enriched.
type Enricher interface {
	EnrichTabRecords(ctx context.Context, ids ...core.ID) (failed int, err error)
}

// ProgressObserver receives a Progress snapshot after every phase
// transition and every processed sub-batch. Panics inside the observer are
// caught and logged; they never disturb the job itself.
type ProgressObserver func(Progress)
