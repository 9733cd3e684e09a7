// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tabstash

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/tabstash/ai"
	"github.com/poiesic/tabstash/ai/openai"
	"github.com/poiesic/tabstash/core"
	"github.com/poiesic/tabstash/embedding"
	"github.com/poiesic/tabstash/enrich"
	"github.com/poiesic/tabstash/gateway"
	"github.com/poiesic/tabstash/importer"
	"github.com/poiesic/tabstash/search"
	"github.com/poiesic/tabstash/storage"
	"github.com/poiesic/tabstash/storage/badger"
	"github.com/poiesic/tabstash/storage/lexical"
)

// defaultCacheSize bounds the query embedding cache.
const defaultCacheSize = 1000

// Stash is the top-level handle: durable tab storage, the lexical index,
// the rate-limit gateway, the embedding client, hybrid search, and the bulk
// import queue, wired together.
type Stash struct {
	backend  *badger.Backend
	tabs     *badger.TabRepository
	index    *lexical.Index
	provider ai.AIProvider
	gw       *gateway.Gateway
	cache    *embedding.QueryCache
	client   *embedding.Client
	enricher *enrich.Enricher
	queue    *importer.Queue
	searcher *search.Searcher
	logger   *slog.Logger
}

// StashOption configures a Stash.
type StashOption func(*stashOptions)

type stashOptions struct {
	aiConfig      *ai.Config
	gatewayConfig gateway.Config
	queueConfig   importer.Config
	searchConfig  search.Config
	cacheSize     int
	provider      ai.AIProvider
	inMemory      bool
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) StashOption {
	return func(o *stashOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithGatewayConfig sets the per-service rate limits.
func WithGatewayConfig(cfg gateway.Config) StashOption {
	return func(o *stashOptions) { o.gatewayConfig = cfg }
}

// WithQueueConfig sets the import queue parameters.
func WithQueueConfig(cfg importer.Config) StashOption {
	return func(o *stashOptions) { o.queueConfig = cfg }
}

// WithSearchConfig sets the hybrid ranking parameters.
func WithSearchConfig(cfg search.Config) StashOption {
	return func(o *stashOptions) { o.searchConfig = cfg }
}

// WithCacheSize sets the query embedding cache capacity.
func WithCacheSize(size int) StashOption {
	return func(o *stashOptions) {
		if size > 0 {
			o.cacheSize = size
		}
	}
}

// WithProvider overrides the AI provider, e.g. with mocks for testing.
func WithProvider(provider ai.AIProvider) StashOption {
	return func(o *stashOptions) { o.provider = provider }
}

// WithInMemory opens the storage backend in memory, without persistence.
func WithInMemory() StashOption {
	return func(o *stashOptions) { o.inMemory = true }
}

// Open creates a Stash backed by the Badger database at filePath. The
// lexical index is in-memory and rebuilt from stored records on open.
func Open(filePath string, opts ...StashOption) (*Stash, error) {
	options := &stashOptions{
		aiConfig:      ai.DefaultConfig(),
		gatewayConfig: gateway.DefaultConfig(),
		queueConfig:   importer.DefaultConfig(),
		searchConfig:  search.DefaultConfig(),
		cacheSize:     defaultCacheSize,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	tabs, err := badger.NewTabRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			tabs.Close()
			backend.Close()
			return nil, err
		}
	}

	s := &Stash{
		backend:  backend,
		tabs:     tabs,
		index:    lexical.NewIndex(),
		provider: provider,
		gw:       gateway.New(options.gatewayConfig),
		cache:    embedding.NewQueryCache(options.cacheSize),
		logger:   slog.Default(),
	}
	s.client = embedding.NewClient(provider.Embedder(), s.gw, s.cache,
		embedding.WithDimensions(options.aiConfig.EmbeddingDimensions),
		embedding.WithMaxInputChars(options.aiConfig.MaxInputChars))

	if err := s.rebuildLexicalIndex(context.Background()); err != nil {
		s.Close()
		return nil, err
	}

	s.enricher, err = enrich.NewEnricher(tabs, s.index, provider, s.client, s.gw)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.queue, err = importer.NewQueue(&tabImporter{tabs: tabs}, s.enricher, options.queueConfig)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.searcher, err = search.NewSearcher(tabs, s.index, s.client,
		search.WithConfig(options.searchConfig))
	if err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// rebuildLexicalIndex loads every stored record into the in-memory index.
func (s *Stash) rebuildLexicalIndex(ctx context.Context) error {
	records, err := s.tabs.GetTabRecordsByDateRange(ctx,
		time.Unix(0, 0).UTC(), time.Now().UTC().Add(24*time.Hour))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	s.logger.Debug("rebuilding lexical index", "records", len(records))
	return s.index.IndexTabRecords(records...)
}

// Close releases every component. The Stash should not be used afterwards.
func (s *Stash) Close() error {
	if s.queue != nil {
		s.queue.Release()
	}
	if s.gw != nil {
		if err := s.gw.Close(); err != nil {
			s.logger.Error("error closing gateway", "err", err)
		}
	}
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.tabs.Close(); err != nil {
		s.logger.Error("error closing tab repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Import submits a bulk import job and returns its id. Progress snapshots
// go to the observer, which may be nil.
func (s *Stash) Import(userID string, tabs []core.NewTab, observer importer.ProgressObserver) (string, error) {
	return s.queue.Submit(userID, tabs, observer)
}

// ImportProgress returns the current snapshot for an import job.
func (s *Stash) ImportProgress(jobID string) (importer.Progress, error) {
	return s.queue.Progress(jobID)
}

// CancelImport cancels a not-yet-finished import job.
func (s *Stash) CancelImport(jobID string) error {
	return s.queue.Cancel(jobID)
}

// Search runs a hybrid query over the user's saved tabs.
func (s *Stash) Search(ctx context.Context, query, userID string, limit int, opts ...search.QueryOption) ([]*core.SearchHit, error) {
	return s.searcher.Search(ctx, query, userID, limit, opts...)
}

// Reembed recomputes the embedding vector of every stored record in
// batches, for example after switching embedding models. The progress
// callback, if non-nil, is invoked after each batch.
func (s *Stash) Reembed(ctx context.Context, batchSize int, progress func(done, total int)) error {
	if batchSize <= 0 {
		batchSize = 50
	}

	records, err := s.tabs.GetTabRecordsByDateRange(ctx,
		time.Unix(0, 0).UTC(), time.Now().UTC().Add(24*time.Hour))
	if err != nil {
		return err
	}

	for offset := 0; offset < len(records); offset += batchSize {
		end := offset + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[offset:end]

		texts := make([]string, len(batch))
		for i, record := range batch {
			texts[i] = record.Summary
			if texts[i] == "" {
				texts[i] = record.Title + "\n" + record.URL
			}
		}
		vectors := s.client.EmbedBatch(ctx, texts, ai.TaskRetrievalPassage)
		for i, record := range batch {
			record.Vector = vectors[i]
		}

		if _, err := s.tabs.UpdateTabRecords(ctx, batch...); err != nil {
			return err
		}
		if progress != nil {
			progress(end, len(records))
		}
	}
	return nil
}

// TabRepository exposes the underlying tab store.
func (s *Stash) TabRepository() storage.TabRepository {
	return s.tabs
}

// Gateway exposes the rate-limit gateway, e.g. for stats.
func (s *Stash) Gateway() *gateway.Gateway {
	return s.gw
}

// CacheStats reports query-cache hit/miss counters.
func (s *Stash) CacheStats() embedding.CacheStats {
	return s.cache.Stats()
}

// tabImporter persists new tabs through the repository, validating each
// one. A storage-level error fails the whole batch (retryable upstream);
// invalid tabs fail individually.
type tabImporter struct {
	tabs storage.TabRepository
}

func (ti *tabImporter) ImportTabs(ctx context.Context, userID string, newTabs []core.NewTab) ([]core.ImportResult, error) {
	results := make([]core.ImportResult, len(newTabs))
	records := make([]*core.TabRecord, 0, len(newTabs))
	positions := make([]int, 0, len(newTabs))

	for i := range newTabs {
		if err := core.ValidateNewTab(&newTabs[i]); err != nil {
			results[i] = core.ImportResult{Err: err.Error()}
			continue
		}
		records = append(records, &core.TabRecord{
			UserID:   userID,
			URL:      newTabs[i].URL,
			Title:    newTabs[i].Title,
			Metadata: newTabs[i].Metadata,
		})
		positions = append(positions, i)
	}

	if len(records) > 0 {
		added, err := ti.tabs.AddTabRecords(ctx, records...)
		if err != nil {
			return nil, err
		}
		for k, record := range added {
			results[positions[k]] = core.ImportResult{Id: record.Id}
		}
	}

	return results, nil
}
