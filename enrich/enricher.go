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

package enrich

import (
	"context"
	"log/slog"

	"github.com/poiesic/tabstash/ai"
	"github.com/poiesic/tabstash/core"
	"github.com/poiesic/tabstash/embedding"
	"github.com/poiesic/tabstash/gateway"
	"github.com/poiesic/tabstash/storage"
)

const (
	// Background enrichment always yields to interactive traffic.
	extractionPriority = 1
	summaryPriority    = 1
)

// Enricher fills in the summary and embedding vector of imported tab
// records: fetch and extract page content, summarize it, embed it as a
// passage, then persist and re-index. Every external call goes through the
// rate-limit gateway.
type Enricher struct {
	tabs       storage.TabRepository
	lexical    storage.LexicalIndex
	extractor  ai.ContentExtractor
	summarizer ai.Summarizer
	embedder   *embedding.Client
	gw         *gateway.Gateway
	logger     *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an enricher.
func NewEnricher(
	tabs storage.TabRepository,
	lexical storage.LexicalIndex,
	provider ai.AIProvider,
	embedder *embedding.Client,
	gw *gateway.Gateway,
	opts ...Option,
) (*Enricher, error) {
	if tabs == nil {
		return nil, ErrTabRepositoryRequired
	}
	if lexical == nil {
		return nil, ErrLexicalIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if embedder == nil {
		return nil, ErrEmbeddingClientRequired
	}
	if gw == nil {
		return nil, ErrGatewayRequired
	}

	e := &Enricher{
		tabs:       tabs,
		lexical:    lexical,
		extractor:  provider.ContentExtractor(),
		summarizer: provider.Summarizer(),
		embedder:   embedder,
		gw:         gw,
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// EnrichTabRecords enriches the given records and returns how many of them
// had at least one enrichment step fail. Partial enrichment is persisted:
// a record whose summary failed still gets its vector, and vice versa.
// Records deleted since import are counted as failed.
func (e *Enricher) EnrichTabRecords(ctx context.Context, ids ...core.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	records, err := e.tabs.GetTabRecords(ctx, ids...)
	if err != nil {
		e.logger.Error("error retrieving tab records for enrichment", "err", err)
		return 0, err
	}
	failed := len(ids) - len(records)

	texts := make([]string, len(records))
	for i, record := range records {
		content, summary, recordFailed := e.enrichContent(ctx, record)
		if recordFailed {
			failed++
		}
		record.Summary = summary
		// The passage text is the best content we have for this record
		texts[i] = content
		if texts[i] == "" {
			texts[i] = record.Title + "\n" + record.URL
		}
	}

	// EmbedBatch never fails; unreachable providers yield deterministic
	// fallback vectors
	vectors := e.embedder.EmbedBatch(ctx, texts, ai.TaskRetrievalPassage)
	for i, record := range records {
		record.Vector = vectors[i]
	}

	if len(records) > 0 {
		if _, err := e.tabs.UpdateTabRecords(ctx, records...); err != nil {
			e.logger.Error("error persisting enriched records", "err", err)
			return 0, err
		}
		if err := e.lexical.IndexTabRecords(records...); err != nil {
			e.logger.Warn("error re-indexing enriched records", "err", err)
		}
	}

	return failed, nil
}

// enrichContent extracts and summarizes one record's page. Returns the
// extracted content, the summary, and whether any step failed.
func (e *Enricher) enrichContent(ctx context.Context, record *core.TabRecord) (content, summary string, failed bool) {
	err := e.gw.Do(ctx, gateway.ServiceExtraction, extractionPriority, func(ctx context.Context) error {
		extracted, err := e.extractor.Extract(ctx, record.URL)
		if err != nil {
			return err
		}
		content = extracted
		return nil
	})
	if err != nil {
		e.logger.Warn("content extraction failed", "id", record.Id, "url", record.URL, "err", err)
		return "", "", true
	}
	if content == "" {
		return "", "", false
	}

	err = e.gw.Do(ctx, gateway.ServiceGenerative, summaryPriority, func(ctx context.Context) error {
		s, err := e.summarizer.Summarize(ctx, content)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		e.logger.Warn("summarization failed", "id", record.Id, "url", record.URL, "err", err)
		return content, "", true
	}

	return content, summary, false
}
