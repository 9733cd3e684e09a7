package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/tabstash/ai"
	"github.com/poiesic/tabstash/core"
	"github.com/poiesic/tabstash/embedding"
	"github.com/poiesic/tabstash/storage"
)

// Config holds the tunable parameters of the hybrid ranking.
type Config struct {
	// RRFConstant is the k in the reciprocal-rank-fusion formula 1/(k+rank).
	// Small values amplify the gap between the top ranks.
	RRFConstant int

	// DistanceThreshold excludes vector candidates whose cosine distance
	// exceeds it. A poor semantic match is worse than no semantic signal.
	DistanceThreshold float64

	// LexicalWeight and VectorWeight apply only to the legacy weighted
	// combination used when fusion is degenerate.
	LexicalWeight float64
	VectorWeight  float64

	// MaxCandidates caps the fan-out of each sub-search.
	MaxCandidates int
}

// DefaultConfig returns the standard ranking parameters.
func DefaultConfig() Config {
	return Config{
		RRFConstant:       20,
		DistanceThreshold: 0.7,
		LexicalWeight:     0.5,
		VectorWeight:      0.5,
		MaxCandidates:     30,
	}
}

// Searcher provides hybrid semantic and lexical search over tab records.
type Searcher struct {
	tabs     storage.TabRepository
	lexical  storage.LexicalIndex
	embedder *embedding.Client
	cfg      Config
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig overrides the default ranking parameters.
func WithConfig(cfg Config) Option {
	return func(s *Searcher) error {
		s.cfg = cfg
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	tabs storage.TabRepository,
	lexical storage.LexicalIndex,
	embedder *embedding.Client,
	opts ...Option,
) (*Searcher, error) {
	if tabs == nil {
		return nil, ErrTabRepositoryRequired
	}
	if lexical == nil {
		return nil, ErrLexicalIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbeddingClientRequired
	}

	s := &Searcher{
		tabs:     tabs,
		lexical:  lexical,
		embedder: embedder,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// QueryOption adjusts a single Search call.
type QueryOption func(*querySettings)

type querySettings struct {
	monitor       SearchMonitor
	lexicalWeight float64
	vectorWeight  float64
}

// WithMonitor attaches a SearchMonitor to one query.
func WithMonitor(monitor SearchMonitor) QueryOption {
	return func(q *querySettings) {
		if monitor != nil {
			q.monitor = monitor
		}
	}
}

// WithWeights overrides the legacy-combination weights for one query.
func WithWeights(lexical, vector float64) QueryOption {
	return func(q *querySettings) {
		q.lexicalWeight = lexical
		q.vectorWeight = vector
	}
}

// Search runs the vector and lexical sub-searches concurrently, fuses the
// ranked lists with reciprocal rank fusion, and returns up to limit hits
// ordered by fused score.
//
// Either sub-search failing degrades to the other; if both are unavailable
// the query falls back to a substring scan of the user's records. Queries
// under three runes or shaped like URLs skip the vector sub-search. An
// empty query returns an empty result set.
func (s *Searcher) Search(ctx context.Context, query, userID string, limit int, opts ...QueryOption) ([]*core.SearchHit, error) {
	settings := querySettings{
		monitor:       &noopMonitor{},
		lexicalWeight: s.cfg.LexicalWeight,
		vectorWeight:  s.cfg.VectorWeight,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	monitor := settings.monitor

	trimmed := strings.TrimSpace(query)
	if trimmed == "" || limit <= 0 {
		return []*core.SearchHit{}, nil
	}

	monitor.Start(trimmed)

	lexicalOnly, reason := isLexicalOnly(trimmed)
	if lexicalOnly {
		monitor.LexicalOnly(reason)
	}

	candidates := limit * 3 / 2
	if candidates > s.cfg.MaxCandidates {
		candidates = s.cfg.MaxCandidates
	}
	if candidates < limit {
		candidates = limit
	}

	var (
		matches []*core.VectorMatch
		vecErr  error
		rows    []storage.LexicalResult
		lexErr  error
	)

	var group errgroup.Group
	if !lexicalOnly {
		group.Go(func() error {
			vector := s.embedder.Embed(ctx, trimmed, ai.TaskRetrievalQuery)
			matches, vecErr = s.tabs.FindSimilar(ctx, userID, vector, s.cfg.DistanceThreshold, candidates)
			if vecErr != nil {
				s.logger.Warn("vector sub-search failed", "query", trimmed, "err", vecErr)
			}
			monitor.AfterVectorSearch(matches, vecErr)
			return nil
		})
	}
	group.Go(func() error {
		rows, lexErr = s.lexical.Search(ctx, trimmed, userID, candidates)
		if lexErr != nil {
			s.logger.Warn("lexical sub-search failed", "query", trimmed, "err", lexErr)
		}
		ids := make([]core.ID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.Id)
		}
		monitor.AfterLexicalSearch(ids, lexErr)
		return nil
	})
	group.Wait()

	vectorUnavailable := lexicalOnly || vecErr != nil
	if vectorUnavailable && lexErr != nil {
		monitor.SubstringFallback()
		hits, err := s.substringFallback(ctx, trimmed, userID, limit)
		if err != nil {
			return nil, err
		}
		monitor.Finish(hits)
		return hits, nil
	}
	if vecErr != nil {
		matches = nil
	}
	if lexErr != nil {
		rows = nil
	}

	hits, err := s.fuse(ctx, matches, rows, settings)
	if err != nil {
		return nil, err
	}

	if len(hits) > limit {
		hits = hits[:limit]
	}
	monitor.Finish(hits)
	return hits, nil
}

// fuse combines the two ranked lists into scored hits.
func (s *Searcher) fuse(ctx context.Context, matches []*core.VectorMatch, rows []storage.LexicalResult, settings querySettings) ([]*core.SearchHit, error) {
	merged := make(map[core.ID]*core.SearchHit, len(matches)+len(rows))

	// The repository filters by maxDistance too, but the threshold is a
	// ranking-layer rule so it is enforced here regardless of backend.
	rank := 0
	for _, match := range matches {
		if match.Distance > s.cfg.DistanceThreshold {
			continue
		}
		rank++
		merged[match.Record.Id] = &core.SearchHit{
			Record:         match.Record,
			VectorDistance: match.Distance,
			VectorRank:     rank,
		}
	}
	for i, row := range rows {
		hit, ok := merged[row.Id]
		if !ok {
			hit = &core.SearchHit{}
			merged[row.Id] = hit
		}
		hit.LexicalScore = row.Score
		hit.LexicalRank = i + 1
	}

	// Lexical-only candidates carry just an id; load their records
	missing := make([]core.ID, 0)
	for id, hit := range merged {
		if hit.Record == nil {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		records, err := s.tabs.GetTabRecords(ctx, missing...)
		if err != nil {
			return nil, fmt.Errorf("retrieving lexical candidates: %w", err)
		}
		for _, record := range records {
			if hit, ok := merged[record.Id]; ok {
				hit.Record = record
			}
		}
		// Records deleted since indexing are dropped
		for id, hit := range merged {
			if hit.Record == nil {
				delete(merged, id)
			}
		}
	}

	useRRF := len(merged) > 1
	k := float64(s.cfg.RRFConstant)

	hits := make([]*core.SearchHit, 0, len(merged))
	for _, hit := range merged {
		if useRRF {
			if hit.VectorRank > 0 {
				hit.Score += 1 / (k + float64(hit.VectorRank))
			}
			if hit.LexicalRank > 0 {
				hit.Score += 1 / (k + float64(hit.LexicalRank))
			}
		} else {
			hit.Score = legacyScore(hit, settings)
		}
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		ri, rj := hits[i].BestRank(), hits[j].BestRank()
		if ri != rj {
			return ri < rj
		}
		return hits[i].Record.Id < hits[j].Record.Id
	})
	return hits, nil
}

// legacyScore is the weighted combination used when fusion is degenerate.
// The lexical score arrives in the index's lower-is-better convention, so
// its magnitude is what carries the relevance signal.
func legacyScore(hit *core.SearchHit, settings querySettings) float64 {
	var score float64
	if hit.LexicalRank > 0 {
		raw := math.Abs(hit.LexicalScore)
		score += settings.lexicalWeight * math.Min(1, raw/(raw+5))
	}
	if hit.VectorRank > 0 {
		score += settings.vectorWeight * math.Max(0, 1-hit.VectorDistance)
	}
	return score
}

// substringFallback is the last resort when both ranked sub-searches fail:
// a case-insensitive substring scan over the user's titles, summaries, and
// URLs, most recent first.
func (s *Searcher) substringFallback(ctx context.Context, query, userID string, limit int) ([]*core.SearchHit, error) {
	records, err := s.tabs.GetTabRecordsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllSearchesFailed, err)
	}

	hits := make([]*core.SearchHit, 0)
	for _, record := range records {
		if matchesSubstring(record.Title, record.Summary, record.URL, query) {
			hits = append(hits, &core.SearchHit{Record: record, Score: 1})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Record.InsertedAt.After(hits[j].Record.InsertedAt)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
