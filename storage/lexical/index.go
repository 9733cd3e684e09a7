// Package lexical provides an in-memory BM25 keyword index over tab records.
//
// The index implements storage.LexicalIndex. Scores are returned using the
// lower-is-better convention shared with FTS-style indexes: the standard BM25
// score is negated, so the best match carries the most negative score.
package lexical

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/poiesic/tabstash/core"
	"github.com/poiesic/tabstash/storage"
)

const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

// document is the indexed form of a tab record.
type document struct {
	id     core.ID
	userID string
	terms  []string
	freq   map[string]int
}

// Index is an in-memory BM25 index over tab titles, summaries, and URLs.
// Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	docs    map[core.ID]*document
	docFreq map[string]int
	k1      float64
	b       float64
}

var _ storage.LexicalIndex = (*Index)(nil)

// NewIndex creates an empty index with standard BM25 parameters.
func NewIndex() *Index {
	return &Index{
		docs:    make(map[core.ID]*document),
		docFreq: make(map[string]int),
		k1:      defaultK1,
		b:       defaultB,
	}
}

// IndexTabRecords adds or replaces records in the index.
func (ix *Index) IndexTabRecords(records ...*core.TabRecord) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, record := range records {
		if record == nil || record.Id == 0 {
			continue
		}
		ix.removeLocked(record.Id)

		terms := tokenize(record.Title + " " + record.Summary + " " + record.URL)
		doc := &document{
			id:     record.Id,
			userID: record.UserID,
			terms:  terms,
			freq:   make(map[string]int, len(terms)),
		}
		for _, t := range terms {
			doc.freq[t]++
		}
		for t := range doc.freq {
			ix.docFreq[t]++
		}
		ix.docs[record.Id] = doc
	}
	return nil
}

// RemoveTabRecords removes records from the index by ID. Missing IDs are ignored.
func (ix *Index) RemoveTabRecords(ids ...core.ID) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, id := range ids {
		ix.removeLocked(id)
	}
	return nil
}

func (ix *Index) removeLocked(id core.ID) {
	doc, ok := ix.docs[id]
	if !ok {
		return
	}
	for t := range doc.freq {
		ix.docFreq[t]--
		if ix.docFreq[t] <= 0 {
			delete(ix.docFreq, t)
		}
	}
	delete(ix.docs, id)
}

// Search returns ranked results for the query within the user's scope.
// Returned scores are negated BM25 values (lower is better).
func (ix *Index) Search(ctx context.Context, query, userID string, limit int) ([]storage.LexicalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}
	queryFreq := make(map[string]int, len(queryTerms))
	for _, t := range queryTerms {
		queryFreq[t]++
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	numDocs := float64(len(ix.docs))
	if numDocs == 0 {
		return nil, nil
	}

	avgLen := 0.0
	for _, doc := range ix.docs {
		avgLen += float64(len(doc.terms))
	}
	avgLen /= numDocs

	var results []storage.LexicalResult
	for _, doc := range ix.docs {
		if doc.userID != userID {
			continue
		}
		score := ix.scoreDoc(doc, queryFreq, numDocs, avgLen)
		if score > 0 {
			results = append(results, storage.LexicalResult{Id: doc.id, Score: -score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score < results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scoreDoc calculates the BM25 score for a document against query terms.
func (ix *Index) scoreDoc(doc *document, queryFreq map[string]int, numDocs, avgLen float64) float64 {
	docLen := float64(len(doc.terms))
	score := 0.0

	for term, qf := range queryFreq {
		df := float64(ix.docFreq[term])
		if df == 0 {
			continue // term not in corpus
		}

		idf := math.Log(1.0 + (numDocs-df+0.5)/(df+0.5))
		tc := float64(doc.freq[term])
		denom := tc + ix.k1*(1.0-ix.b+ix.b*(docLen/avgLen))
		if denom == 0 {
			continue
		}
		tf := (tc * (ix.k1 + 1.0)) / denom
		score += idf * tf * float64(qf)
	}

	return score
}

// tokenize lowercases text and splits it on non-alphanumeric runes,
// so URLs break into their path components.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
