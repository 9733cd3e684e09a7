package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// TabRecord represents a single saved browser tab.
// It may be enriched with a summary and an embedding vector after import.
type TabRecord struct {
	Id         ID
	UserID     string
	URL        string
	Title      string
	Summary    string            // Extracted-content summary (populated during enrichment)
	Vector     []float32         // Embedding vector for semantic search (populated during enrichment)
	InsertedAt time.Time         // When the record was imported
	UpdatedAt  time.Time         // When the record was last updated
	Metadata   map[string]string // Optional metadata (e.g., "source", "window")
}

// NewTab is the input for importing a single tab.
type NewTab struct {
	URL      string
	Title    string
	Metadata map[string]string
}

// ImportResult reports the outcome of importing one tab.
// Err is empty on success.
type ImportResult struct {
	Id  ID
	Err string
}

// Failed reports whether the import of this tab failed.
func (r ImportResult) Failed() bool {
	return r.Err != ""
}

// VectorMatch represents a tab record match from vector similarity search.
// Distance is the cosine distance to the query vector (lower is closer).
type VectorMatch struct {
	Record   *TabRecord
	Distance float64
}

// SearchHit is a single result from a hybrid search.
// Raw scores and ranks are retained from each sub-search that found the
// record; a rank of 0 means the record was not found by that method.
type SearchHit struct {
	Record         *TabRecord
	Score          float64 // Fused relevance score, higher is better
	VectorDistance float64 // Cosine distance (valid when VectorRank > 0)
	LexicalScore   float64 // Raw BM25-convention score (valid when LexicalRank > 0)
	VectorRank     int     // 1-based rank in the vector result list
	LexicalRank    int     // 1-based rank in the lexical result list
}

// BestRank returns the best (lowest) individual rank across sub-searches.
// Used as a tie-breaker when fused scores are equal.
func (h *SearchHit) BestRank() int {
	best := h.VectorRank
	if best == 0 || (h.LexicalRank > 0 && h.LexicalRank < best) {
		best = h.LexicalRank
	}
	return best
}
