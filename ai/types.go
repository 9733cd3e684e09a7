package ai

// EmbeddingTask labels the intended use of an embedding, following the
// task-type convention of OpenAI-compatible embedding APIs.
type EmbeddingTask string

const (
	// TaskRetrievalQuery marks a live search string typed by a user.
	TaskRetrievalQuery EmbeddingTask = "retrieval.query"

	// TaskRetrievalPassage marks stored content embedded once at import time.
	TaskRetrievalPassage EmbeddingTask = "retrieval.passage"

	// TaskTextMatching marks symmetric text-to-text similarity.
	TaskTextMatching EmbeddingTask = "text-matching"
)

// IsQuery reports whether the task represents a repeated, user-driven lookup.
// Query-type embeddings are worth caching; passage embeddings are computed
// once per record and never looked up again by identical text.
func (t EmbeddingTask) IsQuery() bool {
	return t == TaskRetrievalQuery || t == TaskTextMatching
}
