package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The task labels the intended use (query vs. passage) for APIs that
	// produce asymmetric embeddings.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string, task EmbeddingTask) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string, task EmbeddingTask) ([][]float32, error)
}

// Summarizer produces a short summary of page content.
// Implementations must be thread-safe for concurrent use.
type Summarizer interface {
	// Summarize returns a concise summary of the given content.
	// Returns an error if summary generation fails.
	Summarize(ctx context.Context, content string) (string, error)
}

// ContentExtractor fetches a URL and extracts its readable content.
// Implementations must be thread-safe for concurrent use.
type ContentExtractor interface {
	// Extract fetches the URL and returns its content as markdown text.
	// Returns an error on network failure or non-success responses.
	Extract(ctx context.Context, url string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder, Summarizer, and ContentExtractor
// instances, ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Summarizer returns the content summarization service.
	// The returned Summarizer is safe for concurrent use.
	Summarizer() Summarizer

	// ContentExtractor returns the URL content extraction service.
	// The returned ContentExtractor is safe for concurrent use.
	ContentExtractor() ContentExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
