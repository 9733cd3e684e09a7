package enrich

import "errors"

var (
	// ErrTabRepositoryRequired is returned when a tab repository is not provided.
	ErrTabRepositoryRequired = errors.New("tab repository required")

	// ErrLexicalIndexRequired is returned when a lexical index is not provided.
	ErrLexicalIndexRequired = errors.New("lexical index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmbeddingClientRequired is returned when an embedding client is not provided.
	ErrEmbeddingClientRequired = errors.New("embedding client required")

	// ErrGatewayRequired is returned when a rate-limit gateway is not provided.
	ErrGatewayRequired = errors.New("gateway required")
)
