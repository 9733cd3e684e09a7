// Package openai provides production implementations of the ai interfaces
// using OpenAI-compatible APIs via langchaingo.
//
// All constructors accept an *ai.Config and validate it before creating
// clients. The package works with any OpenAI-compatible endpoint (Ollama,
// LocalAI, vLLM, the OpenAI API itself). Authentication uses a placeholder
// token for local services that don't require one.
//
// Services:
//
//   - Embedder: text embeddings through the /embeddings endpoint, with
//     separate query and document paths for asymmetric embedding models
//   - Summarizer: page-content summarization through the chat endpoint
//   - Provider: aggregates both plus an HTTP content extractor (ai/fetch)
//
// Constructors return interface types; see the ai package documentation for
// the constructor return type pattern.
package openai
