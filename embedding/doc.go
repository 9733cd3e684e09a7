// Package embedding layers caching and graceful degradation over the raw
// embedder from the ai package.
//
// Client is the entry point: it checks the query cache, routes the upstream
// call through the rate-limit gateway with a task-appropriate priority, and
// on any failure substitutes a deterministic hash-derived fallback vector so
// search keeps working during provider outages. Embed never returns an
// error.
//
// QueryCache is a bounded LRU keyed on normalized query text plus task.
// Only query-task embeddings are cached; passage embeddings are one-shot
// bulk work and would only churn the table.
package embedding
