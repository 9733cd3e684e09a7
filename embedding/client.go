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

package embedding

import (
	"context"
	"log/slog"

	"github.com/poiesic/tabstash/ai"
	"github.com/poiesic/tabstash/gateway"
)

const (
	// QueryPriority ranks interactive query embeddings ahead of bulk work.
	QueryPriority = 10
	// PassagePriority is used for background document embedding.
	PassagePriority = 1
)

// Client produces embeddings with caching, rate limiting, and graceful
// degradation. Embed and EmbedBatch never return an error: when the upstream
// API fails, a deterministic hash-derived fallback vector stands in so
// callers always get a usable result.
type Client struct {
	embedder   ai.Embedder
	gw         *gateway.Gateway
	cache      *QueryCache
	dimensions int
	maxInput   int
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDimensions sets the fallback vector dimensionality.
func WithDimensions(dim int) ClientOption {
	return func(c *Client) {
		c.dimensions = dim
	}
}

// WithMaxInputChars sets the input truncation limit.
func WithMaxInputChars(n int) ClientOption {
	return func(c *Client) {
		c.maxInput = n
	}
}

// NewClient creates an embedding client. The gateway throttles every
// upstream call; the cache (may be nil) short-circuits repeated query
// embeddings.
func NewClient(embedder ai.Embedder, gw *gateway.Gateway, cache *QueryCache, opts ...ClientOption) *Client {
	c := &Client{
		embedder:   embedder,
		gw:         gw,
		cache:      cache,
		dimensions: 384,
		maxInput:   8000,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns an embedding for the text. Query-task results are served
// from and stored into the cache. On upstream failure a deterministic
// fallback vector is returned instead of an error, so degraded operation
// stays stable: the same text always maps to the same fallback.
func (c *Client) Embed(ctx context.Context, text string, task ai.EmbeddingTask) []float32 {
	if c.cache != nil && task.IsQuery() {
		if vector, ok := c.cache.Get(text, task); ok {
			return vector
		}
	}

	input := c.truncate(text)

	var vector []float32
	err := c.gw.Do(ctx, gateway.ServiceEmbeddings, priorityFor(task), func(ctx context.Context) error {
		v, err := c.embedder.EmbedText(ctx, input, task)
		if err != nil {
			return err
		}
		vector = NormalizeVector(v)
		return nil
	})
	if err != nil || len(vector) == 0 {
		c.logger.Warn("embedding failed, using deterministic fallback",
			"task", string(task),
			"text_length", len(text),
			"error", err)
		vector = FallbackVector(input, c.dimensions)
	}

	// Fallback vectors are cached too: repeating the query during an outage
	// must stay consistent.
	if c.cache != nil && task.IsQuery() {
		c.cache.Set(text, task, vector)
	}
	return vector
}

// EmbedBatch embeds multiple texts in one upstream call. Like Embed it never
// fails: if the batch call errors, every text gets its deterministic
// fallback vector. The result always has one vector per input text.
func (c *Client) EmbedBatch(ctx context.Context, texts []string, task ai.EmbeddingTask) [][]float32 {
	if len(texts) == 0 {
		return nil
	}

	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = c.truncate(text)
	}

	var vectors [][]float32
	err := c.gw.Do(ctx, gateway.ServiceEmbeddings, priorityFor(task), func(ctx context.Context) error {
		vs, err := c.embedder.EmbedTexts(ctx, inputs, task)
		if err != nil {
			return err
		}
		vectors = vs
		return nil
	})
	if err != nil || len(vectors) != len(texts) {
		c.logger.Warn("batch embedding failed, using deterministic fallbacks",
			"task", string(task),
			"count", len(texts),
			"error", err)
		vectors = make([][]float32, len(texts))
		for i, input := range inputs {
			vectors[i] = FallbackVector(input, c.dimensions)
		}
		return vectors
	}

	for i, v := range vectors {
		vectors[i] = NormalizeVector(v)
	}
	return vectors
}

func (c *Client) truncate(text string) string {
	if c.maxInput > 0 && len(text) > c.maxInput {
		return text[:c.maxInput]
	}
	return text
}

func priorityFor(task ai.EmbeddingTask) int {
	if task.IsQuery() {
		return QueryPriority
	}
	return PassagePriority
}
