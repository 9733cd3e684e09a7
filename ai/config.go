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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// SummarizerHost is the base URL for the summarization service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	SummarizerHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// SummarizerModel is the model identifier to use for summarization.
	// Example: "qwen2.5:3b", "gpt-4o-mini"
	SummarizerModel string

	// EmbeddingDimensions is the dimension of the vectors produced by the
	// embedding model. Used to size deterministic fallback vectors.
	// Default: 384
	EmbeddingDimensions int

	// MaxInputChars is the maximum input length sent to the embedding API.
	// Longer texts are truncated before the call.
	// Default: 8000
	MaxInputChars int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithSummarizerHost sets the summarizer service host URL.
func WithSummarizerHost(host string) ConfigOption {
	return func(c *Config) {
		c.SummarizerHost = host
	}
}

// WithHost sets both embedding and summarizer hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.SummarizerHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithSummarizerModel sets the summarizer model identifier.
func WithSummarizerModel(model string) ConfigOption {
	return func(c *Config) {
		c.SummarizerModel = model
	}
}

// WithEmbeddingDimensions sets the embedding vector dimension.
func WithEmbeddingDimensions(dim int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingDimensions = dim
	}
}

// WithMaxInputChars sets the embedding input truncation limit.
func WithMaxInputChars(n int) ConfigOption {
	return func(c *Config) {
		c.MaxInputChars = n
	}
}

// DefaultConfig returns a Config with sensible defaults for local OpenAI-compatible services.
// By default, both embedding and summarizer use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		EmbeddingHost:       defaultHost,
		SummarizerHost:      defaultHost,
		EmbeddingModel:      "embeddinggemma",
		SummarizerModel:     "qwen2.5:3b",
		EmbeddingDimensions: 384,
		MaxInputChars:       8000,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
// This is the recommended way to create a Config with custom settings.
//
// Example:
//   cfg := NewConfig(
//       WithHost("http://localhost:11434/v1"),
//       WithEmbeddingModel("text-embedding-3-small"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	// Ensure EmbeddingHost ends with /v1 for OpenAI-compatible APIs
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
	// Ensure SummarizerHost ends with /v1 for OpenAI-compatible APIs
	if c.SummarizerHost != "" && !strings.HasSuffix(c.SummarizerHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.SummarizerHost = strings.TrimSuffix(c.SummarizerHost, "/")
		c.SummarizerHost = c.SummarizerHost + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.SummarizerHost == "" {
		return errors.New("ai config: SummarizerHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.SummarizerModel == "" {
		return errors.New("ai config: SummarizerModel is required")
	}
	if c.EmbeddingDimensions <= 0 {
		return errors.New("ai config: EmbeddingDimensions must be positive")
	}
	if c.MaxInputChars <= 0 {
		return errors.New("ai config: MaxInputChars must be positive")
	}
	return nil
}
