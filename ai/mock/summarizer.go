package mock

import (
	"context"
	"strings"
)

// MockSummarizer is a test double for ai.Summarizer.
// It allows custom behavior injection via function fields.
type MockSummarizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, uses default truncation behavior.
	SummarizeFunc func(ctx context.Context, content string) (string, error)

	callCount int
}

// NewMockSummarizer creates a mock summarizer with default behavior.
// Note: Returns concrete type to allow test assertions via function fields.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize returns a mock summary of the content.
// Default behavior: returns the first sentence, truncated to 120 characters.
func (m *MockSummarizer) Summarize(ctx context.Context, content string) (string, error) {
	m.callCount++

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, content)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil
	}

	if idx := strings.IndexAny(content, ".!?"); idx >= 0 {
		content = content[:idx+1]
	}
	if len(content) > 120 {
		content = content[:120]
	}
	return content, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSummarizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSummarizer) Reset() {
	m.callCount = 0
	m.SummarizeFunc = nil
}
