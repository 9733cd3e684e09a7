package mock

import (
	"context"
	"fmt"
)

// MockContentExtractor is a test double for ai.ContentExtractor.
// It allows custom behavior injection via function fields.
type MockContentExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, returns deterministic placeholder content.
	ExtractFunc func(ctx context.Context, url string) (string, error)

	callCount int
}

// NewMockContentExtractor creates a mock content extractor with default behavior.
// Note: Returns concrete type to allow test assertions via function fields.
func NewMockContentExtractor() *MockContentExtractor {
	return &MockContentExtractor{}
}

// Extract returns mock page content for the URL.
// Default behavior: deterministic placeholder content derived from the URL.
func (m *MockContentExtractor) Extract(ctx context.Context, url string) (string, error) {
	m.callCount++

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, url)
	}

	return fmt.Sprintf("# Mock page\n\nContent fetched from %s for testing.", url), nil
}

// CallCount returns the number of times Extract was called.
func (m *MockContentExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockContentExtractor) Reset() {
	m.callCount = 0
	m.ExtractFunc = nil
}
