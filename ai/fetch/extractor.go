// Package fetch provides URL content extraction over HTTP with
// HTML-to-Markdown conversion. It implements ai.ContentExtractor.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/poiesic/tabstash/ai"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "tabstash/1.0"

	// maxBodyBytes caps how much of a page is read; enough for any article,
	// guards against unbounded downloads.
	maxBodyBytes = 4 << 20
)

// Extractor fetches URLs and converts their HTML to markdown.
type Extractor struct {
	client *http.Client
	logger *slog.Logger
}

var _ ai.ContentExtractor = (*Extractor)(nil)

// NewExtractor creates an extractor with sensible defaults.
func NewExtractor() *Extractor {
	return &Extractor{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default().With("component", "fetch-extractor"),
	}
}

// Extract fetches the URL and returns its content as markdown text.
func (e *Extractor) Extract(ctx context.Context, urlStr string) (string, error) {
	// Parse URL to extract domain for relative link resolution
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	domain := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	// Convert HTML to markdown with domain for absolute URLs
	markdown, err := htmltomarkdown.ConvertString(
		string(body),
		converter.WithDomain(domain),
	)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	e.logger.Debug("extracted content", "url", urlStr, "bytes", len(markdown))
	return markdown, nil
}
