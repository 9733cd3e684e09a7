package search

import (
	"strings"
	"unicode/utf8"
)

// minSemanticRunes is the shortest query worth embedding. Anything shorter
// is treated as a keyword lookup.
const minSemanticRunes = 3

// isLexicalOnly reports whether the query should skip the vector sub-search,
// with a short reason for monitoring. Ultra-short and URL-shaped queries
// embed poorly.
func isLexicalOnly(query string) (bool, string) {
	if utf8.RuneCountInString(query) < minSemanticRunes {
		return true, "query too short"
	}
	if looksLikeURL(query) {
		return true, "url-shaped query"
	}
	return false, ""
}

// looksLikeURL detects queries that are URLs or URL fragments rather than
// natural language.
func looksLikeURL(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if strings.HasPrefix(q, "http://") || strings.HasPrefix(q, "https://") || strings.HasPrefix(q, "www.") {
		return true
	}
	// A single token containing a dot followed by a path separator reads as
	// a host/path fragment, e.g. "github.com/poiesic"
	if !strings.ContainsAny(q, " \t") && strings.Contains(q, ".") && strings.Contains(q, "/") {
		return true
	}
	return false
}

// matchesSubstring reports whether the query appears, case-insensitively, in
// the record's title, summary, or URL. Used by the last-resort fallback when
// both ranked sub-searches are unavailable.
func matchesSubstring(title, summary, url, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(title), q) ||
		strings.Contains(strings.ToLower(summary), q) ||
		strings.Contains(strings.ToLower(url), q)
}
