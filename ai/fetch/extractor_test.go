package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><h1>Test Page</h1><p>Some <strong>content</strong> here.</p></body></html>`))
	}))
	defer srv.Close()

	ex := NewExtractor()
	markdown, err := ex.Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, markdown, "Test Page")
	assert.Contains(t, markdown, "**content**")
}

func TestExtractNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	ex := NewExtractor()
	_, err := ex.Extract(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestExtractContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := NewExtractor()
	_, err := ex.Extract(ctx, srv.URL)
	require.Error(t, err)
}
