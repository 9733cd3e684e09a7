package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "https://example.com/article",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("https://example.com/a")
	id2 := IDFromContent("https://example.com/b")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestImportResult_Failed(t *testing.T) {
	tests := []struct {
		name   string
		result ImportResult
		want   bool
	}{
		{
			name:   "success",
			result: ImportResult{Id: 42},
			want:   false,
		},
		{
			name:   "failure",
			result: ImportResult{Err: "duplicate url"},
			want:   true,
		},
		{
			name:   "failure with id",
			result: ImportResult{Id: 42, Err: "partial write"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Failed(); got != tt.want {
				t.Errorf("ImportResult.Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSearchHit_BestRank(t *testing.T) {
	tests := []struct {
		name string
		hit  SearchHit
		want int
	}{
		{
			name: "vector only",
			hit:  SearchHit{VectorRank: 3},
			want: 3,
		},
		{
			name: "lexical only",
			hit:  SearchHit{LexicalRank: 5},
			want: 5,
		},
		{
			name: "lexical better",
			hit:  SearchHit{VectorRank: 4, LexicalRank: 2},
			want: 2,
		},
		{
			name: "vector better",
			hit:  SearchHit{VectorRank: 1, LexicalRank: 7},
			want: 1,
		},
		{
			name: "neither",
			hit:  SearchHit{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hit.BestRank(); got != tt.want {
				t.Errorf("SearchHit.BestRank() = %v, want %v", got, tt.want)
			}
		})
	}
}
