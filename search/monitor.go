package search

import "github.com/poiesic/tabstash/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterVectorSearch(matches []*core.VectorMatch, err error)
	AfterLexicalSearch(ids []core.ID, err error)
	LexicalOnly(reason string)
	SubstringFallback()
	Finish(hits []*core.SearchHit)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                 {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.VectorMatch, _ error) {}
func (n *noopMonitor) AfterLexicalSearch(_ []core.ID, _ error)        {}
func (n *noopMonitor) LexicalOnly(_ string)                           {}
func (n *noopMonitor) SubstringFallback()                             {}
func (n *noopMonitor) Finish(_ []*core.SearchHit)                     {}
