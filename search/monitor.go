package search

import "github.com/poiesic/mishkat/core"

// SearchMonitor provides hooks to observe the stages of a hybrid query.
// Implement this interface to trace candidate generation, degradation
// and fusion. Callbacks run sequentially on the calling goroutine after
// both ranking sources have finished.
type SearchMonitor interface {
	Start(corpus core.Corpus, query string)
	AfterSemanticSearch(candidates []core.ScoredID)
	AfterKeywordSearch(candidates []core.ScoredID)
	SourceDegraded(source string, err error)
	AfterFusion(fused []core.ScoredID)
	Finish(result *core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.Corpus, _ string)         {}
func (n *noopMonitor) AfterSemanticSearch(_ []core.ScoredID) {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.ScoredID)  {}
func (n *noopMonitor) SourceDegraded(_ string, _ error)      {}
func (n *noopMonitor) AfterFusion(_ []core.ScoredID)         {}
func (n *noopMonitor) Finish(_ *core.SearchResult)           {}
