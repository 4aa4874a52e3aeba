package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/poiesic/mishkat/ai"
	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
)

// defaultAdapterTimeout bounds each ranking source per query. A source
// that exceeds it is treated as failed and the query degrades to the
// surviving source.
const defaultAdapterTimeout = 3 * time.Second

// Searcher provides hybrid semantic and keyword search over the two
// corpora, plus graph and facet lookups against the same repositories.
type Searcher struct {
	verses   storage.VerseRepository
	sayings  storage.SayingRepository
	embedder ai.Embedder

	semantic *SemanticSource
	keyword  *KeywordSource
	graph    *SimilarityGraph
	facets   *FacetAggregator

	logger  *slog.Logger
	timeout time.Duration
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithAdapterTimeout sets the per-source timeout applied to each
// ranking source of a query. Default is 3 seconds.
func WithAdapterTimeout(d time.Duration) Option {
	return func(s *Searcher) error {
		if d <= 0 {
			return fmt.Errorf("adapter timeout must be positive, got %v", d)
		}
		s.timeout = d
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	verses storage.VerseRepository,
	sayings storage.SayingRepository,
	embedder ai.Embedder,
	registry *Registry,
	opts ...Option,
) (*Searcher, error) {
	if verses == nil {
		return nil, ErrVerseRepositoryRequired
	}
	if sayings == nil {
		return nil, ErrSayingRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}

	semantic, err := NewSemanticSource(registry)
	if err != nil {
		return nil, err
	}
	keyword, err := NewKeywordSource(verses, sayings)
	if err != nil {
		return nil, err
	}
	graph, err := NewSimilarityGraph(sayings)
	if err != nil {
		return nil, err
	}
	facets, err := NewFacetAggregator(sayings)
	if err != nil {
		return nil, err
	}

	s := &Searcher{
		verses:   verses,
		sayings:  sayings,
		embedder: embedder,
		semantic: semantic,
		keyword:  keyword,
		graph:    graph,
		facets:   facets,
		logger:   slog.Default(),
		timeout:  defaultAdapterTimeout,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs a hybrid query against one corpus: both ranking sources
// in parallel, reciprocal rank fusion, then hydration of the top k.
//
// If one source fails the result is fused from the survivor alone and
// marked Degraded. If both fail the query fails with
// ErrBothSourcesFailed. Corrupt index artifacts always fail the query,
// never degrade it.
func (s *Searcher) Search(ctx context.Context, corpus core.Corpus, query string, filters storage.SearchFilters, k int) (*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, corpus, query, filters, k, &noopMonitor{})
}

// SearchWithMonitor performs a hybrid search with a monitor receiving
// stage callbacks. See Search.
func (s *Searcher) SearchWithMonitor(ctx context.Context, corpus core.Corpus, query string, filters storage.SearchFilters, k int, monitor SearchMonitor) (*core.SearchResult, error) {
	if !corpus.Valid() {
		return nil, core.ErrUnknownCorpus
	}
	if err := core.ValidateQuery(query, k); err != nil {
		return nil, err
	}

	monitor.Start(corpus, query)

	var (
		wg      sync.WaitGroup
		semHits []core.ScoredID
		semErr  error
		kwHits  []core.ScoredID
		kwErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		sctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		semHits, semErr = s.semanticCandidates(sctx, corpus, query, filters, k)
	}()
	go func() {
		defer wg.Done()
		kctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		kwHits, kwErr = s.keyword.Search(kctx, corpus, query, filters, k)
	}()
	wg.Wait()

	// Mismatched artifacts produce silently wrong rankings, so they are
	// never folded into degraded mode.
	if errors.Is(semErr, ErrCorruptIndex) {
		s.logger.Error("corrupt index artifacts", "corpus", corpus, "error", semErr)
		return nil, semErr
	}

	if semErr != nil && kwErr != nil {
		return nil, fmt.Errorf("%w: semantic: %v; keyword: %v", ErrBothSourcesFailed, semErr, kwErr)
	}

	degraded := false
	if semErr != nil {
		s.logger.Warn("semantic source degraded", "corpus", corpus, "error", semErr)
		monitor.SourceDegraded("semantic", semErr)
		semHits = nil
		degraded = true
	} else {
		monitor.AfterSemanticSearch(semHits)
	}
	if kwErr != nil {
		s.logger.Warn("keyword source degraded", "corpus", corpus, "error", kwErr)
		monitor.SourceDegraded("keyword", kwErr)
		kwHits = nil
		degraded = true
	} else {
		monitor.AfterKeywordSearch(kwHits)
	}

	fused := Fuse(semHits, kwHits, RRFConstant)
	if len(fused) > k {
		fused = fused[:k]
	}
	monitor.AfterFusion(fused)

	hits, err := s.hydrate(ctx, corpus, fused)
	if err != nil {
		return nil, err
	}

	result := &core.SearchResult{Hits: hits, Degraded: degraded}
	monitor.Finish(result)
	return result, nil
}

// semanticCandidates embeds the query and ranks it against the
// corpus's ANN index. When attribute filters apply (sayings only) it
// over-fetches and narrows afterwards, since the index itself knows
// nothing about attributes.
func (s *Searcher) semanticCandidates(ctx context.Context, corpus core.Corpus, query string, filters storage.SearchFilters, k int) ([]core.ScoredID, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	fetch := k
	narrowed := corpus == core.CorpusSayings && filters.Active()
	if narrowed {
		fetch = 2 * k
	}

	candidates, err := s.semantic.Search(ctx, corpus, vector, fetch)
	if err != nil {
		return nil, err
	}
	if !narrowed {
		return candidates, nil
	}
	return s.narrowCandidates(ctx, candidates, filters, k)
}

// narrowCandidates keeps the candidates matching the filters,
// preserving rank order, truncated to k.
func (s *Searcher) narrowCandidates(ctx context.Context, candidates []core.ScoredID, filters storage.SearchFilters, k int) ([]core.ScoredID, error) {
	ids := make([]core.RecordID, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	kept, err := s.sayings.FilterSayingIDs(ctx, ids, filters)
	if err != nil {
		return nil, fmt.Errorf("narrowing semantic candidates: %w", err)
	}

	keep := make(map[core.RecordID]struct{}, len(kept))
	for _, id := range kept {
		keep[id] = struct{}{}
	}

	narrowed := make([]core.ScoredID, 0, len(kept))
	for _, c := range candidates {
		if _, ok := keep[c.ID]; !ok {
			continue
		}
		narrowed = append(narrowed, c)
		if len(narrowed) == k {
			break
		}
	}
	return narrowed, nil
}

// hydrate resolves scored ids into full records, preserving rank
// order. Ids whose record has vanished since the indexes were built
// are dropped.
func (s *Searcher) hydrate(ctx context.Context, corpus core.Corpus, scored []core.ScoredID) ([]core.SearchHit, error) {
	if len(scored) == 0 {
		return nil, nil
	}

	ids := make([]core.RecordID, len(scored))
	for i, sc := range scored {
		ids[i] = sc.ID
	}

	hits := make([]core.SearchHit, 0, len(scored))
	switch corpus {
	case core.CorpusVerses:
		verses, err := s.verses.GetVerses(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("hydrating verses: %w", err)
		}
		byID := make(map[core.RecordID]*core.Verse, len(verses))
		for _, v := range verses {
			byID[v.ID] = v
		}
		for _, sc := range scored {
			v, ok := byID[sc.ID]
			if !ok {
				s.logger.Debug("dropping hit without record", "corpus", corpus, "id", sc.ID)
				continue
			}
			hits = append(hits, core.SearchHit{Corpus: corpus, ID: sc.ID, Score: sc.Score, Verse: v})
		}
	case core.CorpusSayings:
		sayings, err := s.sayings.GetSayings(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("hydrating sayings: %w", err)
		}
		byID := make(map[core.RecordID]*core.Saying, len(sayings))
		for _, say := range sayings {
			byID[say.ID] = say
		}
		for _, sc := range scored {
			say, ok := byID[sc.ID]
			if !ok {
				s.logger.Debug("dropping hit without record", "corpus", corpus, "id", sc.ID)
				continue
			}
			hits = append(hits, core.SearchHit{Corpus: corpus, ID: sc.ID, Score: sc.Score, Saying: say})
		}
	default:
		return nil, core.ErrUnknownCorpus
	}

	return hits, nil
}

// CorpusResults holds one result per corpus from a combined query.
type CorpusResults struct {
	Verses  *core.SearchResult
	Sayings *core.SearchResult
}

// SearchAll runs the same query against both corpora in parallel and
// returns both results side by side. Filters apply to the sayings side
// only; the verses corpus has no filterable attributes.
func (s *Searcher) SearchAll(ctx context.Context, query string, filters storage.SearchFilters, k int) (*CorpusResults, error) {
	if err := core.ValidateQuery(query, k); err != nil {
		return nil, err
	}

	var (
		wg         sync.WaitGroup
		verses     *core.SearchResult
		versesErr  error
		sayings    *core.SearchResult
		sayingsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		verses, versesErr = s.Search(ctx, core.CorpusVerses, query, storage.SearchFilters{}, k)
	}()
	go func() {
		defer wg.Done()
		sayings, sayingsErr = s.Search(ctx, core.CorpusSayings, query, filters, k)
	}()
	wg.Wait()

	if versesErr != nil {
		return nil, fmt.Errorf("searching verses: %w", versesErr)
	}
	if sayingsErr != nil {
		return nil, fmt.Errorf("searching sayings: %w", sayingsErr)
	}

	return &CorpusResults{Verses: verses, Sayings: sayings}, nil
}

// SearchUnified merges both corpora into a single ranking. Fused
// scores are comparable across corpora because both sides use the same
// fusion constant and list lengths, so the merge is a plain sort by
// score with ties keeping verses before sayings.
func (s *Searcher) SearchUnified(ctx context.Context, query string, filters storage.SearchFilters, k int) (*core.SearchResult, error) {
	results, err := s.SearchAll(ctx, query, filters, k)
	if err != nil {
		return nil, err
	}

	merged := make([]core.SearchHit, 0, len(results.Verses.Hits)+len(results.Sayings.Hits))
	merged = append(merged, results.Verses.Hits...)
	merged = append(merged, results.Sayings.Hits...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > k {
		merged = merged[:k]
	}

	return &core.SearchResult{
		Hits:     merged,
		Degraded: results.Verses.Degraded || results.Sayings.Degraded,
	}, nil
}

// RelatedTo returns the records related to one record through the
// precomputed similarity graph, hydrated and ordered by edge score.
// A record with no edges yields an empty result.
func (s *Searcher) RelatedTo(ctx context.Context, corpus core.Corpus, id core.RecordID, k int) ([]core.SearchHit, error) {
	if !corpus.Valid() {
		return nil, core.ErrUnknownCorpus
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", core.ErrInvalidLimit, k)
	}

	scored, err := s.graph.RelatedTo(ctx, corpus, id, k)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, corpus, scored)
}

// ListFacets lists a corpus's topic facets with record counts, most
// frequent first.
func (s *Searcher) ListFacets(ctx context.Context, corpus core.Corpus) ([]core.FacetCount, error) {
	return s.facets.ListFacets(ctx, corpus)
}

// FacetPage returns one page of the records carrying a facet label.
func (s *Searcher) FacetPage(ctx context.Context, corpus core.Corpus, label string, page, perPage int) ([]*core.Saying, core.Pagination, error) {
	return s.facets.FacetPage(ctx, corpus, label, page, perPage)
}
