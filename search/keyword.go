package search

import (
	"context"
	"math"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
)

// KeywordSource is the full-text side of hybrid retrieval. It queries
// the corpus FTS index and converts the index's native rank (lower is
// better, negative under bm25) into a positive score. List order comes
// from the index, not from the converted scores; fusion only consumes
// the order.
type KeywordSource struct {
	verses  storage.VerseRepository
	sayings storage.SayingRepository
}

// NewKeywordSource creates a keyword source over the two repositories.
func NewKeywordSource(verses storage.VerseRepository, sayings storage.SayingRepository) (*KeywordSource, error) {
	if verses == nil {
		return nil, ErrVerseRepositoryRequired
	}
	if sayings == nil {
		return nil, ErrSayingRepositoryRequired
	}
	return &KeywordSource{verses: verses, sayings: sayings}, nil
}

// Search returns up to k keyword matches for query, best first. Filters
// apply to the sayings corpus only. No hits and rejected match syntax
// both yield an empty list, not an error.
func (s *KeywordSource) Search(ctx context.Context, corpus core.Corpus, query string, filters storage.SearchFilters, k int) ([]core.ScoredID, error) {
	var matches []storage.KeywordMatch
	var err error

	switch corpus {
	case core.CorpusVerses:
		matches, err = s.verses.MatchVerses(ctx, query, k)
	case core.CorpusSayings:
		matches, err = s.sayings.MatchSayings(ctx, query, filters, k)
	default:
		return nil, core.ErrUnknownCorpus
	}
	if err != nil {
		return nil, err
	}

	scored := make([]core.ScoredID, len(matches))
	for i, m := range matches {
		scored[i] = core.ScoredID{ID: m.ID, Score: rankScore(m.Rank)}
	}
	return scored, nil
}

// rankScore maps a native index rank onto (0, 1].
func rankScore(rank float64) float64 {
	return 1 / (1 + math.Abs(rank))
}
