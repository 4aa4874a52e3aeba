package search

import (
	"context"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
)

// SimilarityGraph reads the precomputed neighbor edges written by the
// offline pipeline. Only the sayings corpus carries edges today; other
// corpora report no neighbors rather than erroring.
type SimilarityGraph struct {
	sayings storage.SayingRepository
}

// NewSimilarityGraph creates a graph view over the saying repository.
func NewSimilarityGraph(sayings storage.SayingRepository) (*SimilarityGraph, error) {
	if sayings == nil {
		return nil, ErrSayingRepositoryRequired
	}
	return &SimilarityGraph{sayings: sayings}, nil
}

// RelatedTo returns up to k precomputed neighbors of a record, highest
// stored score first. A record without edges yields an empty list.
func (g *SimilarityGraph) RelatedTo(ctx context.Context, corpus core.Corpus, id core.RecordID, k int) ([]core.ScoredID, error) {
	switch corpus {
	case core.CorpusSayings:
		return g.sayings.SimilarSayings(ctx, id, k)
	case core.CorpusVerses:
		return nil, nil
	default:
		return nil, core.ErrUnknownCorpus
	}
}
