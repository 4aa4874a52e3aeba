package search

import (
	"context"
	"fmt"

	"github.com/poiesic/mishkat/ann"
	"github.com/poiesic/mishkat/core"
)

// distanceEpsilon keeps the similarity conversion away from an exact
// zero divisor when every distance in the batch is zero.
const distanceEpsilon = 1e-6

// SemanticSource is the ANN side of hybrid retrieval. It takes an
// already-embedded query vector and translates the index's raw
// (ordinal, distance) output into record ids with batch-relative
// similarity scores.
type SemanticSource struct {
	registry *Registry
}

// NewSemanticSource creates a semantic source over the index registry.
func NewSemanticSource(registry *Registry) (*SemanticSource, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	return &SemanticSource{registry: registry}, nil
}

// Search returns up to k corpus records nearest to queryVector. Scores
// are 1 - d/(dMax + eps) where dMax is the largest distance in this
// batch, so they lie in (0, 1] and are only meaningful within one call;
// never compare them across queries or batch sizes.
func (s *SemanticSource) Search(ctx context.Context, corpus core.Corpus, queryVector []float32, k int) ([]core.ScoredID, error) {
	ci, err := s.registry.Load(corpus)
	if err != nil {
		return nil, err
	}

	neighbors, err := ci.Index.Search(queryVector, k)
	if err != nil {
		return nil, err
	}

	return translateNeighbors(neighbors, ci.Mapping)
}

// translateNeighbors drops sentinel padding, converts distances to
// batch-relative similarities, and maps ordinals to record ids. An
// ordinal outside the mapping means the two artifacts were built from
// different snapshots; that is a fault, not a miss.
func translateNeighbors(neighbors []ann.Neighbor, mapping ann.IDMapping) ([]core.ScoredID, error) {
	valid := make([]ann.Neighbor, 0, len(neighbors))
	var dMax float64
	for _, n := range neighbors {
		if n.Ordinal < 0 {
			continue
		}
		valid = append(valid, n)
		if d := float64(n.Distance); d > dMax {
			dMax = d
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	scored := make([]core.ScoredID, 0, len(valid))
	for _, n := range valid {
		id, err := mapping.ID(n.Ordinal)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
		}
		scored = append(scored, core.ScoredID{
			ID:    core.RecordID(id),
			Score: 1 - float64(n.Distance)/(dMax+distanceEpsilon),
		})
	}
	return scored, nil
}
