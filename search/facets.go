package search

import (
	"context"
	"fmt"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
)

// FacetAggregator serves topic facet counts and facet-filtered browse
// pages. Facets exist only for the sayings corpus; the verses corpus
// has none and lists empty.
type FacetAggregator struct {
	sayings storage.SayingRepository
}

// NewFacetAggregator creates a facet view over the saying repository.
func NewFacetAggregator(sayings storage.SayingRepository) (*FacetAggregator, error) {
	if sayings == nil {
		return nil, ErrSayingRepositoryRequired
	}
	return &FacetAggregator{sayings: sayings}, nil
}

// ListFacets returns every facet label of a corpus with its record
// count, most populous first.
func (a *FacetAggregator) ListFacets(ctx context.Context, corpus core.Corpus) ([]core.FacetCount, error) {
	switch corpus {
	case core.CorpusSayings:
		return a.sayings.Topics(ctx)
	case core.CorpusVerses:
		return nil, nil
	default:
		return nil, core.ErrUnknownCorpus
	}
}

// FacetPage returns one page of a facet's records ordered by collection
// then id, with exact pagination metadata. An unknown label is an input
// error; a known label's page past the end is an empty page.
func (a *FacetAggregator) FacetPage(ctx context.Context, corpus core.Corpus, label string, page, perPage int) ([]*core.Saying, core.Pagination, error) {
	if !corpus.Valid() {
		return nil, core.Pagination{}, core.ErrUnknownCorpus
	}
	if err := core.ValidatePage(page, perPage); err != nil {
		return nil, core.Pagination{}, err
	}
	if corpus != core.CorpusSayings {
		return nil, core.Pagination{}, fmt.Errorf("%w: %q", core.ErrUnknownTopic, label)
	}

	sayings, total, err := a.sayings.SayingsByTopic(ctx, label, page, perPage)
	if err != nil {
		return nil, core.Pagination{}, err
	}
	if total == 0 {
		return nil, core.Pagination{}, fmt.Errorf("%w: %q", core.ErrUnknownTopic, label)
	}

	return sayings, core.NewPagination(page, perPage, total), nil
}
