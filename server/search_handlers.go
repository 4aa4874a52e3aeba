package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
)

const (
	defaultSearchK  = 10
	defaultSimilarK = 5
)

// searchParams reads the shared search query parameters: q, k and the
// saying attribute filters.
func searchParams(c *fiber.Ctx) (string, int, storage.SearchFilters, error) {
	query := c.Query("q")
	k, err := queryInt(c, "k", defaultSearchK)
	if err != nil {
		return "", 0, storage.SearchFilters{}, err
	}
	filters := storage.SearchFilters{
		Collection: c.Query("collection"),
		Topic:      c.Query("topic"),
	}
	return query, k, filters, nil
}

// handleSearchVerses runs a hybrid query over the verses corpus.
func (s *Server) handleSearchVerses(c *fiber.Ctx) error {
	return s.corpusSearch(c, core.CorpusVerses)
}

// handleSearchSayings runs a hybrid query over the sayings corpus,
// honoring the collection and topic filters.
func (s *Server) handleSearchSayings(c *fiber.Ctx) error {
	return s.corpusSearch(c, core.CorpusSayings)
}

func (s *Server) corpusSearch(c *fiber.Ctx, corpus core.Corpus) error {
	query, k, filters, err := searchParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := s.searcher.Search(c.Context(), corpus, query, filters, k)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(SearchResponse{
		Query:          query,
		ResultResponse: newResultResponse(result),
	})
}

// handleSearchAll runs the query against both corpora and returns the
// results side by side.
func (s *Server) handleSearchAll(c *fiber.Ctx) error {
	query, k, filters, err := searchParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	results, err := s.searcher.SearchAll(c.Context(), query, filters, k)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(CombinedSearchResponse{
		Query:   query,
		Verses:  newResultResponse(results.Verses),
		Sayings: newResultResponse(results.Sayings),
	})
}

// handleSearchUnified merges both corpora into a single ranking.
func (s *Server) handleSearchUnified(c *fiber.Ctx) error {
	query, k, filters, err := searchParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := s.searcher.SearchUnified(c.Context(), query, filters, k)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(SearchResponse{
		Query:          query,
		ResultResponse: newResultResponse(result),
	})
}

// handleSimilarSayings returns the precomputed neighbors of one
// saying, hydrated and ordered by edge score.
func (s *Server) handleSimilarSayings(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "id must be a positive integer")
	}
	k, err := queryInt(c, "k", defaultSimilarK)
	if err != nil {
		return badRequest(c, err.Error())
	}

	hits, err := s.searcher.RelatedTo(c.Context(), core.CorpusSayings, core.RecordID(id), k)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(SimilarResponse{
		ID:      int64(id),
		Count:   len(hits),
		Similar: hitResponses(hits),
	})
}
