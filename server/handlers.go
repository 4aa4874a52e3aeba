package server

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/poiesic/mishkat/core"
)

const defaultPerPage = 10

// queryInt reads an integer query parameter, returning fallback when
// the parameter is absent.
func queryInt(c *fiber.Ctx, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// pageParams reads and clamps the page and per_page parameters.
func pageParams(c *fiber.Ctx) (int, int, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	perPage, err := queryInt(c, "per_page", defaultPerPage)
	if err != nil {
		return 0, 0, err
	}
	page, perPage = core.ClampPage(page, perPage)
	return page, perPage, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(map[string]any{"status": "ok"})
}

// handleStats returns record counts per corpus, with per-collection
// totals on the sayings side.
func (s *Server) handleStats(c *fiber.Ctx) error {
	ctx := c.Context()

	verseCount, err := s.verses.CountVerses(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	chapters, err := s.verses.Chapters(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	sayingCount, err := s.sayings.CountSayings(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	collections, err := s.sayings.Collections(ctx)
	if err != nil {
		return s.respondError(c, err)
	}
	topics, err := s.sayings.Topics(ctx)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(StatsResponse{
		Verses: VerseStatsResponse{
			Total:    verseCount,
			Chapters: len(chapters),
		},
		Sayings: SayingStatsResponse{
			Total:       sayingCount,
			Topics:      len(topics),
			Collections: collectionResponses(collections),
		},
	})
}

// handleVerses returns one page of verses, optionally restricted to a
// chapter.
func (s *Server) handleVerses(c *fiber.Ctx) error {
	chapter, err := queryInt(c, "chapter", 0)
	if err != nil {
		return badRequest(c, err.Error())
	}
	page, perPage, err := pageParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	verses, total, err := s.verses.GetVersePage(c.Context(), chapter, page, perPage)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(map[string]any{
		"verses":     verseResponses(verses),
		"pagination": newPaginationResponse(core.NewPagination(page, perPage, total)),
	})
}

// handleChapters lists the chapters of the verses corpus.
func (s *Server) handleChapters(c *fiber.Ctx) error {
	chapters, err := s.verses.Chapters(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(map[string]any{
		"count":    len(chapters),
		"chapters": chapterResponses(chapters),
	})
}

// handleDivineNames lists the names table.
func (s *Server) handleDivineNames(c *fiber.Ctx) error {
	names, err := s.verses.DivineNames(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(map[string]any{
		"count": len(names),
		"names": nameResponses(names),
	})
}

// handleCollections lists saying collection metadata.
func (s *Server) handleCollections(c *fiber.Ctx) error {
	collections, err := s.sayings.Collections(c.Context())
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(map[string]any{
		"count":       len(collections),
		"collections": collectionResponses(collections),
	})
}

// handleSayingsByCollection returns one page of a collection's
// sayings. Unknown collections yield a 404 rather than an empty page.
func (s *Server) handleSayingsByCollection(c *fiber.Ctx) error {
	collection := c.Params("collection")
	page, perPage, err := pageParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Context()
	sayings, total, err := s.sayings.GetSayingPage(ctx, collection, page, perPage)
	if err != nil {
		return s.respondError(c, err)
	}

	if total == 0 && collection != "" && collection != "all" {
		known, kerr := s.knownCollection(ctx, collection)
		if kerr == nil && !known {
			return s.respondError(c, fmt.Errorf("%w: %q", core.ErrUnknownCollection, collection))
		}
	}

	return c.JSON(map[string]any{
		"collection": collection,
		"sayings":    sayingResponses(sayings),
		"pagination": newPaginationResponse(core.NewPagination(page, perPage, total)),
	})
}

// knownCollection reports whether name matches a collection in the
// metadata table.
func (s *Server) knownCollection(ctx context.Context, name string) (bool, error) {
	collections, err := s.sayings.Collections(ctx)
	if err != nil {
		return false, err
	}
	for i := 0; i < len(collections); i++ {
		if collections[i].Name == name {
			return true, nil
		}
	}
	return false, nil
}

// handleTopics lists the saying topic facets, most frequent first.
func (s *Server) handleTopics(c *fiber.Ctx) error {
	facets, err := s.searcher.ListFacets(c.Context(), core.CorpusSayings)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(map[string]any{
		"count":  len(facets),
		"topics": topicResponses(facets),
	})
}

// handleSayingsByTopic returns one page of a topic's sayings.
func (s *Server) handleSayingsByTopic(c *fiber.Ctx) error {
	topic := c.Params("topic")
	page, perPage, err := pageParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	sayings, pagination, err := s.searcher.FacetPage(c.Context(), core.CorpusSayings, topic, page, perPage)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(map[string]any{
		"topic":      topic,
		"sayings":    sayingResponses(sayings),
		"pagination": newPaginationResponse(pagination),
	})
}
