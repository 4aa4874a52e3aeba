// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/search"
	"github.com/poiesic/mishkat/storage"
)

// Config holds the HTTP server settings.
type Config struct {
	// ListenAddr is the host:port the server binds, e.g. ":8470".
	ListenAddr string
}

// Server exposes the search engine and corpus browse operations over
// HTTP. All responses are JSON; failures use the ErrorResponse
// envelope.
type Server struct {
	config   Config
	verses   storage.VerseRepository
	sayings  storage.SayingRepository
	searcher *search.Searcher
	logger   *slog.Logger
	app      *fiber.App
}

// New creates the server and registers its routes. The repositories
// and searcher are injected so they can be shared with other
// components such as the ingestion pipeline.
func New(config Config, verses storage.VerseRepository, sayings storage.SayingRepository, searcher *search.Searcher, logger *slog.Logger) (*Server, error) {
	if verses == nil {
		return nil, ErrVerseRepositoryRequired
	}
	if sayings == nil {
		return nil, ErrSayingRepositoryRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:               "mishkat",
		DisableStartupMessage: true,
		UnescapePath:          true,
	})

	s := &Server{
		config:   config,
		verses:   verses,
		sayings:  sayings,
		searcher: searcher,
		logger:   logger,
		app:      app,
	}

	app.Get("/healthz", s.handleHealth)
	app.Get("/stats", s.handleStats)

	app.Get("/verses", s.handleVerses)
	app.Get("/verses/chapters", s.handleChapters)
	app.Get("/names", s.handleDivineNames)

	// Static saying routes must come before the parameterized ones.
	app.Get("/sayings/collections", s.handleCollections)
	app.Get("/sayings/topics", s.handleTopics)
	app.Get("/sayings/topic/:topic", s.handleSayingsByTopic)
	app.Get("/sayings/:id/similar", s.handleSimilarSayings)
	app.Get("/sayings/:collection", s.handleSayingsByCollection)

	app.Get("/search/verses", s.handleSearchVerses)
	app.Get("/search/sayings", s.handleSearchSayings)
	app.Get("/search/all", s.handleSearchAll)
	app.Get("/search/unified", s.handleSearchUnified)

	return s, nil
}

// Run starts the server on the configured address and blocks until it
// is shut down.
func (s *Server) Run() error {
	s.logger.Info("starting http server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// respondError maps domain errors onto HTTP statuses: invalid input
// becomes 400, missing records 404, everything else 500.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrEmptyQuery),
		errors.Is(err, core.ErrInvalidLimit),
		errors.Is(err, core.ErrInvalidPage),
		errors.Is(err, core.ErrUnknownCorpus):
		status = fiber.StatusBadRequest
	case errors.Is(err, core.ErrUnknownTopic),
		errors.Is(err, core.ErrUnknownCollection):
		status = fiber.StatusNotFound
	}

	if status == fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
