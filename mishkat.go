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


package mishkat

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/mishkat/ai"
	"github.com/poiesic/mishkat/ai/openai"
	"github.com/poiesic/mishkat/ingestion"
	"github.com/poiesic/mishkat/search"
	"github.com/poiesic/mishkat/storage"
	"github.com/poiesic/mishkat/storage/sqlite"
)

const (
	versesDBName  = "verses.db"
	sayingsDBName = "sayings.db"
	indexDirName  = "index"
)

// Library bundles the corpus stores, the index registry and the
// embedder behind one directory. The directory holds verses.db,
// sayings.db and an index/ subdirectory of vector artifacts.
type Library struct {
	dir      string
	verses   storage.VerseRepository
	sayings  storage.SayingRepository
	registry *search.Registry
	embedder ai.Embedder
	aiConfig *ai.Config
	logger   *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
}

// WithAIConfig sets the embedding service configuration.
func WithAIConfig(config *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithEmbedder replaces the OpenAI-compatible embedder built from the
// AI config, for callers that bring their own.
func WithEmbedder(embedder ai.Embedder) LibraryOption {
	return func(o *libraryOptions) {
		o.embedder = embedder
	}
}

func Open(dir string, opts ...LibraryOption) (*Library, error) {
	// Apply options
	options := &libraryOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open verse store
	verses, err := sqlite.OpenVerseStore(filepath.Join(dir, versesDBName))
	if err != nil {
		return nil, err
	}

	// Open saying store
	sayings, err := sqlite.OpenSayingStore(filepath.Join(dir, sayingsDBName))
	if err != nil {
		verses.Close()
		return nil, err
	}

	// Create index registry over the artifact directory. Artifacts are
	// loaded lazily, so a library can be opened before its first build.
	registry, err := search.NewRegistry(filepath.Join(dir, indexDirName))
	if err != nil {
		sayings.Close()
		verses.Close()
		return nil, err
	}

	// Create embedder with configured settings
	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			sayings.Close()
			verses.Close()
			return nil, err
		}
	}

	return &Library{
		dir:      dir,
		verses:   verses,
		sayings:  sayings,
		registry: registry,
		embedder: embedder,
		aiConfig: options.aiConfig,
		logger:   slog.Default(),
	}, nil
}

func (l *Library) Close() error {
	// Close the registry first
	if err := l.registry.Close(); err != nil {
		l.logger.Error("error closing index registry", "err", err)
	}

	// Close stores
	if err := l.sayings.Close(); err != nil {
		l.logger.Error("error closing saying store", "err", err)
		return err
	}
	if err := l.verses.Close(); err != nil {
		l.logger.Error("error closing verse store", "err", err)
		return err
	}
	return nil
}

func (l *Library) Verses() storage.VerseRepository {
	return l.verses
}

func (l *Library) Sayings() storage.SayingRepository {
	return l.sayings
}

// IndexDir returns the directory the build pipeline writes vector
// artifacts to and the registry reads them from.
func (l *Library) IndexDir() string {
	return filepath.Join(l.dir, indexDirName)
}

func (l *Library) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(l.verses, l.sayings, l.embedder, l.registry, opts...)
}

func (l *Library) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(l.verses, l.sayings, l.embedder, l.aiConfig, opts...)
}
