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


package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"time"
	"unicode"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/mishkat/ai"
	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
)

const (
	defaultEmbedBatchSize = 32
	defaultMaxRetries     = 3
	defaultRetryDelay     = time.Second

	// neighborCount is how many similarity edges each saying gets.
	neighborCount = 5
)

// VectorCache caches embedding vectors across pipeline runs, keyed by
// model name and text content. Implementations must be safe for
// concurrent use.
type VectorCache interface {
	Get(model, text string) ([]float32, bool, error)
	Put(model, text string, vector []float32) error
}

// Pipeline builds the corpus databases and index artifacts from CSV
// sources: record import, keyword index rebuild, embedding generation,
// vector index emission and similarity edge computation.
type Pipeline struct {
	verses     storage.VerseRepository
	sayings    storage.SayingRepository
	embedder   ai.Embedder
	config     *ai.Config
	cache      VectorCache
	pool       *ants.Pool
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithVectorCache sets a cache consulted before calling the embedder,
// so repeat builds skip texts that were already embedded.
func WithVectorCache(cache VectorCache) Option {
	return func(p *Pipeline) error {
		p.cache = cache
		return nil
	}
}

// WithBatchSize sets how many texts are embedded per model call.
// Default is 32, minimum 1.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithRetryPolicy sets the retry budget for embedding calls.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithProgress sets where embedding progress lines are written,
// typically os.Stderr. Default discards them.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		p.progress = w
		return nil
	}
}

// NewPipeline creates a build pipeline over the two corpus
// repositories. The config supplies the embedding model name and the
// expected vector width.
func NewPipeline(
	verses storage.VerseRepository,
	sayings storage.SayingRepository,
	embedder ai.Embedder,
	config *ai.Config,
	opts ...Option,
) (*Pipeline, error) {
	if verses == nil {
		return nil, ErrVerseRepositoryRequired
	}
	if sayings == nil {
		return nil, ErrSayingRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		return nil, ErrConfigRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		verses:     verses,
		sayings:    sayings,
		embedder:   embedder,
		config:     config,
		pool:       pool,
		batchSize:  defaultEmbedBatchSize,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		progress:   io.Discard,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Sources names the CSV inputs for a corpus build. Chapter and name
// files are optional and skipped when empty.
type Sources struct {
	VersesCSV   string
	SayingsCSV  string
	ChaptersCSV string
	NamesCSV    string
}

// ImportStats counts the records loaded by ImportCSV.
type ImportStats struct {
	Verses   int
	Sayings  int
	Chapters int
	Names    int
}

// EmbedStats counts the embedding work done by EmbedCorpora.
type EmbedStats struct {
	Embedded  int
	CacheHits int
}

// BuildStats aggregates the counts of a full Build run.
type BuildStats struct {
	Import ImportStats
	Embed  EmbedStats
	Edges  int
}

// ImportCSV loads the source files into the repositories, rebuilds both
// keyword indexes and refreshes the collection metadata. Verse and
// saying sources are required.
func (p *Pipeline) ImportCSV(ctx context.Context, src Sources) (ImportStats, error) {
	var stats ImportStats
	if src.VersesCSV == "" {
		return stats, ErrVersesSourceRequired
	}
	if src.SayingsCSV == "" {
		return stats, ErrSayingsSourceRequired
	}

	verses, err := ReadVerses(src.VersesCSV)
	if err != nil {
		return stats, err
	}
	if len(verses) == 0 {
		return stats, fmt.Errorf("%s: %w", src.VersesCSV, ErrNoRows)
	}
	if err := p.verses.AddVerses(ctx, verses...); err != nil {
		return stats, fmt.Errorf("inserting verses: %w", err)
	}
	stats.Verses = len(verses)

	if src.ChaptersCSV != "" {
		chapters, err := ReadChapters(src.ChaptersCSV)
		if err != nil {
			return stats, err
		}
		if err := p.verses.ReplaceChapters(ctx, chapters); err != nil {
			return stats, fmt.Errorf("replacing chapters: %w", err)
		}
		stats.Chapters = len(chapters)
	}

	if src.NamesCSV != "" {
		names, err := ReadDivineNames(src.NamesCSV)
		if err != nil {
			return stats, err
		}
		if err := p.verses.ReplaceDivineNames(ctx, names); err != nil {
			return stats, fmt.Errorf("replacing divine names: %w", err)
		}
		stats.Names = len(names)
	}

	sayings, err := ReadSayings(src.SayingsCSV)
	if err != nil {
		return stats, err
	}
	if len(sayings) == 0 {
		return stats, fmt.Errorf("%s: %w", src.SayingsCSV, ErrNoRows)
	}
	if err := p.sayings.AddSayings(ctx, sayings...); err != nil {
		return stats, fmt.Errorf("inserting sayings: %w", err)
	}
	stats.Sayings = len(sayings)

	if err := p.verses.RebuildKeywordIndex(ctx); err != nil {
		return stats, fmt.Errorf("rebuilding verse keyword index: %w", err)
	}
	if err := p.sayings.RebuildKeywordIndex(ctx); err != nil {
		return stats, fmt.Errorf("rebuilding saying keyword index: %w", err)
	}

	if err := p.refreshCollections(ctx, sayings); err != nil {
		return stats, err
	}

	p.logger.Info("csv import complete",
		"verses", stats.Verses,
		"sayings", stats.Sayings,
		"chapters", stats.Chapters,
		"names", stats.Names)
	return stats, nil
}

// Display names for the known collections. Unknown collections fall
// back to a capitalized key.
var collectionDisplayNames = map[string]string{
	"bukhari":  "Sahih al-Bukhari",
	"muslim":   "Sahih Muslim",
	"ahmad":    "Musnad Ahmad",
	"tirmidhi": "Jami at-Tirmidhi",
}

func displayName(collection string) string {
	if name, ok := collectionDisplayNames[collection]; ok {
		return name
	}
	runes := []rune(collection)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

// refreshCollections rewrites the collection metadata table. Totals are
// queried from the saying store so they stay truthful when the import
// added to existing rows.
func (p *Pipeline) refreshCollections(ctx context.Context, sayings []*core.Saying) error {
	seen := make(map[string]bool)
	names := make([]string, 0, 4)
	for _, saying := range sayings {
		if !seen[saying.Collection] {
			seen[saying.Collection] = true
			names = append(names, saying.Collection)
		}
	}
	sort.Strings(names)

	infos := make([]*core.CollectionInfo, 0, len(names))
	for _, name := range names {
		_, total, err := p.sayings.GetSayingPage(ctx, name, 1, 1)
		if err != nil {
			return fmt.Errorf("counting %s sayings: %w", name, err)
		}
		infos = append(infos, &core.CollectionInfo{
			Name:        name,
			DisplayName: displayName(name),
			Total:       total,
		})
	}
	if err := p.sayings.ReplaceCollections(ctx, infos); err != nil {
		return fmt.Errorf("replacing collection metadata: %w", err)
	}
	return nil
}

// Build runs the full pipeline: CSV import, embedding of both corpora,
// vector index emission and similarity edge computation. indexDir
// receives the index and id mapping artifacts.
func (p *Pipeline) Build(ctx context.Context, src Sources, indexDir string) (BuildStats, error) {
	var stats BuildStats
	started := time.Now()

	importStats, err := p.ImportCSV(ctx, src)
	if err != nil {
		return stats, err
	}
	stats.Import = importStats

	embedStats, err := p.EmbedCorpora(ctx)
	if err != nil {
		return stats, err
	}
	stats.Embed = embedStats

	if err := p.BuildVectorIndexes(ctx, indexDir); err != nil {
		return stats, err
	}

	edges, err := p.BuildSimilarityEdges(ctx)
	if err != nil {
		return stats, err
	}
	stats.Edges = edges

	p.logger.Info("build complete",
		"verses", stats.Import.Verses,
		"sayings", stats.Import.Sayings,
		"embedded", stats.Embed.Embedded,
		"cache_hits", stats.Embed.CacheHits,
		"edges", stats.Edges,
		"took", time.Since(started))
	return stats, nil
}

// Release frees the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
