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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/mishkat"
	"github.com/poiesic/mishkat/ai"
	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/ingestion"
	"github.com/poiesic/mishkat/server"
	"github.com/poiesic/mishkat/storage"
	"github.com/poiesic/mishkat/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mishkat",
		Usage: "Hybrid search over Quran translations and hadith collections",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP search API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the library data directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address to listen on",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "all-minilm",
					},
					&cli.IntFlag{
						Name:  "embedding-dim",
						Usage: "Embedding vector width",
						Value: 384,
					},
				},
			},
			{
				Name:   "build",
				Usage:  "Build the library from CSV sources",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the library data directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "verses-csv",
						Usage:    "Path to the verses CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "sayings-csv",
						Usage:    "Path to the sayings CSV file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "chapters-csv",
						Usage: "Path to the chapter metadata CSV file",
					},
					&cli.StringFlag{
						Name:  "names-csv",
						Usage: "Path to the divine names CSV file",
					},
					&cli.StringFlag{
						Name:  "cache",
						Usage: "Path to a BadgerDB embedding cache directory",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "all-minilm",
					},
					&cli.IntFlag{
						Name:  "embedding-dim",
						Usage: "Embedding vector width",
						Value: 384,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of texts to embed in each model call",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers (0 uses half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search a corpus from the terminal",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the library data directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "corpus",
						Usage: "Corpus to search (verses, sayings, all, unified)",
						Value: "all",
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Restrict sayings to one collection",
					},
					&cli.StringFlag{
						Name:  "topic",
						Usage: "Restrict sayings to one topic label",
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of hits to return",
						Value: 10,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "all-minilm",
					},
					&cli.IntFlag{
						Name:  "embedding-dim",
						Usage: "Embedding vector width",
						Value: 384,
					},
				},
			},
			{
				Name:   "related",
				Usage:  "List sayings similar to a given saying",
				Action: relatedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the library data directory",
						Required: true,
					},
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Saying record id",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of neighbors to return",
						Value: 5,
					},
				},
			},
			{
				Name:   "topics",
				Usage:  "List topic labels and their counts",
				Action: topicsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the library data directory",
						Required: true,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print corpus counts",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "Path to the library data directory",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	srv, err := server.New(
		server.Config{ListenAddr: c.String("listen")},
		lib.Verses(), lib.Sayings(), searcher, slog.Default(),
	)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)
	go func() {
		if runErr := srv.Run(); runErr != nil {
			errChan <- fmt.Errorf("server error: %w", runErr)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig.String())
		return srv.Shutdown()
	}
}

func buildCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	// Assemble pipeline options
	opts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithRetryPolicy(c.Int("max-retries"), c.Duration("retry-delay")),
		ingestion.WithProgress(os.Stderr),
	}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	if cachePath := c.String("cache"); cachePath != "" {
		cache, cacheErr := badger.OpenEmbeddingCache(cachePath, false)
		if cacheErr != nil {
			return fmt.Errorf("failed to open embedding cache: %w", cacheErr)
		}
		defer cache.Close()
		opts = append(opts, ingestion.WithVectorCache(cache))
	}

	pipeline, err := lib.NewPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	src := ingestion.Sources{
		VersesCSV:   c.String("verses-csv"),
		SayingsCSV:  c.String("sayings-csv"),
		ChaptersCSV: c.String("chapters-csv"),
		NamesCSV:    c.String("names-csv"),
	}

	fmt.Fprintf(os.Stderr, "Data directory: %s\n", c.String("data"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	stats, err := pipeline.Build(ctx, src, lib.IndexDir())
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d verses, %d sayings, %d chapters, %d names\n",
		stats.Import.Verses, stats.Import.Sayings, stats.Import.Chapters, stats.Import.Names)
	fmt.Fprintf(os.Stderr, "Embedded %d texts (%d cache hits)\n",
		stats.Embed.Embedded, stats.Embed.CacheHits)
	fmt.Fprintf(os.Stderr, "Computed %d similarity edges\n", stats.Edges)

	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query is required")
	}

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	filters := storage.SearchFilters{
		Collection: c.String("collection"),
		Topic:      c.String("topic"),
	}
	k := c.Int("k")

	switch corpus := c.String("corpus"); corpus {
	case "all":
		results, err := searcher.SearchAll(ctx, query, filters, k)
		if err != nil {
			return err
		}
		fmt.Println("Verses:")
		printResult(results.Verses)
		fmt.Println()
		fmt.Println("Sayings:")
		printResult(results.Sayings)
	case "unified":
		result, err := searcher.SearchUnified(ctx, query, filters, k)
		if err != nil {
			return err
		}
		printResult(result)
	default:
		parsed, parseErr := core.ParseCorpus(corpus)
		if parseErr != nil {
			return fmt.Errorf("invalid corpus %q: must be one of verses, sayings, all, unified", corpus)
		}
		result, err := searcher.Search(ctx, parsed, query, filters, k)
		if err != nil {
			return err
		}
		printResult(result)
	}

	return nil
}

func relatedCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	searcher, err := lib.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	hits, err := searcher.RelatedTo(ctx, core.CorpusSayings, core.RecordID(c.Int64("id")), c.Int("k"))
	if err != nil {
		return err
	}

	fmt.Printf("Found %d related sayings\n", len(hits))
	for i := 0; i < len(hits); i++ {
		printHit(i, hits[i])
	}
	return nil
}

func topicsCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	topics, err := lib.Sayings().Topics(ctx)
	if err != nil {
		return err
	}

	for _, topic := range topics {
		fmt.Printf("%s: %d\n", topic.Label, topic.Count)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	ctx := context.Background()

	lib, err := openLibrary(c)
	if err != nil {
		return err
	}
	defer lib.Close()

	verseCount, err := lib.Verses().CountVerses(ctx)
	if err != nil {
		return err
	}
	sayingCount, err := lib.Sayings().CountSayings(ctx)
	if err != nil {
		return err
	}
	chapters, err := lib.Verses().Chapters(ctx)
	if err != nil {
		return err
	}
	collections, err := lib.Sayings().Collections(ctx)
	if err != nil {
		return err
	}
	topics, err := lib.Sayings().Topics(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Verses:  %d in %d chapters\n", verseCount, len(chapters))
	fmt.Printf("Sayings: %d across %d topics\n", sayingCount, len(topics))
	for _, col := range collections {
		fmt.Printf("  %s: %d\n", col.DisplayName, col.Total)
	}
	return nil
}

// openLibrary opens the library named by the data flag, carrying the
// embedding flags through when the command defines them.
func openLibrary(c *cli.Context) (*mishkat.Library, error) {
	dataDir := c.String("data")
	if dataDir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	lib, err := mishkat.Open(dataDir, mishkat.WithAIConfig(embeddingConfig(c)))
	if err != nil {
		return nil, fmt.Errorf("failed to open library: %w", err)
	}
	return lib, nil
}

func embeddingConfig(c *cli.Context) *ai.Config {
	var opts []ai.ConfigOption
	if host := c.String("embedding-host"); host != "" {
		opts = append(opts, ai.WithEmbeddingHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if dim := c.Int("embedding-dim"); dim > 0 {
		opts = append(opts, ai.WithEmbeddingDim(dim))
	}
	return ai.NewConfig(opts...)
}

func printResult(result *core.SearchResult) {
	if result.Degraded {
		fmt.Fprintln(os.Stderr, "warning: one ranking source was unavailable, results may be partial")
	}
	fmt.Printf("Found %d hits\n", len(result.Hits))
	for i := 0; i < len(result.Hits); i++ {
		printHit(i, result.Hits[i])
	}
}

func printHit(i int, hit core.SearchHit) {
	switch {
	case hit.Verse != nil:
		fmt.Printf("%d: [%d:%d %s] '%s' [%0.4f]\n",
			i, hit.Verse.Chapter, hit.Verse.Number, hit.Verse.ChapterName, hit.Verse.Text, hit.Score)
	case hit.Saying != nil:
		fmt.Printf("%d: [%s %s] '%s' [%0.4f]\n",
			i, hit.Saying.Collection, hit.Saying.Reference, hit.Saying.Text, hit.Score)
	default:
		fmt.Printf("%d: [%s %d] [%0.4f]\n", i, hit.Corpus, hit.ID, hit.Score)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
