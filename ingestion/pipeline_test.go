package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/mishkat/ai"
	"github.com/poiesic/mishkat/ai/mock"
	"github.com/poiesic/mishkat/ann"
	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/search"
	"github.com/poiesic/mishkat/storage"
	"github.com/poiesic/mishkat/storage/badger"
	"github.com/poiesic/mishkat/storage/sqlite"
)

const (
	fixtureVersesCSV = `id,chapter,verse,chapter_name,text
1,1,1,Al-Fatihah,In the name of God the Most Merciful
2,1,2,Al-Fatihah,All praise is due to God Lord of the worlds
3,2,1,Al-Baqarah,This is the Book about which there is no doubt
`

	fixtureSayingsCSV = `id,collection,reference,text,topic,grade,question
1,bukhari,1:1,Actions are judged by intentions,intention,sahih,
2,muslim,2:7,Fasting is a shield,fasting,sahih,What protects the believer?
3,bukhari,1:9,The best of you learn and teach,knowledge,sahih,
`

	fixtureChaptersCSV = `number,name,english_name,verse_count,revelation
1,الفاتحة,The Opening,7,Meccan
2,البقرة,The Cow,286,Medinan
`

	fixtureNamesCSV = `id,name,transliteration,meaning
1,الرحمن,Ar-Rahman,The Most Merciful
2,الرحيم,Ar-Raheem,The Bestower of Mercy
`
)

type pipelineFixture struct {
	verses   *sqlite.VerseStore
	sayings  *sqlite.SayingStore
	embedder *mock.MockEmbedder
	pipeline *Pipeline
	src      Sources
}

func newPipelineFixture(t *testing.T, opts ...Option) *pipelineFixture {
	t.Helper()

	verses, sayings, err := sqlite.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		verses.Close()
		sayings.Close()
	})

	embedder := mock.NewMockEmbedder()
	embedder.Dim = 8
	config := ai.NewConfig(ai.WithEmbeddingDim(8))

	pipeline, err := NewPipeline(verses, sayings, embedder, config, opts...)
	require.NoError(t, err)
	t.Cleanup(pipeline.Release)

	return &pipelineFixture{
		verses:   verses,
		sayings:  sayings,
		embedder: embedder,
		pipeline: pipeline,
		src: Sources{
			VersesCSV:   writeCSV(t, "verses.csv", fixtureVersesCSV),
			SayingsCSV:  writeCSV(t, "sayings.csv", fixtureSayingsCSV),
			ChaptersCSV: writeCSV(t, "chapters.csv", fixtureChaptersCSV),
			NamesCSV:    writeCSV(t, "names.csv", fixtureNamesCSV),
		},
	}
}

func (f *pipelineFixture) importAndEmbed(t *testing.T, ctx context.Context) {
	t.Helper()
	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)
	_, err = f.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)
}

func TestNewPipeline(t *testing.T) {
	verses, sayings, err := sqlite.NewMemoryStores()
	require.NoError(t, err)
	defer verses.Close()
	defer sayings.Close()

	embedder := mock.NewMockEmbedder()
	config := ai.DefaultConfig()

	t.Run("valid pipeline", func(t *testing.T) {
		p, err := NewPipeline(verses, sayings, embedder, config)
		require.NoError(t, err)
		require.NotNil(t, p)
		defer p.Release()

		assert.NotNil(t, p.pool)
		assert.Equal(t, defaultEmbedBatchSize, p.batchSize)
		assert.Equal(t, defaultMaxRetries, p.maxRetries)
	})

	t.Run("nil verse repository", func(t *testing.T) {
		_, err := NewPipeline(nil, sayings, embedder, config)
		assert.Equal(t, ErrVerseRepositoryRequired, err)
	})

	t.Run("nil saying repository", func(t *testing.T) {
		_, err := NewPipeline(verses, nil, embedder, config)
		assert.Equal(t, ErrSayingRepositoryRequired, err)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewPipeline(verses, sayings, nil, config)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewPipeline(verses, sayings, embedder, nil)
		assert.Equal(t, ErrConfigRequired, err)
	})
}

func TestPipeline_WithOptions(t *testing.T) {
	verses, sayings, err := sqlite.NewMemoryStores()
	require.NoError(t, err)
	defer verses.Close()
	defer sayings.Close()

	embedder := mock.NewMockEmbedder()
	config := ai.DefaultConfig()

	t.Run("with pool size", func(t *testing.T) {
		p, err := NewPipeline(verses, sayings, embedder, config, WithPoolSize(2))
		require.NoError(t, err)
		defer p.Release()

		assert.NotNil(t, p.pool)
	})

	t.Run("with pool size zero defaults to 1", func(t *testing.T) {
		p, err := NewPipeline(verses, sayings, embedder, config, WithPoolSize(0))
		require.NoError(t, err)
		defer p.Release()

		assert.NotNil(t, p.pool)
	})

	t.Run("with custom logger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		p, err := NewPipeline(verses, sayings, embedder, config, WithLogger(logger))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, logger, p.logger)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		p, err := NewPipeline(verses, sayings, embedder, config, WithLogger(nil))
		require.NoError(t, err)
		defer p.Release()

		assert.NotNil(t, p.logger)
	})

	t.Run("with batch size", func(t *testing.T) {
		p, err := NewPipeline(verses, sayings, embedder, config, WithBatchSize(4))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 4, p.batchSize)
	})

	t.Run("with batch size zero clamps to 1", func(t *testing.T) {
		p, err := NewPipeline(verses, sayings, embedder, config, WithBatchSize(0))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 1, p.batchSize)
	})

	t.Run("with retry policy", func(t *testing.T) {
		p, err := NewPipeline(verses, sayings, embedder, config, WithRetryPolicy(5, 10*time.Millisecond))
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 5, p.maxRetries)
		assert.Equal(t, 10*time.Millisecond, p.retryDelay)
	})

	t.Run("with invalid retry policy", func(t *testing.T) {
		_, err := NewPipeline(verses, sayings, embedder, config, WithRetryPolicy(0, time.Second))
		assert.Equal(t, ErrInvalidMaxAttempts, err)
	})

	t.Run("with vector cache", func(t *testing.T) {
		cache, err := badger.NewMemoryCache()
		require.NoError(t, err)
		defer cache.Close()

		p, err := NewPipeline(verses, sayings, embedder, config, WithVectorCache(cache))
		require.NoError(t, err)
		defer p.Release()

		assert.NotNil(t, p.cache)
	})

	t.Run("with multiple options", func(t *testing.T) {
		var progress bytes.Buffer
		p, err := NewPipeline(verses, sayings, embedder, config,
			WithPoolSize(2),
			WithBatchSize(16),
			WithProgress(&progress),
		)
		require.NoError(t, err)
		defer p.Release()

		assert.Equal(t, 16, p.batchSize)
	})
}

func TestPipeline_Release(t *testing.T) {
	verses, sayings, err := sqlite.NewMemoryStores()
	require.NoError(t, err)
	defer verses.Close()
	defer sayings.Close()

	p, err := NewPipeline(verses, sayings, mock.NewMockEmbedder(), ai.DefaultConfig())
	require.NoError(t, err)

	p.Release()
	p.Release() // second release must not panic
}

func TestImportCSV(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	stats, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Verses: 3, Sayings: 3, Chapters: 2, Names: 2}, stats)

	verses, err := f.verses.GetVerses(ctx, []core.RecordID{2})
	require.NoError(t, err)
	require.Len(t, verses, 1)
	assert.Equal(t, 1, verses[0].Chapter)
	assert.Equal(t, 2, verses[0].Number)
	assert.Equal(t, "Al-Fatihah", verses[0].ChapterName)

	chapters, err := f.verses.Chapters(ctx)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "The Opening", chapters[0].EnglishName)
	assert.Equal(t, 286, chapters[1].VerseCount)

	names, err := f.verses.DivineNames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 2)

	// The keyword indexes answer queries right after the import.
	matches, err := f.verses.MatchVerses(ctx, "praise", 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, core.RecordID(2), matches[0].ID)

	sayingMatches, err := f.sayings.MatchSayings(ctx, "fasting", storage.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, sayingMatches, 1)
	assert.Equal(t, core.RecordID(2), sayingMatches[0].ID)

	collections, err := f.sayings.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "bukhari", collections[0].Name)
	assert.Equal(t, "Sahih al-Bukhari", collections[0].DisplayName)
	assert.Equal(t, 2, collections[0].Total)
	assert.Equal(t, "muslim", collections[1].Name)
	assert.Equal(t, 1, collections[1].Total)
}

func TestImportCSV_MissingSources(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, Sources{SayingsCSV: f.src.SayingsCSV})
	assert.ErrorIs(t, err, ErrVersesSourceRequired)

	_, err = f.pipeline.ImportCSV(ctx, Sources{VersesCSV: f.src.VersesCSV})
	assert.ErrorIs(t, err, ErrSayingsSourceRequired)
}

func TestImportCSV_OptionalSourcesSkipped(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	stats, err := f.pipeline.ImportCSV(ctx, Sources{
		VersesCSV:  f.src.VersesCSV,
		SayingsCSV: f.src.SayingsCSV,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Chapters)
	assert.Equal(t, 0, stats.Names)

	chapters, err := f.verses.Chapters(ctx)
	require.NoError(t, err)
	assert.Empty(t, chapters)
}

func TestEmbedCorpora(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)

	stats, err := f.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Embedded)
	assert.Equal(t, 0, stats.CacheHits)

	ids, vectors, err := f.verses.Embeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.RecordID{1, 2, 3}, ids)
	for i := 0; i < len(vectors); i++ {
		assert.Len(t, vectors[i], 8)
	}

	// Vectors line up with their rows even when batches reorder work.
	want, err := f.embedder.EmbedText(ctx, "In the name of God the Most Merciful")
	require.NoError(t, err)
	assert.Equal(t, want, vectors[0])

	sayingIDs, _, err := f.sayings.Embeddings(ctx)
	require.NoError(t, err)
	assert.Len(t, sayingIDs, 3)

	// A second run finds nothing pending.
	stats, err = f.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Embedded)
	assert.Equal(t, 0, stats.CacheHits)
}

func TestEmbedCorpora_SmallBatches(t *testing.T) {
	f := newPipelineFixture(t, WithBatchSize(2), WithPoolSize(2))
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)

	stats, err := f.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Embedded)

	ids, vectors, err := f.verses.Embeddings(ctx)
	require.NoError(t, err)
	require.Equal(t, []core.RecordID{1, 2, 3}, ids)

	want, err := f.embedder.EmbedText(ctx, "This is the Book about which there is no doubt")
	require.NoError(t, err)
	assert.Equal(t, want, vectors[2])
}

func TestEmbedCorpora_UsesCache(t *testing.T) {
	cache, err := badger.NewMemoryCache()
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()

	first := newPipelineFixture(t, WithVectorCache(cache))
	_, err = first.pipeline.ImportCSV(ctx, first.src)
	require.NoError(t, err)

	stats, err := first.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Embedded)
	assert.Equal(t, 0, stats.CacheHits)

	cached, err := cache.Len()
	require.NoError(t, err)
	assert.Equal(t, 6, cached)

	// A fresh database with the same texts is served entirely from the
	// cache, without touching the embedder.
	second := newPipelineFixture(t, WithVectorCache(cache))
	_, err = second.pipeline.ImportCSV(ctx, second.src)
	require.NoError(t, err)

	stats, err = second.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Embedded)
	assert.Equal(t, 6, stats.CacheHits)
	assert.Equal(t, 0, second.embedder.CallCount())

	_, firstVectors, err := first.verses.Embeddings(ctx)
	require.NoError(t, err)
	_, secondVectors, err := second.verses.Embeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstVectors, secondVectors)
}

func TestEmbedCorpora_VectorWidthMismatch(t *testing.T) {
	f := newPipelineFixture(t, WithPoolSize(1))
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)

	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := 0; i < len(texts); i++ {
			out[i] = []float32{1, 2, 3}
		}
		return out, nil
	}

	_, err = f.pipeline.EmbedCorpora(ctx)
	assert.ErrorIs(t, err, ErrVectorWidth)
}

func TestEmbedCorpora_ResultCountMismatch(t *testing.T) {
	f := newPipelineFixture(t, WithPoolSize(1))
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)

	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{make([]float32, 8)}, nil
	}

	_, err = f.pipeline.EmbedCorpora(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding result mismatch")
}

func TestEmbedCorpora_RetriesTransientFailure(t *testing.T) {
	f := newPipelineFixture(t, WithPoolSize(1), WithRetryPolicy(3, time.Millisecond))
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)

	var calls atomic.Int32
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("model warming up")
		}
		out := make([][]float32, len(texts))
		for i := 0; i < len(texts); i++ {
			out[i] = make([]float32, 8)
			out[i][0] = 1
		}
		return out, nil
	}

	stats, err := f.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Embedded)
	assert.Equal(t, int32(3), calls.Load(), "one failed attempt, one retry, one sayings batch")
}

func TestEmbedCorpora_ExhaustedRetries(t *testing.T) {
	f := newPipelineFixture(t, WithPoolSize(1), WithRetryPolicy(2, time.Millisecond))
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)

	var calls atomic.Int32
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls.Add(1)
		return nil, errors.New("model offline")
	}

	_, err = f.pipeline.EmbedCorpora(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
	assert.Equal(t, int32(2), calls.Load())
}

func TestBuildVectorIndexes(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.importAndEmbed(t, ctx)

	dir := filepath.Join(t.TempDir(), "artifacts")
	require.NoError(t, f.pipeline.BuildVectorIndexes(ctx, dir))

	index, err := ann.Load(search.IndexPath(dir, core.CorpusVerses))
	require.NoError(t, err)
	assert.Equal(t, 3, index.Len())
	assert.Equal(t, 8, index.Dim())

	mapping, err := ann.LoadMapping(search.MappingPath(dir, core.CorpusVerses))
	require.NoError(t, err)
	assert.Equal(t, ann.IDMapping{1, 2, 3}, mapping)

	index, err = ann.Load(search.IndexPath(dir, core.CorpusSayings))
	require.NoError(t, err)
	assert.Equal(t, 3, index.Len())
}

func TestBuildVectorIndexes_NoEmbeddings(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)

	err = f.pipeline.BuildVectorIndexes(ctx, t.TempDir())
	assert.ErrorIs(t, err, ErrNoEmbeddings)
}

func TestBuildSimilarityEdges(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	_, err := f.pipeline.ImportCSV(ctx, f.src)
	require.NoError(t, err)

	// Fixed vectors make the neighbor ranking exact: saying 2 points
	// almost the same way as saying 1, saying 3 is orthogonal to it.
	byText := map[string][]float32{
		"Actions are judged by intentions": {1, 0, 0, 0, 0, 0, 0, 0},
		"Fasting is a shield":              {0.9, 0.1, 0, 0, 0, 0, 0, 0},
		"The best of you learn and teach":  {0, 1, 0, 0, 0, 0, 0, 0},
	}
	f.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := 0; i < len(texts); i++ {
			if vector, ok := byText[texts[i]]; ok {
				out[i] = vector
				continue
			}
			out[i] = []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
		}
		return out, nil
	}

	_, err = f.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)

	edges, err := f.pipeline.BuildSimilarityEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, edges, "three sayings with two neighbors each")

	similar, err := f.sayings.SimilarSayings(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, core.RecordID(2), similar[0].ID)
	assert.InDelta(t, 0.9939, similar[0].Score, 0.001)
	assert.Equal(t, core.RecordID(3), similar[1].ID)
	assert.InDelta(t, 0.0, similar[1].Score, 1e-6)
}

func TestBuildSimilarityEdges_CapsNeighbors(t *testing.T) {
	var rows bytes.Buffer
	rows.WriteString("id,collection,reference,text\n")
	for i := 1; i <= 7; i++ {
		fmt.Fprintf(&rows, "%d,bukhari,1:%d,unique saying number %d\n", i, i, i)
	}

	f := newPipelineFixture(t)
	ctx := context.Background()

	src := f.src
	src.SayingsCSV = writeCSV(t, "seven.csv", rows.String())
	_, err := f.pipeline.ImportCSV(ctx, src)
	require.NoError(t, err)
	_, err = f.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)

	edges, err := f.pipeline.BuildSimilarityEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 35, edges, "seven sayings capped at five neighbors each")

	similar, err := f.sayings.SimilarSayings(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, similar, 5)
}

func TestBuildSimilarityEdges_TooFewSayings(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	src := f.src
	src.SayingsCSV = writeCSV(t, "single.csv", "id,collection,reference,text\n1,bukhari,1:1,Actions are judged by intentions\n")
	_, err := f.pipeline.ImportCSV(ctx, src)
	require.NoError(t, err)
	_, err = f.pipeline.EmbedCorpora(ctx)
	require.NoError(t, err)

	edges, err := f.pipeline.BuildSimilarityEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, edges)

	similar, err := f.sayings.SimilarSayings(ctx, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestBuild(t *testing.T) {
	cache, err := badger.NewMemoryCache()
	require.NoError(t, err)
	defer cache.Close()

	var progress bytes.Buffer
	f := newPipelineFixture(t, WithVectorCache(cache), WithProgress(&progress), WithBatchSize(2))
	ctx := context.Background()

	dir := filepath.Join(t.TempDir(), "index")
	stats, err := f.pipeline.Build(ctx, f.src, dir)
	require.NoError(t, err)

	assert.Equal(t, ImportStats{Verses: 3, Sayings: 3, Chapters: 2, Names: 2}, stats.Import)
	assert.Equal(t, EmbedStats{Embedded: 6, CacheHits: 0}, stats.Embed)
	assert.Equal(t, 6, stats.Edges)

	corpora := []core.Corpus{core.CorpusVerses, core.CorpusSayings}
	for i := 0; i < len(corpora); i++ {
		_, err = os.Stat(search.IndexPath(dir, corpora[i]))
		assert.NoError(t, err)
		_, err = os.Stat(search.MappingPath(dir, corpora[i]))
		assert.NoError(t, err)
	}

	assert.Contains(t, progress.String(), "3/3", "progress written per corpus")
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Sahih al-Bukhari", displayName("bukhari"))
	assert.Equal(t, "Musnad Ahmad", displayName("ahmad"))
	assert.Equal(t, "Nawawi", displayName("nawawi"))
	assert.Equal(t, "", displayName(""))
}

func TestInsertNeighbor(t *testing.T) {
	var best []core.ScoredID
	best = insertNeighbor(best, 3, core.ScoredID{ID: 1, Score: 0.5})
	best = insertNeighbor(best, 3, core.ScoredID{ID: 2, Score: 0.9})
	best = insertNeighbor(best, 3, core.ScoredID{ID: 3, Score: 0.1})
	best = insertNeighbor(best, 3, core.ScoredID{ID: 4, Score: 0.7})

	require.Len(t, best, 3)
	assert.Equal(t, []core.ScoredID{
		{ID: 2, Score: 0.9},
		{ID: 4, Score: 0.7},
		{ID: 1, Score: 0.5},
	}, best)

	// Ties keep the earlier candidate ahead.
	best = insertNeighbor(best, 3, core.ScoredID{ID: 5, Score: 0.7})
	assert.Equal(t, core.RecordID(4), best[1].ID)
	assert.Equal(t, core.RecordID(5), best[2].ID)

	// A candidate below the floor is ignored once the list is full.
	best = insertNeighbor(best, 3, core.ScoredID{ID: 6, Score: 0.2})
	assert.Equal(t, core.RecordID(5), best[2].ID)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{2, 0}, 1, 2), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}, 1, 1), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}, 1, 1), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 0}, 0, 1), "zero vectors have no direction")

	assert.InDelta(t, 5.0, vectorNorm([]float32{3, 4}), 1e-9)
}
