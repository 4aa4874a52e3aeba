package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/poiesic/mishkat/core"
)

// vectorStore is the slice of a corpus repository the embedding and
// index stages need. Both corpus repositories satisfy it.
type vectorStore interface {
	PendingEmbeddings(ctx context.Context) ([]core.RecordID, []string, error)
	SetEmbeddings(ctx context.Context, vectors map[core.RecordID][]float32) error
	Embeddings(ctx context.Context) ([]core.RecordID, [][]float32, error)
}

// EmbedCorpora generates embeddings for every record that does not have
// one yet, verses first, then sayings.
func (p *Pipeline) EmbedCorpora(ctx context.Context) (EmbedStats, error) {
	var stats EmbedStats

	embedded, hits, err := p.embedPending(ctx, core.CorpusVerses, p.verses)
	if err != nil {
		return stats, fmt.Errorf("embedding verses: %w", err)
	}
	stats.Embedded += embedded
	stats.CacheHits += hits

	embedded, hits, err = p.embedPending(ctx, core.CorpusSayings, p.sayings)
	if err != nil {
		return stats, fmt.Errorf("embedding sayings: %w", err)
	}
	stats.Embedded += embedded
	stats.CacheHits += hits

	return stats, nil
}

// embedPending embeds all unembedded rows of one corpus in parallel
// batches and stores the vectors. Returns the number of freshly
// embedded texts and the number served from the cache.
func (p *Pipeline) embedPending(ctx context.Context, corpus core.Corpus, store vectorStore) (int, int, error) {
	ids, texts, err := store.PendingEmbeddings(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("listing pending rows: %w", err)
	}
	if len(ids) == 0 {
		p.logger.Info("no pending embeddings", "corpus", corpus)
		return 0, 0, nil
	}

	p.logger.Info("embedding corpus",
		"corpus", corpus,
		"pending", len(ids),
		"batch_size", p.batchSize)
	tracker := NewProgressTracker(p.progress, len(ids), p.batchSize)
	tracker.Start()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		vectors = make(map[core.RecordID][]float32, len(ids))
		hits    int
		errs    []error
	)
	for start := 0; start < len(ids); start += p.batchSize {
		end := start + p.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batchIDs := ids[start:end]
		batchTexts := texts[start:end]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			batch, batchHits, err := p.embedBatch(ctx, batchIDs, batchTexts)
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return
			}
			mu.Lock()
			for id, vector := range batch {
				vectors[id] = vector
			}
			hits += batchHits
			mu.Unlock()
			tracker.Increment(len(batchIDs))
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = append(errs, submitErr)
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return 0, 0, errors.Join(errs...)
	}
	tracker.Finish()

	if err := store.SetEmbeddings(ctx, vectors); err != nil {
		return 0, 0, fmt.Errorf("storing vectors: %w", err)
	}
	return len(vectors) - hits, hits, nil
}

// embedBatch resolves one batch of texts against the cache and the
// embedder. Cached vectors with the wrong width are re-embedded.
func (p *Pipeline) embedBatch(ctx context.Context, ids []core.RecordID, texts []string) (map[core.RecordID][]float32, int, error) {
	out := make(map[core.RecordID][]float32, len(ids))
	hits := 0
	missIdx := make([]int, 0, len(ids))
	missTexts := make([]string, 0, len(ids))

	for i, text := range texts {
		if p.cache != nil {
			vector, ok, err := p.cache.Get(p.config.EmbeddingModel, text)
			if err != nil {
				return nil, 0, fmt.Errorf("reading embedding cache: %w", err)
			}
			if ok && len(vector) == p.config.EmbeddingDim {
				out[ids[i]] = vector
				hits++
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, hits, nil
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(ctx, missTexts)
		return embedErr
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding batch of %d: %w", len(missTexts), err)
	}
	if len(vectors) != len(missTexts) {
		return nil, 0, fmt.Errorf("embedding result mismatch. expected %d, received %d",
			len(missTexts), len(vectors))
	}

	for j, vector := range vectors {
		if len(vector) != p.config.EmbeddingDim {
			return nil, 0, fmt.Errorf("record %d: %w: expected %d, received %d",
				ids[missIdx[j]], ErrVectorWidth, p.config.EmbeddingDim, len(vector))
		}
		out[ids[missIdx[j]]] = vector
		if p.cache != nil {
			if cacheErr := p.cache.Put(p.config.EmbeddingModel, missTexts[j], vector); cacheErr != nil {
				p.logger.Warn("caching embedding failed", "err", cacheErr)
			}
		}
	}
	return out, hits, nil
}
