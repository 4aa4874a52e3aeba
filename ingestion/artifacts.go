package ingestion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/poiesic/mishkat/ann"
	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/search"
	"github.com/poiesic/mishkat/storage"
)

// BuildVectorIndexes writes the flat index and id mapping artifacts for
// both corpora into indexDir, from the stored embeddings.
func (p *Pipeline) BuildVectorIndexes(ctx context.Context, indexDir string) error {
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	if err := p.buildVectorIndex(ctx, core.CorpusVerses, p.verses, indexDir); err != nil {
		return err
	}
	if err := p.buildVectorIndex(ctx, core.CorpusSayings, p.sayings, indexDir); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) buildVectorIndex(ctx context.Context, corpus core.Corpus, store vectorStore, indexDir string) error {
	ids, vectors, err := store.Embeddings(ctx)
	if err != nil {
		return fmt.Errorf("loading %s embeddings: %w", corpus, err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%s: %w", corpus, ErrNoEmbeddings)
	}

	index, err := ann.NewFlatIndex(p.config.EmbeddingDim)
	if err != nil {
		return err
	}
	for i := 0; i < len(vectors); i++ {
		if _, err := index.Add(vectors[i]); err != nil {
			return fmt.Errorf("%s record %d: %w", corpus, ids[i], err)
		}
	}
	if err := index.Save(search.IndexPath(indexDir, corpus)); err != nil {
		return fmt.Errorf("writing %s index: %w", corpus, err)
	}

	mapping := make(ann.IDMapping, len(ids))
	for i, id := range ids {
		mapping[i] = int64(id)
	}
	if err := mapping.Save(search.MappingPath(indexDir, corpus)); err != nil {
		return fmt.Errorf("writing %s id mapping: %w", corpus, err)
	}

	p.logger.Info("vector index written", "corpus", corpus, "records", len(ids))
	return nil
}

// BuildSimilarityEdges recomputes the precomputed neighbor table: for
// every saying, the most cosine-similar other sayings by stored
// embedding. Fewer than two embedded sayings clears the table.
func (p *Pipeline) BuildSimilarityEdges(ctx context.Context) (int, error) {
	ids, vectors, err := p.sayings.Embeddings(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading saying embeddings: %w", err)
	}
	if len(ids) < 2 {
		return 0, p.sayings.ReplaceSimilarityEdges(ctx, nil)
	}
	for i := 0; i < len(vectors); i++ {
		if len(vectors[i]) != p.config.EmbeddingDim {
			return 0, fmt.Errorf("saying %d: %w: expected %d, received %d",
				ids[i], ErrVectorWidth, p.config.EmbeddingDim, len(vectors[i]))
		}
	}

	norms := make([]float64, len(vectors))
	for i := 0; i < len(vectors); i++ {
		norms[i] = vectorNorm(vectors[i])
	}

	// A chunk of source rows per pool task.
	const chunkSize = 256
	numChunks := (len(ids) + chunkSize - 1) / chunkSize
	results := make([][]storage.SimilarityEdge, numChunks)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)
	for c := 0; c < numChunks; c++ {
		chunk := c
		start := chunk * chunkSize
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				mu.Lock()
				errs = append(errs, ctx.Err())
				mu.Unlock()
				return
			}
			edges := make([]storage.SimilarityEdge, 0, (end-start)*neighborCount)
			for i := start; i < end; i++ {
				for _, neighbor := range topNeighbors(i, ids, vectors, norms, neighborCount) {
					edges = append(edges, storage.SimilarityEdge{
						SourceID:   ids[i],
						NeighborID: neighbor.ID,
						Score:      neighbor.Score,
					})
				}
			}
			results[chunk] = edges
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
		return 0, errors.Join(errs...)
	}

	edges := make([]storage.SimilarityEdge, 0, len(ids)*neighborCount)
	for _, chunk := range results {
		edges = append(edges, chunk...)
	}
	if err := p.sayings.ReplaceSimilarityEdges(ctx, edges); err != nil {
		return 0, fmt.Errorf("replacing similarity edges: %w", err)
	}

	p.logger.Info("similarity edges written", "sayings", len(ids), "edges", len(edges))
	return len(edges), nil
}

// topNeighbors returns the k rows most similar to row i, best first.
// Equal scores keep the lower row first.
func topNeighbors(i int, ids []core.RecordID, vectors [][]float32, norms []float64, k int) []core.ScoredID {
	best := make([]core.ScoredID, 0, k)
	for j := 0; j < len(vectors); j++ {
		if j == i {
			continue
		}
		score := cosine(vectors[i], vectors[j], norms[i], norms[j])
		best = insertNeighbor(best, k, core.ScoredID{ID: ids[j], Score: score})
	}
	return best
}

// insertNeighbor keeps best ordered by score descending, capped at k.
func insertNeighbor(best []core.ScoredID, k int, candidate core.ScoredID) []core.ScoredID {
	if len(best) == k && candidate.Score <= best[k-1].Score {
		return best
	}
	if len(best) < k {
		best = append(best, candidate)
	} else {
		best[k-1] = candidate
	}
	for i := len(best) - 1; i > 0 && best[i].Score > best[i-1].Score; i-- {
		best[i], best[i-1] = best[i-1], best[i]
	}
	return best
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for i := 0; i < len(v); i++ {
		sum += float64(v[i]) * float64(v[i])
	}
	return math.Sqrt(sum)
}
