package search

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/mishkat/ann"
	"github.com/poiesic/mishkat/core"
)

// writeArtifacts builds a small ANN index plus id mapping for a corpus
// under dir, the way the offline build pipeline lays them out.
func writeArtifacts(t *testing.T, dir string, corpus core.Corpus, ids []int64, vectors [][]float32) {
	t.Helper()
	require.Equal(t, len(ids), len(vectors))

	index, err := ann.NewFlatIndex(len(vectors[0]))
	require.NoError(t, err)
	for _, v := range vectors {
		_, err := index.Add(v)
		require.NoError(t, err)
	}
	require.NoError(t, index.Save(IndexPath(dir, corpus)))
	require.NoError(t, ann.IDMapping(ids).Save(MappingPath(dir, corpus)))
}

func TestRegistryLoad(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, core.CorpusVerses, []int64{10, 20, 30},
		[][]float32{{0, 0}, {1, 0}, {0, 1}})

	registry, err := NewRegistry(dir)
	require.NoError(t, err)

	ci, err := registry.Load(core.CorpusVerses)
	require.NoError(t, err)
	assert.Equal(t, 3, ci.Index.Len())
	assert.Len(t, ci.Mapping, 3)

	// Second load serves the cached pair.
	again, err := registry.Load(core.CorpusVerses)
	require.NoError(t, err)
	assert.Same(t, ci, again)
}

func TestRegistryLoad_UnknownCorpus(t *testing.T) {
	registry, err := NewRegistry(t.TempDir())
	require.NoError(t, err)

	_, err = registry.Load(core.Corpus("poems"))
	assert.ErrorIs(t, err, core.ErrUnknownCorpus)
}

func TestRegistryLoad_MissingArtifactsRetryable(t *testing.T) {
	dir := t.TempDir()
	registry, err := NewRegistry(dir)
	require.NoError(t, err)

	_, err = registry.Load(core.CorpusVerses)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCorruptIndex)

	// Failures are not cached: once the build pipeline writes the
	// artifacts, the same registry serves them.
	writeArtifacts(t, dir, core.CorpusVerses, []int64{1}, [][]float32{{0.5, 0.5}})

	ci, err := registry.Load(core.CorpusVerses)
	require.NoError(t, err)
	assert.Equal(t, 1, ci.Index.Len())
}

func TestRegistryLoad_CardinalityMismatch(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, core.CorpusSayings, []int64{1, 2},
		[][]float32{{0, 0}, {1, 1}})

	// Overwrite the mapping with one entry too few.
	require.NoError(t, ann.IDMapping{1}.Save(MappingPath(dir, core.CorpusSayings)))

	registry, err := NewRegistry(dir)
	require.NoError(t, err)

	_, err = registry.Load(core.CorpusSayings)
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestRegistryLoad_Concurrent(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, core.CorpusVerses, []int64{1, 2},
		[][]float32{{0, 0}, {1, 1}})

	registry, err := NewRegistry(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	loaded := make([]*CorpusIndex, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ci, err := registry.Load(core.CorpusVerses)
			assert.NoError(t, err)
			loaded[i] = ci
		}(i)
	}
	wg.Wait()

	// Every goroutine observed the same loaded instance.
	for i := 1; i < len(loaded); i++ {
		assert.Same(t, loaded[0], loaded[i])
	}
}

func TestRegistryReload(t *testing.T) {
	dir := t.TempDir()
	writeArtifacts(t, dir, core.CorpusVerses, []int64{1}, [][]float32{{0, 0}})

	registry, err := NewRegistry(dir)
	require.NoError(t, err)

	ci, err := registry.Load(core.CorpusVerses)
	require.NoError(t, err)
	require.Equal(t, 1, ci.Index.Len())

	// Rebuild with two vectors; Reload makes the next Load read the
	// fresh artifacts.
	writeArtifacts(t, dir, core.CorpusVerses, []int64{1, 2},
		[][]float32{{0, 0}, {1, 1}})
	require.NoError(t, registry.Reload(core.CorpusVerses))

	fresh, err := registry.Load(core.CorpusVerses)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Index.Len())

	require.NoError(t, registry.Close())
}

func TestRegistryReload_UnknownCorpus(t *testing.T) {
	registry, err := NewRegistry(t.TempDir())
	require.NoError(t, err)

	assert.ErrorIs(t, registry.Reload(core.Corpus("poems")), core.ErrUnknownCorpus)
}
