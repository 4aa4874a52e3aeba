package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
	"github.com/poiesic/mishkat/storage/sqlite"
)

func TestNewKeywordSource(t *testing.T) {
	verses, sayings, err := sqlite.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		verses.Close()
		sayings.Close()
	})

	t.Run("nil verse repository", func(t *testing.T) {
		_, err := NewKeywordSource(nil, sayings)
		assert.Equal(t, ErrVerseRepositoryRequired, err)
	})

	t.Run("nil saying repository", func(t *testing.T) {
		_, err := NewKeywordSource(verses, nil)
		assert.Equal(t, ErrSayingRepositoryRequired, err)
	})

	t.Run("unknown corpus", func(t *testing.T) {
		source, err := NewKeywordSource(verses, sayings)
		require.NoError(t, err)

		_, err = source.Search(context.Background(), core.Corpus("psalms"), "light", storage.SearchFilters{}, 5)
		assert.ErrorIs(t, err, core.ErrUnknownCorpus)
	})
}

func TestRankScore(t *testing.T) {
	assert.Equal(t, 1.0, rankScore(0))
	assert.InDelta(t, 0.5, rankScore(1), 1e-9)
	assert.InDelta(t, 0.5, rankScore(-1), 1e-9)
	assert.InDelta(t, 1.0/6, rankScore(-5), 1e-9)

	ranks := []float64{-12.7, -0.01, 0, 3}
	for i := 0; i < len(ranks); i++ {
		score := rankScore(ranks[i])
		assert.Greater(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}
