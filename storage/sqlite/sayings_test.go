package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
)

func seedSayings(t *testing.T) *SayingStore {
	t.Helper()

	store, err := OpenSayingStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	err = store.AddSayings(ctx,
		&core.Saying{ID: 1, Collection: "bukhari", Reference: "Bukhari 1", Text: "Actions are judged by intentions", Topic: "intention"},
		&core.Saying{ID: 2, Collection: "bukhari", Reference: "Bukhari 1894", Text: "Fasting is a shield", Topic: "fasting"},
		&core.Saying{ID: 3, Collection: "muslim", Reference: "Muslim 1151", Text: "Every deed of the son of Adam is multiplied except fasting", Topic: "fasting"},
		&core.Saying{ID: 4, Collection: "muslim", Reference: "Muslim 2564", Text: "God does not look at your bodies but at your hearts", Topic: "sincerity"},
		&core.Saying{ID: 5, Collection: "tirmidhi", Reference: "Tirmidhi 766", Text: "The fasting person has two joys", Topic: "fasting"},
		&core.Saying{ID: 6, Collection: "abudawud", Reference: "Abu Dawud 2363", Text: "Whoever does not give up false speech God has no need of his fasting", Topic: "fasting"},
	)
	require.NoError(t, err)
	require.NoError(t, store.RebuildKeywordIndex(ctx))

	return store
}

func TestGetSayings_PreservesOrder(t *testing.T) {
	store := seedSayings(t)

	sayings, err := store.GetSayings(context.Background(), []core.RecordID{5, 1, 42, 3})
	require.NoError(t, err)
	require.Len(t, sayings, 3)
	assert.Equal(t, core.RecordID(5), sayings[0].ID)
	assert.Equal(t, core.RecordID(1), sayings[1].ID)
	assert.Equal(t, core.RecordID(3), sayings[2].ID)
	assert.Equal(t, "tirmidhi", sayings[0].Collection)
}

func TestGetSayingPage(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	t.Run("single collection", func(t *testing.T) {
		sayings, total, err := store.GetSayingPage(ctx, "bukhari", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, sayings, 2)
		assert.Equal(t, core.RecordID(1), sayings[0].ID)
		assert.Equal(t, core.RecordID(2), sayings[1].ID)
	})

	t.Run("all spans every collection", func(t *testing.T) {
		sayings, total, err := store.GetSayingPage(ctx, "all", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		assert.Len(t, sayings, 6)
	})

	t.Run("unknown collection", func(t *testing.T) {
		sayings, total, err := store.GetSayingPage(ctx, "nosuch", 1, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, sayings)
	})
}

func TestMatchSayings(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	matches, err := store.MatchSayings(ctx, "fasting", storage.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 4)
	for i := 0; i < len(matches)-1; i++ {
		assert.LessOrEqual(t, matches[i].Rank, matches[i+1].Rank)
	}
}

func TestMatchSayings_Filters(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	t.Run("collection", func(t *testing.T) {
		matches, err := store.MatchSayings(ctx, "fasting", storage.SearchFilters{Collection: "muslim"}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, core.RecordID(3), matches[0].ID)
	})

	t.Run("all collection is a no-op", func(t *testing.T) {
		matches, err := store.MatchSayings(ctx, "fasting", storage.SearchFilters{Collection: "all"}, 10)
		require.NoError(t, err)
		assert.Len(t, matches, 4)
	})

	t.Run("topic", func(t *testing.T) {
		matches, err := store.MatchSayings(ctx, "God", storage.SearchFilters{Topic: "sincerity"}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, core.RecordID(4), matches[0].ID)
	})

	t.Run("collection and topic", func(t *testing.T) {
		matches, err := store.MatchSayings(ctx, "fasting", storage.SearchFilters{Collection: "bukhari", Topic: "fasting"}, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, core.RecordID(2), matches[0].ID)
	})
}

func TestMatchSayings_MalformedQuery(t *testing.T) {
	store := seedSayings(t)

	matches, err := store.MatchSayings(context.Background(), "AND OR", storage.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFilterSayingIDs(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	t.Run("inactive filters pass through", func(t *testing.T) {
		ids := []core.RecordID{5, 2, 3}
		got, err := store.FilterSayingIDs(ctx, ids, storage.SearchFilters{Collection: "all"})
		require.NoError(t, err)
		assert.Equal(t, ids, got)
	})

	t.Run("collection filter preserves order", func(t *testing.T) {
		got, err := store.FilterSayingIDs(ctx, []core.RecordID{5, 2, 3, 1}, storage.SearchFilters{Collection: "bukhari"})
		require.NoError(t, err)
		assert.Equal(t, []core.RecordID{2, 1}, got)
	})

	t.Run("topic filter", func(t *testing.T) {
		got, err := store.FilterSayingIDs(ctx, []core.RecordID{1, 2, 3, 4}, storage.SearchFilters{Topic: "fasting"})
		require.NoError(t, err)
		assert.Equal(t, []core.RecordID{2, 3}, got)
	})

	t.Run("nothing survives", func(t *testing.T) {
		got, err := store.FilterSayingIDs(ctx, []core.RecordID{1, 2}, storage.SearchFilters{Collection: "nosuch"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestTopics_OrderedByCountThenLabel(t *testing.T) {
	store := seedSayings(t)

	topics, err := store.Topics(context.Background())
	require.NoError(t, err)
	require.Len(t, topics, 3)

	assert.Equal(t, core.FacetCount{Label: "fasting", Count: 4}, topics[0])
	assert.Equal(t, core.FacetCount{Label: "intention", Count: 1}, topics[1])
	assert.Equal(t, core.FacetCount{Label: "sincerity", Count: 1}, topics[2])
}

func TestTopics_SkipsEmptyTopic(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	err := store.AddSayings(ctx, &core.Saying{ID: 7, Collection: "bukhari", Text: "untagged saying"})
	require.NoError(t, err)

	topics, err := store.Topics(ctx)
	require.NoError(t, err)
	assert.Len(t, topics, 3)
}

func TestSayingsByTopic_Pagination(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	// Four fasting sayings split into pages of two, ordered by
	// collection then id: abudawud 6, bukhari 2, muslim 3, tirmidhi 5.
	page1, total, err := store.SayingsByTopic(ctx, "fasting", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page1, 2)
	assert.Equal(t, core.RecordID(6), page1[0].ID)
	assert.Equal(t, core.RecordID(2), page1[1].ID)

	page2, total, err := store.SayingsByTopic(ctx, "fasting", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page2, 2)
	assert.Equal(t, core.RecordID(3), page2[0].ID)
	assert.Equal(t, core.RecordID(5), page2[1].ID)
}

func TestSayingsByTopic_Unknown(t *testing.T) {
	store := seedSayings(t)

	sayings, total, err := store.SayingsByTopic(context.Background(), "nosuch", 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, sayings)
}

func TestSimilarSayings(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	edges := []storage.SimilarityEdge{
		{SourceID: 1, NeighborID: 2, Score: 0.91},
		{SourceID: 1, NeighborID: 3, Score: 0.85},
		{SourceID: 1, NeighborID: 4, Score: 0.72},
		{SourceID: 2, NeighborID: 1, Score: 0.91},
	}
	require.NoError(t, store.ReplaceSimilarityEdges(ctx, edges))

	neighbors, err := store.SimilarSayings(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, core.ScoredID{ID: 2, Score: 0.91}, neighbors[0])
	assert.Equal(t, core.ScoredID{ID: 3, Score: 0.85}, neighbors[1])

	// No edges is an empty result, not an error.
	neighbors, err = store.SimilarSayings(ctx, 42, 5)
	require.NoError(t, err)
	assert.Empty(t, neighbors)

	// Replacing drops the previous edge set.
	require.NoError(t, store.ReplaceSimilarityEdges(ctx, edges[:1]))
	neighbors, err = store.SimilarSayings(ctx, 2, 5)
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}

func TestReplaceCollections(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	collections := []*core.CollectionInfo{
		{Name: "muslim", DisplayName: "Sahih Muslim", Total: 2},
		{Name: "bukhari", DisplayName: "Sahih al-Bukhari", Total: 2},
	}
	require.NoError(t, store.ReplaceCollections(ctx, collections))

	got, err := store.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bukhari", got[0].Name)
	assert.Equal(t, "Sahih al-Bukhari", got[0].DisplayName)
	assert.Equal(t, "muslim", got[1].Name)
}

func TestAddSayings_Invalid(t *testing.T) {
	store := seedSayings(t)

	err := store.AddSayings(context.Background(), &core.Saying{ID: 10, Text: "no collection"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidSaying))
}

func TestSayingEmbeddings(t *testing.T) {
	store := seedSayings(t)
	ctx := context.Background()

	require.NoError(t, store.SetEmbeddings(ctx, map[core.RecordID][]float32{
		2: {1, 0},
		5: {0, 1},
	}))

	ids, vectors, err := store.Embeddings(ctx)
	require.NoError(t, err)
	require.Equal(t, []core.RecordID{2, 5}, ids)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{0, 1}, vectors[1])

	ids, texts, err := store.PendingEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.RecordID{1, 3, 4, 6}, ids)
	require.Len(t, texts, 4)
	assert.Equal(t, "Actions are judged by intentions", texts[0])
}

func TestCountSayings(t *testing.T) {
	store := seedSayings(t)

	count, err := store.CountSayings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestNewMemoryStores(t *testing.T) {
	verses, sayings, err := NewMemoryStores()
	require.NoError(t, err)
	defer verses.Close()
	defer sayings.Close()

	count, err := verses.CountVerses(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = sayings.CountSayings(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}
