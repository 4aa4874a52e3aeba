package storage

import (
	"context"

	"github.com/poiesic/mishkat/core"
)

// KeywordMatch is one row returned by a corpus keyword index: a record
// id with the index's native relevance rank. Lower rank means more
// relevant; SQLite FTS5 ranks are negative.
type KeywordMatch struct {
	ID   core.RecordID
	Rank float64
}

// SearchFilters narrows keyword matches to records with the given
// attribute values. Fields are ANDed with the text match; the zero
// value applies no filter. Filters are a closed set so predicates are
// always built with bound parameters.
type SearchFilters struct {
	// Collection restricts sayings to one source collection.
	// Empty or "all" disables the filter. Ignored for verses.
	Collection string

	// Topic restricts sayings to one topic label. Empty disables the
	// filter. Ignored for verses.
	Topic string
}

// Active reports whether any filter field is set.
func (f SearchFilters) Active() bool {
	return f.CollectionFilter() != "" || f.Topic != ""
}

// CollectionFilter returns the effective collection filter, treating
// the "all" pseudo-collection as unset.
func (f SearchFilters) CollectionFilter() string {
	if f.Collection == "all" {
		return ""
	}
	return f.Collection
}

// SimilarityEdge is one precomputed neighbor relation between two
// records of the same corpus.
type SimilarityEdge struct {
	SourceID   core.RecordID
	NeighborID core.RecordID
	Score      float64
}

// VerseRepository provides access to the verses corpus.
type VerseRepository interface {
	// GetVerses retrieves verses by id, preserving the given id order.
	// Ids without a backing row are skipped (no error for missing rows).
	GetVerses(ctx context.Context, ids []core.RecordID) ([]*core.Verse, error)

	// GetVersePage retrieves one page of verses ordered by id, optionally
	// restricted to a chapter (0 means all chapters). Returns the page
	// rows and the total row count for the filter.
	GetVersePage(ctx context.Context, chapter, page, perPage int) ([]*core.Verse, int, error)

	// MatchVerses runs a full-text query over the verse keyword index.
	// Returns up to k matches ordered by rank (best first). A malformed
	// match expression yields an empty result, not an error.
	MatchVerses(ctx context.Context, query string, k int) ([]KeywordMatch, error)

	// Chapters lists chapter info ordered by chapter number.
	Chapters(ctx context.Context) ([]*core.Chapter, error)

	// DivineNames lists the names table in id order.
	DivineNames(ctx context.Context) ([]*core.DivineName, error)

	// CountVerses returns the total number of verses.
	CountVerses(ctx context.Context) (int, error)

	// AddVerses inserts verses. Records must pass core.ValidateVerse.
	AddVerses(ctx context.Context, verses ...*core.Verse) error

	// ReplaceChapters replaces the chapter info table.
	ReplaceChapters(ctx context.Context, chapters []*core.Chapter) error

	// ReplaceDivineNames replaces the names table.
	ReplaceDivineNames(ctx context.Context, names []*core.DivineName) error

	// SetEmbeddings stores embedding vectors for the given verse ids.
	SetEmbeddings(ctx context.Context, vectors map[core.RecordID][]float32) error

	// Embeddings returns all stored (id, vector) pairs ordered by id,
	// skipping rows without an embedding. The two slices are parallel.
	Embeddings(ctx context.Context) ([]core.RecordID, [][]float32, error)

	// PendingEmbeddings returns ids and embeddable text for rows that
	// have no stored vector yet, ordered by id. The slices are parallel.
	PendingEmbeddings(ctx context.Context) ([]core.RecordID, []string, error)

	// RebuildKeywordIndex rebuilds the full-text index from the verse
	// rows. Call after bulk inserts.
	RebuildKeywordIndex(ctx context.Context) error

	// Close closes the underlying database.
	Close() error
}

// SayingRepository provides access to the sayings corpus.
type SayingRepository interface {
	// GetSayings retrieves sayings by id, preserving the given id order.
	// Ids without a backing row are skipped (no error for missing rows).
	GetSayings(ctx context.Context, ids []core.RecordID) ([]*core.Saying, error)

	// GetSayingPage retrieves one page of a collection's sayings ordered
	// by id. An empty or "all" collection spans every collection.
	// Returns the page rows and the total row count for the filter.
	GetSayingPage(ctx context.Context, collection string, page, perPage int) ([]*core.Saying, int, error)

	// MatchSayings runs a full-text query over the saying keyword index
	// with optional collection and topic filters. Returns up to k matches
	// ordered by rank (best first). A malformed match expression yields
	// an empty result, not an error.
	MatchSayings(ctx context.Context, query string, filters SearchFilters, k int) ([]KeywordMatch, error)

	// FilterSayingIDs returns the subset of ids whose saying matches the
	// filters, preserving the input order.
	FilterSayingIDs(ctx context.Context, ids []core.RecordID, filters SearchFilters) ([]core.RecordID, error)

	// Collections lists collection metadata ordered by name.
	Collections(ctx context.Context) ([]*core.CollectionInfo, error)

	// Topics returns (topic, count) pairs over all sayings with a
	// non-empty topic, ordered by count descending then label ascending.
	Topics(ctx context.Context) ([]core.FacetCount, error)

	// SayingsByTopic retrieves one page of a topic's sayings ordered by
	// collection then id. Returns the page rows and the topic's total.
	SayingsByTopic(ctx context.Context, topic string, page, perPage int) ([]*core.Saying, int, error)

	// SimilarSayings reads precomputed neighbors of a saying ordered by
	// score descending, up to k. An id with no edges yields an empty
	// result, not an error.
	SimilarSayings(ctx context.Context, id core.RecordID, k int) ([]core.ScoredID, error)

	// CountSayings returns the total number of sayings.
	CountSayings(ctx context.Context) (int, error)

	// AddSayings inserts sayings. Records must pass core.ValidateSaying.
	AddSayings(ctx context.Context, sayings ...*core.Saying) error

	// ReplaceCollections replaces the collection metadata table.
	ReplaceCollections(ctx context.Context, collections []*core.CollectionInfo) error

	// ReplaceSimilarityEdges replaces all precomputed neighbor edges.
	ReplaceSimilarityEdges(ctx context.Context, edges []SimilarityEdge) error

	// SetEmbeddings stores embedding vectors for the given saying ids.
	SetEmbeddings(ctx context.Context, vectors map[core.RecordID][]float32) error

	// Embeddings returns all stored (id, vector) pairs ordered by id,
	// skipping rows without an embedding. The two slices are parallel.
	Embeddings(ctx context.Context) ([]core.RecordID, [][]float32, error)

	// PendingEmbeddings returns ids and embeddable text for rows that
	// have no stored vector yet, ordered by id. The slices are parallel.
	PendingEmbeddings(ctx context.Context) ([]core.RecordID, []string, error)

	// RebuildKeywordIndex rebuilds the full-text index from the saying
	// rows. Call after bulk inserts.
	RebuildKeywordIndex(ctx context.Context) error

	// Close closes the underlying database.
	Close() error
}
