package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
	"github.com/poiesic/mishkat/storage/sqlite/migrations"
)

// SayingStore implements storage.SayingRepository on a SQLite database.
type SayingStore struct {
	db *sql.DB
}

var _ storage.SayingRepository = (*SayingStore)(nil)

// OpenSayingStore opens (creating if necessary) the sayings database at
// path and applies pending migrations. Use ":memory:" for an ephemeral
// in-memory database.
func OpenSayingStore(path string) (*SayingStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, migrations.Sayings, "sayings"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running saying migrations: %w", err)
	}
	return &SayingStore{db: db}, nil
}

// Close closes the database connection.
func (s *SayingStore) Close() error {
	return s.db.Close()
}

// GetSayings retrieves sayings by id, preserving the given id order.
// Ids without a backing row are silently skipped.
func (s *SayingStore) GetSayings(ctx context.Context, ids []core.RecordID) ([]*core.Saying, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection, reference, text, topic, grade, question
		FROM sayings WHERE id IN (`+inClause(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sayings: %w", err)
	}
	defer rows.Close()

	byID := make(map[core.RecordID]*core.Saying, len(ids))
	for rows.Next() {
		saying, err := scanSaying(rows)
		if err != nil {
			return nil, err
		}
		byID[saying.ID] = saying
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sayings: %w", err)
	}

	sayings := make([]*core.Saying, 0, len(byID))
	for _, id := range ids {
		if saying, ok := byID[id]; ok {
			sayings = append(sayings, saying)
		}
	}
	return sayings, nil
}

// GetSayingPage retrieves one page of a collection's sayings ordered by
// id. An empty or "all" collection spans every collection.
func (s *SayingStore) GetSayingPage(ctx context.Context, collection string, page, perPage int) ([]*core.Saying, int, error) {
	where := ""
	args := []any{}
	if collection != "" && collection != "all" {
		where = "WHERE collection = ?"
		args = append(args, collection)
	}

	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sayings "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting sayings: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection, reference, text, topic, grade, question
		FROM sayings `+where+`
		ORDER BY id LIMIT ? OFFSET ?
	`, append(args, perPage, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying saying page: %w", err)
	}
	defer rows.Close()

	sayings, err := collectSayings(rows)
	if err != nil {
		return nil, 0, err
	}
	return sayings, total, nil
}

// MatchSayings runs a full-text query over the saying index and returns
// up to k matches ordered by FTS5 rank, best first. Filters are ANDed
// with the match as bound parameters on the unindexed columns. A match
// expression the FTS5 parser rejects yields an empty result rather than
// an error.
func (s *SayingStore) MatchSayings(ctx context.Context, query string, filters storage.SearchFilters, k int) ([]storage.KeywordMatch, error) {
	stmt := "SELECT rowid, rank FROM sayings_fts WHERE sayings_fts MATCH ?"
	args := []any{query}
	if c := filters.CollectionFilter(); c != "" {
		stmt += " AND collection = ?"
		args = append(args, c)
	}
	if filters.Topic != "" {
		stmt += " AND topic = ?"
		args = append(args, filters.Topic)
	}
	stmt += " ORDER BY rank LIMIT ?"
	args = append(args, k)

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		if isMatchSyntaxErr(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("matching sayings: %w", err)
	}
	defer rows.Close()

	var matches []storage.KeywordMatch //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m storage.KeywordMatch
		if err := rows.Scan(&m.ID, &m.Rank); err != nil {
			return nil, fmt.Errorf("scanning saying match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		if isMatchSyntaxErr(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("iterating saying matches: %w", err)
	}
	return matches, nil
}

// FilterSayingIDs returns the subset of ids whose saying matches the
// filters, preserving the input order. Inactive filters pass every id
// through untouched.
func (s *SayingStore) FilterSayingIDs(ctx context.Context, ids []core.RecordID, filters storage.SearchFilters) ([]core.RecordID, error) {
	if len(ids) == 0 || !filters.Active() {
		return ids, nil
	}

	stmt := "SELECT id FROM sayings WHERE id IN (" + inClause(len(ids)) + ")"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	if c := filters.CollectionFilter(); c != "" {
		stmt += " AND collection = ?"
		args = append(args, c)
	}
	if filters.Topic != "" {
		stmt += " AND topic = ?"
		args = append(args, filters.Topic)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("filtering saying ids: %w", err)
	}
	defer rows.Close()

	keep := make(map[core.RecordID]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning saying id: %w", err)
		}
		keep[core.RecordID(id)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating saying ids: %w", err)
	}

	filtered := make([]core.RecordID, 0, len(keep))
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

// Collections lists collection metadata ordered by name.
func (s *SayingStore) Collections(ctx context.Context) ([]*core.CollectionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, display_name, total FROM collections ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer rows.Close()

	var collections []*core.CollectionInfo //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c core.CollectionInfo
		if err := rows.Scan(&c.Name, &c.DisplayName, &c.Total); err != nil {
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		collections = append(collections, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collections: %w", err)
	}
	return collections, nil
}

// Topics returns (topic, count) pairs over all sayings with a non-empty
// topic, most populous first, ties broken alphabetically.
func (s *SayingStore) Topics(ctx context.Context) ([]core.FacetCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT topic, COUNT(*) FROM sayings
		WHERE topic != ''
		GROUP BY topic
		ORDER BY COUNT(*) DESC, topic ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying topics: %w", err)
	}
	defer rows.Close()

	var topics []core.FacetCount //nolint:prealloc // size unknown from query
	for rows.Next() {
		var t core.FacetCount
		if err := rows.Scan(&t.Label, &t.Count); err != nil {
			return nil, fmt.Errorf("scanning topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating topics: %w", err)
	}
	return topics, nil
}

// SayingsByTopic retrieves one page of a topic's sayings ordered by
// collection then id, and the topic's total count.
func (s *SayingStore) SayingsByTopic(ctx context.Context, topic string, page, perPage int) ([]*core.Saying, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sayings WHERE topic = ?", topic).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting topic sayings: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection, reference, text, topic, grade, question
		FROM sayings WHERE topic = ?
		ORDER BY collection, id LIMIT ? OFFSET ?
	`, topic, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("querying topic sayings: %w", err)
	}
	defer rows.Close()

	sayings, err := collectSayings(rows)
	if err != nil {
		return nil, 0, err
	}
	return sayings, total, nil
}

// SimilarSayings reads precomputed neighbors of a saying ordered by
// score descending, up to k.
func (s *SayingStore) SimilarSayings(ctx context.Context, id core.RecordID, k int) ([]core.ScoredID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT neighbor_id, score FROM similar_sayings
		WHERE source_id = ?
		ORDER BY score DESC, neighbor_id ASC LIMIT ?
	`, int64(id), k)
	if err != nil {
		return nil, fmt.Errorf("querying similar sayings: %w", err)
	}
	defer rows.Close()

	var neighbors []core.ScoredID //nolint:prealloc // size unknown from query
	for rows.Next() {
		var n core.ScoredID
		if err := rows.Scan(&n.ID, &n.Score); err != nil {
			return nil, fmt.Errorf("scanning similar saying: %w", err)
		}
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating similar sayings: %w", err)
	}
	return neighbors, nil
}

// CountSayings returns the total number of sayings.
func (s *SayingStore) CountSayings(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sayings").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting sayings: %w", err)
	}
	return count, nil
}

// AddSayings inserts or updates sayings by id. Stored embeddings survive
// re-ingestion of the same record.
func (s *SayingStore) AddSayings(ctx context.Context, sayings ...*core.Saying) error {
	for _, saying := range sayings {
		if err := core.ValidateSaying(saying); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sayings (id, collection, reference, text, topic, grade, question)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection = excluded.collection,
			reference = excluded.reference,
			text = excluded.text,
			topic = excluded.topic,
			grade = excluded.grade,
			question = excluded.question
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, saying := range sayings {
		if _, err := stmt.ExecContext(ctx, int64(saying.ID), saying.Collection, saying.Reference,
			saying.Text, saying.Topic, saying.Grade, saying.Question); err != nil {
			return fmt.Errorf("inserting saying %d: %w", saying.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReplaceCollections replaces the collection metadata table.
func (s *SayingStore) ReplaceCollections(ctx context.Context, collections []*core.CollectionInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM collections"); err != nil {
		return fmt.Errorf("clearing collections: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO collections (name, display_name, total) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range collections {
		if _, err := stmt.ExecContext(ctx, c.Name, c.DisplayName, c.Total); err != nil {
			return fmt.Errorf("inserting collection %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReplaceSimilarityEdges replaces all precomputed neighbor edges.
func (s *SayingStore) ReplaceSimilarityEdges(ctx context.Context, edges []storage.SimilarityEdge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM similar_sayings"); err != nil {
		return fmt.Errorf("clearing similarity edges: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO similar_sayings (source_id, neighbor_id, score) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, int64(e.SourceID), int64(e.NeighborID), e.Score); err != nil {
			return fmt.Errorf("inserting edge %d->%d: %w", e.SourceID, e.NeighborID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SetEmbeddings stores embedding vectors for the given saying ids.
func (s *SayingStore) SetEmbeddings(ctx context.Context, vectors map[core.RecordID][]float32) error {
	return setEmbeddings(ctx, s.db, "sayings", vectors)
}

// Embeddings returns all stored (id, vector) pairs ordered by id.
func (s *SayingStore) Embeddings(ctx context.Context) ([]core.RecordID, [][]float32, error) {
	return embeddings(ctx, s.db, "sayings")
}

// PendingEmbeddings returns ids and text for sayings without a stored
// vector, ordered by id.
func (s *SayingStore) PendingEmbeddings(ctx context.Context) ([]core.RecordID, []string, error) {
	return pendingEmbeddings(ctx, s.db, "sayings")
}

// RebuildKeywordIndex rebuilds the full-text index from the saying rows.
func (s *SayingStore) RebuildKeywordIndex(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "INSERT INTO sayings_fts(sayings_fts) VALUES('rebuild')"); err != nil {
		return fmt.Errorf("rebuilding saying index: %w", err)
	}
	return nil
}

// scanSaying scans a saying from *sql.Rows.
func scanSaying(rows *sql.Rows) (*core.Saying, error) {
	var saying core.Saying
	if err := rows.Scan(&saying.ID, &saying.Collection, &saying.Reference,
		&saying.Text, &saying.Topic, &saying.Grade, &saying.Question); err != nil {
		return nil, fmt.Errorf("scanning saying: %w", err)
	}
	return &saying, nil
}

// collectSayings drains rows into a slice, checking the iteration error.
func collectSayings(rows *sql.Rows) ([]*core.Saying, error) {
	var sayings []*core.Saying //nolint:prealloc // size unknown from query
	for rows.Next() {
		saying, err := scanSaying(rows)
		if err != nil {
			return nil, err
		}
		sayings = append(sayings, saying)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sayings: %w", err)
	}
	return sayings, nil
}
