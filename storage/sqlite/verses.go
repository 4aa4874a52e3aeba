package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
	"github.com/poiesic/mishkat/storage/sqlite/migrations"
)

// VerseStore implements storage.VerseRepository on a SQLite database.
type VerseStore struct {
	db *sql.DB
}

var _ storage.VerseRepository = (*VerseStore)(nil)

// OpenVerseStore opens (creating if necessary) the verses database at
// path and applies pending migrations. Use ":memory:" for an ephemeral
// in-memory database.
func OpenVerseStore(path string) (*VerseStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, migrations.Verses, "verses"); err != nil {
		db.Close()
		return nil, fmt.Errorf("running verse migrations: %w", err)
	}
	return &VerseStore{db: db}, nil
}

// Close closes the database connection.
func (s *VerseStore) Close() error {
	return s.db.Close()
}

// GetVerses retrieves verses by id, preserving the given id order.
// Ids without a backing row are silently skipped.
func (s *VerseStore) GetVerses(ctx context.Context, ids []core.RecordID) ([]*core.Verse, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chapter, number, chapter_name, text
		FROM verses WHERE id IN (`+inClause(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying verses: %w", err)
	}
	defer rows.Close()

	byID := make(map[core.RecordID]*core.Verse, len(ids))
	for rows.Next() {
		verse, err := scanVerse(rows)
		if err != nil {
			return nil, err
		}
		byID[verse.ID] = verse
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating verses: %w", err)
	}

	verses := make([]*core.Verse, 0, len(byID))
	for _, id := range ids {
		if verse, ok := byID[id]; ok {
			verses = append(verses, verse)
		}
	}
	return verses, nil
}

// GetVersePage retrieves one page of verses ordered by id. A chapter of
// 0 spans the whole corpus.
func (s *VerseStore) GetVersePage(ctx context.Context, chapter, page, perPage int) ([]*core.Verse, int, error) {
	where := ""
	args := []any{}
	if chapter > 0 {
		where = "WHERE chapter = ?"
		args = append(args, chapter)
	}

	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM verses "+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("counting verses: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chapter, number, chapter_name, text
		FROM verses `+where+`
		ORDER BY id LIMIT ? OFFSET ?
	`, append(args, perPage, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying verse page: %w", err)
	}
	defer rows.Close()

	var verses []*core.Verse //nolint:prealloc // size unknown from query
	for rows.Next() {
		verse, err := scanVerse(rows)
		if err != nil {
			return nil, 0, err
		}
		verses = append(verses, verse)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating verse page: %w", err)
	}
	return verses, total, nil
}

// MatchVerses runs a full-text query over the verse index and returns
// up to k matches ordered by FTS5 rank, best first. A match expression
// the FTS5 parser rejects yields an empty result rather than an error.
func (s *VerseStore) MatchVerses(ctx context.Context, query string, k int) ([]storage.KeywordMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, rank FROM verses_fts
		WHERE verses_fts MATCH ?
		ORDER BY rank LIMIT ?
	`, query, k)
	if err != nil {
		if isMatchSyntaxErr(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("matching verses: %w", err)
	}
	defer rows.Close()

	var matches []storage.KeywordMatch //nolint:prealloc // size unknown from query
	for rows.Next() {
		var m storage.KeywordMatch
		if err := rows.Scan(&m.ID, &m.Rank); err != nil {
			return nil, fmt.Errorf("scanning verse match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		if isMatchSyntaxErr(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("iterating verse matches: %w", err)
	}
	return matches, nil
}

// Chapters lists chapter metadata ordered by chapter number.
func (s *VerseStore) Chapters(ctx context.Context) ([]*core.Chapter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT number, name, english_name, verse_count, revelation
		FROM chapters ORDER BY number
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	var chapters []*core.Chapter //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c core.Chapter
		if err := rows.Scan(&c.Number, &c.Name, &c.EnglishName, &c.VerseCount, &c.Revelation); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		chapters = append(chapters, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}
	return chapters, nil
}

// DivineNames lists the names table in id order.
func (s *VerseStore) DivineNames(ctx context.Context) ([]*core.DivineName, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, transliteration, meaning
		FROM divine_names ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying divine names: %w", err)
	}
	defer rows.Close()

	var names []*core.DivineName //nolint:prealloc // size unknown from query
	for rows.Next() {
		var n core.DivineName
		if err := rows.Scan(&n.ID, &n.Name, &n.Transliteration, &n.Meaning); err != nil {
			return nil, fmt.Errorf("scanning divine name: %w", err)
		}
		names = append(names, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating divine names: %w", err)
	}
	return names, nil
}

// CountVerses returns the total number of verses.
func (s *VerseStore) CountVerses(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM verses").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting verses: %w", err)
	}
	return count, nil
}

// AddVerses inserts or updates verses by id. Stored embeddings survive
// re-ingestion of the same record.
func (s *VerseStore) AddVerses(ctx context.Context, verses ...*core.Verse) error {
	for _, verse := range verses {
		if err := core.ValidateVerse(verse); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO verses (id, chapter, number, chapter_name, text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			chapter = excluded.chapter,
			number = excluded.number,
			chapter_name = excluded.chapter_name,
			text = excluded.text
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, verse := range verses {
		if _, err := stmt.ExecContext(ctx, int64(verse.ID), verse.Chapter, verse.Number,
			verse.ChapterName, verse.Text); err != nil {
			return fmt.Errorf("inserting verse %d: %w", verse.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReplaceChapters replaces the chapter metadata table.
func (s *VerseStore) ReplaceChapters(ctx context.Context, chapters []*core.Chapter) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chapters"); err != nil {
		return fmt.Errorf("clearing chapters: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chapters (number, name, english_name, verse_count, revelation)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chapters {
		if _, err := stmt.ExecContext(ctx, c.Number, c.Name, c.EnglishName,
			c.VerseCount, c.Revelation); err != nil {
			return fmt.Errorf("inserting chapter %d: %w", c.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReplaceDivineNames replaces the names table.
func (s *VerseStore) ReplaceDivineNames(ctx context.Context, names []*core.DivineName) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM divine_names"); err != nil {
		return fmt.Errorf("clearing divine names: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO divine_names (id, name, transliteration, meaning)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, n := range names {
		if _, err := stmt.ExecContext(ctx, n.ID, n.Name, n.Transliteration, n.Meaning); err != nil {
			return fmt.Errorf("inserting divine name %d: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SetEmbeddings stores embedding vectors for the given verse ids.
func (s *VerseStore) SetEmbeddings(ctx context.Context, vectors map[core.RecordID][]float32) error {
	return setEmbeddings(ctx, s.db, "verses", vectors)
}

// Embeddings returns all stored (id, vector) pairs ordered by id.
func (s *VerseStore) Embeddings(ctx context.Context) ([]core.RecordID, [][]float32, error) {
	return embeddings(ctx, s.db, "verses")
}

// PendingEmbeddings returns ids and text for verses without a stored
// vector, ordered by id.
func (s *VerseStore) PendingEmbeddings(ctx context.Context) ([]core.RecordID, []string, error) {
	return pendingEmbeddings(ctx, s.db, "verses")
}

// RebuildKeywordIndex rebuilds the full-text index from the verse rows.
func (s *VerseStore) RebuildKeywordIndex(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "INSERT INTO verses_fts(verses_fts) VALUES('rebuild')"); err != nil {
		return fmt.Errorf("rebuilding verse index: %w", err)
	}
	return nil
}

// scanVerse scans a verse from *sql.Rows.
func scanVerse(rows *sql.Rows) (*core.Verse, error) {
	var verse core.Verse
	if err := rows.Scan(&verse.ID, &verse.Chapter, &verse.Number,
		&verse.ChapterName, &verse.Text); err != nil {
		return nil, fmt.Errorf("scanning verse: %w", err)
	}
	return &verse, nil
}
