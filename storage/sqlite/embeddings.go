package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/poiesic/mishkat/core"
	"github.com/poiesic/mishkat/storage"
)

// Embedding helpers shared by the verse and saying stores. Both tables
// keep the vector in an `embedding` BLOB column that is NULL until the
// ingestion pipeline fills it.

func setEmbeddings(ctx context.Context, db *sql.DB, table string, vectors map[core.RecordID][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, "UPDATE "+table+" SET embedding = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for id, vector := range vectors {
		if _, err := stmt.ExecContext(ctx, storage.MarshalVector(vector), int64(id)); err != nil {
			return fmt.Errorf("storing embedding for %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func embeddings(ctx context.Context, db *sql.DB, table string) ([]core.RecordID, [][]float32, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, embedding FROM "+table+" WHERE embedding IS NOT NULL ORDER BY id")
	if err != nil {
		return nil, nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var ids []core.RecordID
	var vectors [][]float32
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, fmt.Errorf("scanning embedding: %w", err)
		}
		vector, err := storage.UnmarshalVector(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("decoding embedding for %d: %w", id, err)
		}
		ids = append(ids, core.RecordID(id))
		vectors = append(vectors, vector)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating embeddings: %w", err)
	}
	return ids, vectors, nil
}

func pendingEmbeddings(ctx context.Context, db *sql.DB, table string) ([]core.RecordID, []string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT id, text FROM "+table+" WHERE embedding IS NULL ORDER BY id")
	if err != nil {
		return nil, nil, fmt.Errorf("querying pending embeddings: %w", err)
	}
	defer rows.Close()

	var ids []core.RecordID
	var texts []string
	for rows.Next() {
		var id int64
		var text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, nil, fmt.Errorf("scanning pending embedding: %w", err)
		}
		ids = append(ids, core.RecordID(id))
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating pending embeddings: %w", err)
	}
	return ids, texts, nil
}
