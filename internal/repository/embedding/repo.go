// Package embedding persists feature vectors keyed by (item_type, item_id)
// with upsert semantics.
package embedding

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

// Repo is the sqlite-backed vector store.
type Repo struct {
	db *sql.DB
}

// New creates an embedding repository over an open database.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Upsert inserts or overwrites the record for (item_type, item_id). The
// vector and timestamp are always replaced together.
func (r *Repo) Upsert(ctx context.Context, rec domain.Embedding) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO embeddings (item_type, item_id, vector, dim, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (item_type, item_id) DO UPDATE SET
			vector = excluded.vector,
			dim = excluded.dim,
			model = excluded.model,
			created_at = excluded.created_at`,
		rec.ItemType.String(), rec.ItemID, vectorToBytes(rec.Vector),
		len(rec.Vector), rec.Model, createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// Get returns the stored vector for (item_type, item_id).
func (r *Repo) Get(ctx context.Context, itemType item.Type, itemID string) ([]float32, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE item_type = ? AND item_id = ?`,
		itemType.String(), itemID,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("embedding %s/%s: %w", itemType, itemID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get embedding: %w", err)
	}
	return bytesToVector(blob), nil
}

// ListCandidates returns all records, or only those of the given type.
// Row order is unspecified; callers must not rely on it.
func (r *Repo) ListCandidates(ctx context.Context, typeFilter *item.Type) ([]domain.Embedding, error) {
	query := `SELECT item_type, item_id, vector, model, created_at FROM embeddings`
	args := []any{}
	if typeFilter != nil {
		query += ` WHERE item_type = ?`
		args = append(args, typeFilter.String())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Embedding
	for rows.Next() {
		rec, err := scanEmbedding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return out, nil
}

// Clear deletes all records, or only those of the given type.
// Returns the number of removed rows.
func (r *Repo) Clear(ctx context.Context, typeFilter *item.Type) (int, error) {
	query := `DELETE FROM embeddings`
	args := []any{}
	if typeFilter != nil {
		query += ` WHERE item_type = ?`
		args = append(args, typeFilter.String())
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear embeddings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear embeddings: %w", err)
	}
	return int(n), nil
}

// Count returns the total number of stored records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count embeddings: %w", err)
	}
	return n, nil
}

// CountByType returns record counts grouped by item type.
func (r *Repo) CountByType(ctx context.Context) (map[item.Type]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item_type, COUNT(*) FROM embeddings GROUP BY item_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()

	out := make(map[item.Type]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("count by type: %w", err)
		}
		out[item.Type(typ)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	return out, nil
}

func scanEmbedding(rows *sql.Rows) (domain.Embedding, error) {
	var typ, id, model, createdAt string
	var blob []byte
	if err := rows.Scan(&typ, &id, &blob, &model, &createdAt); err != nil {
		return domain.Embedding{}, fmt.Errorf("scan embedding: %w", err)
	}
	ts, _ := time.Parse(time.RFC3339Nano, createdAt)
	return domain.Embedding{
		ItemType:  item.Type(typ),
		ItemID:    id,
		Vector:    bytesToVector(blob),
		Model:     model,
		CreatedAt: ts,
	}, nil
}
