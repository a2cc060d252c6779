// Package source reads and writes the entity stores (summaries, tasks,
// responses) whose texts back the embedding records.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/recall/internal/domain"
	"github.com/kailas-cloud/recall/internal/domain/item"
)

// Repo is the sqlite-backed source entity store.
type Repo struct {
	db *sql.DB
}

// New creates a source repository over an open database.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// tableFor maps an item type to its owning table. Types are a closed enum,
// so the mapping is total.
func tableFor(itemType item.Type) (string, error) {
	switch itemType {
	case item.Summary:
		return "summaries", nil
	case item.Task:
		return "tasks", nil
	case item.Response:
		return "responses", nil
	}
	return "", fmt.Errorf("unknown item type %q: %w", itemType, domain.ErrValidation)
}

// GetText returns the source text for (item_type, item_id).
func (r *Repo) GetText(ctx context.Context, itemType item.Type, itemID string) (string, error) {
	table, err := tableFor(itemType)
	if err != nil {
		return "", err
	}

	var text string
	err = r.db.QueryRowContext(ctx,
		`SELECT text FROM `+table+` WHERE id = ?`, itemID,
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s %s: %w", itemType, itemID, domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get %s text: %w", itemType, err)
	}
	return text, nil
}

// ListIDs returns every entity id of the given type, used by reindex to walk
// the source set.
func (r *Repo) ListIDs(ctx context.Context, itemType item.Type) ([]string, error) {
	table, err := tableFor(itemType)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM `+table+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", itemType, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", itemType, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s ids: %w", itemType, err)
	}
	return ids, nil
}

// Put stores or replaces a source entity text.
func (r *Repo) Put(ctx context.Context, itemType item.Type, itemID, text string) error {
	table, err := tableFor(itemType)
	if err != nil {
		return err
	}
	if itemID == "" {
		return fmt.Errorf("id is required: %w", domain.ErrValidation)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, text, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET text = excluded.text`,
		itemID, text, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", itemType, err)
	}
	return nil
}

// Delete removes a source entity. Embedding records are left in place; recall
// hydration reports them with a placeholder until the next reindex.
func (r *Repo) Delete(ctx context.Context, itemType item.Type, itemID string) error {
	table, err := tableFor(itemType)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, itemID); err != nil {
		return fmt.Errorf("delete %s: %w", itemType, err)
	}
	return nil
}
