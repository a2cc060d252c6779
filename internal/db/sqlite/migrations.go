package sqlite

import "fmt"

// migration is a single versioned schema step.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS embeddings (
				item_type  TEXT NOT NULL,
				item_id    TEXT NOT NULL,
				vector     BLOB NOT NULL,
				dim        INTEGER NOT NULL,
				model      TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				PRIMARY KEY (item_type, item_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_embeddings_type ON embeddings (item_type)`,
			`CREATE TABLE IF NOT EXISTS summaries (
				id         TEXT PRIMARY KEY,
				text       TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id         TEXT PRIMARY KEY,
				text       TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS responses (
				id         TEXT PRIMARY KEY,
				text       TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS kv (
				key   TEXT PRIMARY KEY,
				value BLOB NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS counters (
				key   TEXT PRIMARY KEY,
				value INTEGER NOT NULL DEFAULT 0
			)`,
		},
	},
}

// migrate applies pending migrations in order, tracked in schema_migrations.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
	); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow(
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`,
	).Scan(&current); err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		for _, stmt := range m.stmts {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
			}
		}
		if _, err := s.db.Exec(
			`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
			m.version, m.name,
		); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}
