// Package collection provides the SQLite-backed flashcard collection:
// decks of front/back notes addressed by stable numeric identifiers.
package collection

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS decks (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS notes (
	id         INTEGER PRIMARY KEY,
	deck_id    INTEGER NOT NULL REFERENCES decks(id),
	front      TEXT NOT NULL,
	back       TEXT NOT NULL,
	tag        TEXT NOT NULL DEFAULT '',
	kind       TEXT NOT NULL DEFAULT 'basic',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_deck ON notes(deck_id);
`

// DB wraps a sql.DB with collection-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite collection and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("collection: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("collection: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("collection: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
