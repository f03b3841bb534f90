package collection

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// GetNote returns the note with the given identifier, or apperr.ErrNotFound.
func (db *DB) GetNote(id int64) (*models.Note, error) {
	row := db.conn.QueryRow(`
		SELECT n.id, d.name, n.front, n.back, n.tag, n.kind, n.updated_at
		FROM notes n JOIN decks d ON d.id = n.deck_id
		WHERE n.id = ?
	`, id)

	var n models.Note
	err := row.Scan(&n.ID, &n.Deck, &n.Front, &n.Back, &n.Tag, &n.Kind, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("collection: get note %d: %w", id, err)
	}
	return &n, nil
}

// AddNote inserts a note, creating its deck on first use. A zero n.ID asks
// the collection to assign one: the current epoch-millisecond timestamp,
// bumped past any identifier already taken. A non-zero n.ID is used as-is
// (re-import of a block whose identifier left the collection).
func (db *DB) AddNote(n *models.Note) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("collection: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	deckID, err := ensureDeck(tx, n.Deck)
	if err != nil {
		return 0, err
	}

	id := n.ID
	if id == 0 {
		id, err = nextID(tx)
		if err != nil {
			return 0, err
		}
	}

	kind := n.Kind
	if kind == "" {
		kind = models.KindBasic
	}

	_, err = tx.Exec(`
		INSERT INTO notes (id, deck_id, front, back, tag, kind, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, deckID, n.Front, n.Back, n.Tag, string(kind), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("collection: insert note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("collection: commit: %w", err)
	}
	return id, nil
}

// UpdateNote rewrites the content fields of an existing note. The deck and
// kind stay as they are; apperr.ErrNotFound when the identifier is unknown.
func (db *DB) UpdateNote(id int64, front, back, tag string) error {
	res, err := db.conn.Exec(`
		UPDATE notes SET front = ?, back = ?, tag = ?, updated_at = ?
		WHERE id = ?
	`, front, back, tag, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("collection: update note %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("collection: update note %d: %w", id, err)
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// DeckNames returns every deck name in the collection, sorted.
func (db *DB) DeckNames() ([]string, error) {
	rows, err := db.conn.Query(`SELECT name FROM decks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("collection: deck names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// NoteIDs returns the identifiers of every note in the given deck.
func (db *DB) NoteIDs(deck string) ([]int64, error) {
	rows, err := db.conn.Query(`
		SELECT n.id FROM notes n JOIN decks d ON d.id = n.deck_id
		WHERE d.name = ?
	`, deck)
	if err != nil {
		return nil, fmt.Errorf("collection: note ids for %s: %w", deck, err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Notes returns every note in the given deck, ordered by identifier.
func (db *DB) Notes(deck string) ([]*models.Note, error) {
	rows, err := db.conn.Query(`
		SELECT n.id, d.name, n.front, n.back, n.tag, n.kind, n.updated_at
		FROM notes n JOIN decks d ON d.id = n.deck_id
		WHERE d.name = ?
		ORDER BY n.id
	`, deck)
	if err != nil {
		return nil, fmt.Errorf("collection: notes for %s: %w", deck, err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

// RemoveNotes deletes the given notes and returns how many existed.
func (db *DB) RemoveNotes(ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := db.conn.Exec(`DELETE FROM notes WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("collection: remove notes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("collection: remove notes: %w", err)
	}
	return int(affected), nil
}

// Search performs a LIKE-based match over front, back, and tag.
func (db *DB) Search(query string, limit int) ([]*models.Note, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT n.id, d.name, n.front, n.back, n.tag, n.kind, n.updated_at
		FROM notes n JOIN decks d ON d.id = n.deck_id
		WHERE n.front LIKE ? OR n.back LIKE ? OR n.tag LIKE ?
		ORDER BY n.id
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("collection: search: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

func scanNotes(rows *sql.Rows) ([]*models.Note, error) {
	var out []*models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Deck, &n.Front, &n.Back, &n.Tag, &n.Kind, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

// ensureDeck returns the deck id for name, creating the deck if needed.
func ensureDeck(tx *sql.Tx, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("collection: deck name is empty")
	}
	if _, err := tx.Exec(`INSERT OR IGNORE INTO decks (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("collection: ensure deck %s: %w", name, err)
	}
	var id int64
	if err := tx.QueryRow(`SELECT id FROM decks WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("collection: lookup deck %s: %w", name, err)
	}
	return id, nil
}

// nextID picks a fresh identifier: epoch milliseconds (13 digits through the
// year 2286, matching the identifier-comment format), bumped until free.
func nextID(tx *sql.Tx) (int64, error) {
	id := time.Now().UnixMilli()
	for {
		var taken int
		if err := tx.QueryRow(`SELECT count(*) FROM notes WHERE id = ?`, id).Scan(&taken); err != nil {
			return 0, fmt.Errorf("collection: next id: %w", err)
		}
		if taken == 0 {
			return id, nil
		}
		id++
	}
}
