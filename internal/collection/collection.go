package collection

import "github.com/starford/ansuz/internal/models"

// Collection defines the host-collection operations the sync and export
// layers consume. Consumers should depend on this interface rather than the
// concrete *DB type to facilitate testing with fakes.
type Collection interface {
	GetNote(id int64) (*models.Note, error)
	AddNote(n *models.Note) (int64, error)
	UpdateNote(id int64, front, back, tag string) error
	DeckNames() ([]string, error)
	NoteIDs(deck string) ([]int64, error)
	Notes(deck string) ([]*models.Note, error)
	RemoveNotes(ids []int64) (int, error)
	Search(query string, limit int) ([]*models.Note, error)
	Close() error
}

// Verify *DB satisfies Collection at compile time.
var _ Collection = (*DB)(nil)
