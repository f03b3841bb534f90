// Package sync brings the collection in line with the markdown vault:
// a sequential import pass over every discovered file followed by a
// reconciliation pass that deletes notes no file claims anymore.
package sync

import (
	"log/slog"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// DeletionScope controls which decks the reconciliation pass may delete from.
type DeletionScope string

const (
	// ScopeTouched restricts deletion to decks processed during this run.
	ScopeTouched DeletionScope = "touched"
	// ScopeAll treats the vault as the source of truth for the whole
	// collection: a deck with no markdown counterpart loses all its notes.
	ScopeAll DeletionScope = "all"
)

// session accumulates state over one import run and is discarded afterwards.
type session struct {
	deckCounts map[string]int
	surviving  map[int64]struct{}
}

func newSession() *session {
	return &session{
		deckCounts: make(map[string]int),
		surviving:  make(map[int64]struct{}),
	}
}

func (s *session) add(deck string, ids map[int64]struct{}) {
	s.deckCounts[deck] += len(ids)
	for id := range ids {
		s.surviving[id] = struct{}{}
	}
}

// Run imports every flashcard file in the vault into the collection, one file
// at a time, then reconciles. Files that fail to scan are logged and skipped;
// apperr.ErrNoNotesFound is returned when the vault holds no flashcard files
// at all, in which case nothing is mutated.
func Run(store storage.Provider, col collection.Collection, scope DeletionScope, logger *slog.Logger) (*models.ImportReport, error) {
	refs, err := store.List()
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, apperr.ErrNoNotesFound
	}

	sess := newSession()
	for _, ref := range refs {
		logger.Debug("import: processing file",
			slog.String("path", ref.Path),
			slog.String("deck", ref.Deck))
		ids, err := parser.ScanFile(store, ref, col, logger)
		if err != nil {
			logger.Warn("import: scan failed",
				slog.String("path", ref.Path),
				slog.String("error", err.Error()))
			continue
		}
		sess.add(ref.Deck, ids)
	}

	deleted, err := reconcile(col, sess, scope, logger)
	if err != nil {
		return nil, err
	}

	report := &models.ImportReport{Decks: sess.deckCounts, Deleted: deleted}
	logger.Info("import: completed",
		slog.Int("notes", report.Total()),
		slog.Int("deleted", report.Deleted),
		slog.Int("decks", len(report.Decks)))
	return report, nil
}
