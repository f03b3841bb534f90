package sync

import (
	"log/slog"
	"sort"

	"github.com/starford/ansuz/internal/collection"
)

// reconcile deletes every collection note whose identifier the run did not
// touch. With ScopeAll the pass covers every deck the collection knows,
// reproducing the vault-is-truth policy; with ScopeTouched it stays inside
// the decks that had markdown files this run.
func reconcile(col collection.Collection, sess *session, scope DeletionScope, logger *slog.Logger) (int, error) {
	var decks []string
	if scope == ScopeAll {
		all, err := col.DeckNames()
		if err != nil {
			return 0, err
		}
		decks = all
	} else {
		for d := range sess.deckCounts {
			decks = append(decks, d)
		}
		sort.Strings(decks)
	}

	var stale []int64
	for _, deck := range decks {
		ids, err := col.NoteIDs(deck)
		if err != nil {
			return 0, err
		}
		for _, id := range ids {
			if _, ok := sess.surviving[id]; !ok {
				stale = append(stale, id)
				logger.Debug("reconcile: note not in vault",
					slog.Int64("id", id), slog.String("deck", deck))
			}
		}
	}

	if len(stale) == 0 {
		return 0, nil
	}
	deleted, err := col.RemoveNotes(stale)
	if err != nil {
		return 0, err
	}
	logger.Info("reconcile: removed stale notes", slog.Int("count", deleted))
	return deleted, nil
}
