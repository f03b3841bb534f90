// Package exporter serializes the collection back into the markdown dialect,
// one folder and file per deck.
package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/models"
)

// ExportDirName is the folder created under the destination root. Its
// existence from a previous export aborts the run before any write.
const ExportDirName = "Notes"

// Export writes every deck to <destRoot>/Notes/<deck>/<deck>.md. Notes with
// an unsupported card kind are logged and skipped; the rest of the deck still
// exports. Returns the list of exported deck names.
func Export(col collection.Collection, destRoot string, logger *slog.Logger) ([]string, error) {
	dest := filepath.Join(destRoot, ExportDirName)
	if _, err := os.Stat(dest); err == nil {
		return nil, fmt.Errorf("exporter: %s: %w", dest, apperr.ErrExportTargetExists)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("exporter: create %s: %w", dest, err)
	}

	decks, err := col.DeckNames()
	if err != nil {
		return nil, err
	}

	for _, deck := range decks {
		if err := exportDeck(col, dest, deck, logger); err != nil {
			return nil, err
		}
		logger.Debug("export: deck written", slog.String("deck", deck))
	}
	return decks, nil
}

func exportDeck(col collection.Collection, dest, deck string, logger *slog.Logger) error {
	notes, err := col.Notes(deck)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", deck)
	for _, n := range notes {
		writeNote(&b, n, logger)
	}

	deckDir := filepath.Join(dest, deck)
	if err := os.MkdirAll(deckDir, 0o755); err != nil {
		return fmt.Errorf("exporter: create deck dir %s: %w", deck, err)
	}
	path := filepath.Join(deckDir, deck+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("exporter: write %s: %w", path, err)
	}
	return nil
}

// writeNote emits one note block: question line, answer line, identifier
// comment, blank separator. The line-break placeholder expands back to real
// newlines, so multi-line fronts and backs round-trip through import.
func writeNote(b *strings.Builder, n *models.Note, logger *slog.Logger) {
	var prefix string
	switch n.Kind {
	case models.KindBasic:
		prefix = "Q:"
	case models.KindBasicReversed:
		prefix = "QA:"
	default:
		logger.Error("export: unsupported card kind, skipping note",
			slog.Int64("id", n.ID),
			slog.String("kind", string(n.Kind)))
		return
	}

	front := strings.ReplaceAll(n.Front, models.LineBreak, "\n")
	back := strings.ReplaceAll(n.Back, models.LineBreak, "\n")

	fmt.Fprintf(b, "%s %s\n", prefix, front)
	fmt.Fprintf(b, "A: %s\n", back)
	fmt.Fprintf(b, "<!-- %d -->\n\n", n.ID)
}
