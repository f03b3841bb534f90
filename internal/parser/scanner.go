package parser

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// Resolver is the slice of the collection API the scanner needs to resolve a
// finished note block. The concrete collection store satisfies it; tests use
// an in-memory fake.
type Resolver interface {
	// GetNote returns the note with the given id or apperr.ErrNotFound.
	GetNote(id int64) (*models.Note, error)
	// AddNote inserts a note, creating its deck if needed. When n.ID is
	// non-zero it is used as the identifier; otherwise the collection
	// assigns one. Returns the identifier in effect.
	AddNote(n *models.Note) (int64, error)
	// UpdateNote rewrites front, back, and tag of an existing note.
	UpdateNote(id int64, front, back, tag string) error
}

// scanMode is the scanner's position relative to a note block.
type scanMode int

const (
	passThrough scanMode = iota // copying lines outside any note
	inNote                      // accumulating a note block
)

// scanState is the accumulation state threaded through the line loop.
type scanState struct {
	mode      scanMode
	front     []string
	back      []string
	kind      models.CardKind
	pendingID int64
	buffer    []string // raw lines of the current block, newline included
}

func (s *scanState) reset() {
	s.mode = passThrough
	s.front = nil
	s.back = nil
	s.kind = ""
	s.pendingID = 0
	s.buffer = nil
}

// ScanFile processes one markdown file: extracts note blocks, creates or
// updates them in the collection, and rewrites the file with identifier
// comments present for every resolved note. It returns the set of collection
// identifiers the file now accounts for.
//
// The rewritten content goes to a temp file that atomically replaces the
// original (storage.Provider.Write). When nothing changed the rewrite is
// skipped so watchers do not see a spurious event.
func ScanFile(store storage.Provider, ref models.FileRef, col Resolver, logger *slog.Logger) (map[int64]struct{}, error) {
	data, err := store.Read(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("parser: read %s: %w", ref.Path, err)
	}

	tag := noteTag(ref.Path)
	surviving := make(map[int64]struct{})

	var out strings.Builder
	st := &scanState{}

	for _, line := range splitLines(string(data)) {
		step(st, line, &out, col, ref.Deck, tag, surviving, logger)
	}

	// A note still open at end of input: make sure the last buffered line
	// ends with a terminator, then close the block with a synthetic blank
	// line so the trailing note is still captured.
	if len(st.buffer) > 0 {
		last := len(st.buffer) - 1
		st.buffer[last] = strings.TrimRight(st.buffer[last], " \t\r\n") + "\n"
		st.buffer = append(st.buffer, "\n")
		resolve(st, &out, col, ref.Deck, tag, surviving, logger)
		st.reset()
	}

	rewritten := out.String()
	if rewritten == string(data) {
		logger.Debug("scan: file unchanged", slog.String("path", ref.Path))
		return surviving, nil
	}
	if err := store.Write(ref.Path, []byte(rewritten)); err != nil {
		return nil, fmt.Errorf("parser: rewrite %s: %w", ref.Path, err)
	}
	return surviving, nil
}

// step consumes one raw line and advances the scan state.
func step(st *scanState, line string, out *strings.Builder, col Resolver, deck, tag string, surviving map[int64]struct{}, logger *slog.Logger) {
	kind := Classify(line)

	if st.mode == passThrough {
		if kind != QuestionStart && kind != ReversedQuestionStart {
			out.WriteString(line)
			return
		}
		st.mode = inNote
	}

	st.buffer = append(st.buffer, line)

	switch kind {
	case Blank:
		resolve(st, out, col, deck, tag, surviving, logger)
		st.reset()
	case QuestionStart:
		st.kind = models.KindBasic
		st.front = append(st.front, strings.TrimSpace(line[len(markerQuestion):]))
	case ReversedQuestionStart:
		st.kind = models.KindBasicReversed
		st.front = append(st.front, strings.TrimSpace(line[len(markerReversed):]))
	case IdentifierComment:
		if id, ok := ExtractID(line); ok {
			st.pendingID = id
		}
	case AnswerLine:
		st.back = append(st.back, strings.TrimSpace(line[len(markerAnswer):]))
	default:
		if len(st.back) == 0 {
			st.front = append(st.front, strings.TrimSpace(line))
		} else {
			st.back = append(st.back, strings.TrimSpace(line))
		}
	}
}

// resolve closes the current block: it decides between create, update, and
// drop, injects or repairs the identifier comment in the buffer, and flushes
// the buffer to the output. The buffered text is always written through, even
// when the block does not produce a note.
func resolve(st *scanState, out *strings.Builder, col Resolver, deck, tag string, surviving map[int64]struct{}, logger *slog.Logger) {
	defer func() {
		for _, l := range st.buffer {
			out.WriteString(l)
		}
	}()

	if len(st.front) == 0 || len(st.back) == 0 {
		// Not a complete note. Deliberate no-op: the text passes through
		// unchanged and nothing is touched in the collection.
		logger.Debug("scan: dropping incomplete block",
			slog.Int("front_lines", len(st.front)),
			slog.Int("back_lines", len(st.back)))
		return
	}

	frontText := strings.Join(st.front, models.LineBreak)
	backText := strings.Join(st.back, models.LineBreak)
	logger.Debug("scan: resolving note",
		slog.String("deck", deck),
		slog.String("front", frontText),
		slog.Int64("pending_id", st.pendingID))

	if st.pendingID != 0 {
		if note, err := col.GetNote(st.pendingID); err == nil {
			if err := col.UpdateNote(note.ID, frontText, backText, tag); err != nil {
				logger.Warn("scan: update failed", slog.Int64("id", note.ID), slog.String("error", err.Error()))
				return
			}
			surviving[note.ID] = struct{}{}
			return
		}
		// Identifier points at nothing in the collection: recreate the note
		// under that identifier instead of failing.
		id, err := col.AddNote(&models.Note{
			ID:    st.pendingID,
			Deck:  deck,
			Front: frontText,
			Back:  backText,
			Tag:   tag,
			Kind:  st.kind,
		})
		if err != nil {
			logger.Warn("scan: recreate failed", slog.Int64("id", st.pendingID), slog.String("error", err.Error()))
			return
		}
		logger.Debug("scan: recreated note for stale identifier", slog.Int64("id", id))
		repairIDComment(st.buffer, id)
		surviving[id] = struct{}{}
		return
	}

	id, err := col.AddNote(&models.Note{
		Deck:  deck,
		Front: frontText,
		Back:  backText,
		Tag:   tag,
		Kind:  st.kind,
	})
	if err != nil {
		logger.Warn("scan: create failed", slog.String("deck", deck), slog.String("error", err.Error()))
		return
	}
	// Give the block provenance: identifier comment directly before the
	// blank line that closed it.
	last := len(st.buffer) - 1
	st.buffer = append(st.buffer[:last], idCommentLine(id), st.buffer[last])
	surviving[id] = struct{}{}
	logger.Debug("scan: created note", slog.Int64("id", id), slog.String("deck", deck))
}

// repairIDComment overwrites the identifier-comment line in the buffer with a
// canonical one for id. Covers the case where the original comment was
// malformed or carried a foreign identifier.
func repairIDComment(buffer []string, id int64) {
	for i, l := range buffer {
		if Classify(l) == IdentifierComment {
			buffer[i] = idCommentLine(id)
			return
		}
	}
}

func idCommentLine(id int64) string {
	return fmt.Sprintf("<!-- %d -->\n", id)
}

// noteTag derives the tag applied to every note in a file: the base name up
// to the first dot.
func noteTag(p string) string {
	base := path.Base(p)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

// splitLines splits content into raw lines, each keeping its trailing
// newline. A final line without a terminator is returned as-is.
func splitLines(content string) []string {
	lines := strings.SplitAfter(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
