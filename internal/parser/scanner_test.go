package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/testutil"
)

// fakeResolver is an in-memory Resolver for scanner tests.
type fakeResolver struct {
	notes  map[int64]*models.Note
	nextID int64
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		notes:  make(map[int64]*models.Note),
		nextID: 1700000000000,
	}
}

func (f *fakeResolver) GetNote(id int64) (*models.Note, error) {
	n, ok := f.notes[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeResolver) AddNote(n *models.Note) (int64, error) {
	id := n.ID
	if id == 0 {
		id = f.nextID
		f.nextID++
	}
	cp := *n
	cp.ID = id
	f.notes[id] = &cp
	return id, nil
}

func (f *fakeResolver) UpdateNote(id int64, front, back, tag string) error {
	n, ok := f.notes[id]
	if !ok {
		return apperr.ErrNotFound
	}
	n.Front = front
	n.Back = back
	n.Tag = tag
	return nil
}

func writeVaultFile(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	abs := filepath.Join(vaultDir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readVaultFile(t *testing.T, vaultDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(vaultDir, rel))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestScanFile_CreatesBasicNote(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	writeVaultFile(t, vaultDir, "geo.md", "Q: Capital of France?\nA: Paris\n\n")

	surviving, err := ScanFile(store, models.FileRef{Path: "geo.md", Deck: "Default"}, col, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if len(surviving) != 1 {
		t.Fatalf("surviving = %d, want 1", len(surviving))
	}
	if len(col.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(col.notes))
	}
	var note *models.Note
	for _, n := range col.notes {
		note = n
	}
	if note.Front != "Capital of France?" || note.Back != "Paris" {
		t.Errorf("note = %q / %q", note.Front, note.Back)
	}
	if note.Kind != models.KindBasic {
		t.Errorf("kind = %q, want %q", note.Kind, models.KindBasic)
	}
	if note.Tag != "geo" {
		t.Errorf("tag = %q, want geo", note.Tag)
	}

	want := fmt.Sprintf("Q: Capital of France?\nA: Paris\n<!-- %d -->\n\n", note.ID)
	if got := readVaultFile(t, vaultDir, "geo.md"); got != want {
		t.Errorf("rewritten file:\n%q\nwant:\n%q", got, want)
	}
}

func TestScanFile_ReversedCard(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	writeVaultFile(t, vaultDir, "vocab.md", "QA: dog\nA: chien\n\n")

	if _, err := ScanFile(store, models.FileRef{Path: "vocab.md", Deck: "Default"}, col, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	for _, n := range col.notes {
		if n.Kind != models.KindBasicReversed {
			t.Errorf("kind = %q, want %q", n.Kind, models.KindBasicReversed)
		}
		if n.Front != "dog" || n.Back != "chien" {
			t.Errorf("note = %q / %q", n.Front, n.Back)
		}
	}
}

func TestScanFile_MultiLineFrontAndBack(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	content := "Q: first front line\nsecond front line\nA: first back line\nsecond back line\n\n"
	writeVaultFile(t, vaultDir, "multi.md", content)

	if _, err := ScanFile(store, models.FileRef{Path: "multi.md", Deck: "Default"}, col, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	for _, n := range col.notes {
		if want := "first front line" + models.LineBreak + "second front line"; n.Front != want {
			t.Errorf("front = %q, want %q", n.Front, want)
		}
		if want := "first back line" + models.LineBreak + "second back line"; n.Back != want {
			t.Errorf("back = %q, want %q", n.Back, want)
		}
	}
}

func TestScanFile_IdempotentRescan(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "idem.md", Deck: "Default"}
	writeVaultFile(t, vaultDir, "idem.md", "Q: question\nA: answer\n\n")

	if _, err := ScanFile(store, ref, col, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	first := readVaultFile(t, vaultDir, "idem.md")

	surviving, err := ScanFile(store, ref, col, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if len(col.notes) != 1 {
		t.Errorf("notes = %d after rescan, want 1", len(col.notes))
	}
	if len(surviving) != 1 {
		t.Errorf("surviving = %d, want 1", len(surviving))
	}
	if second := readVaultFile(t, vaultDir, "idem.md"); second != first {
		t.Errorf("file changed on rescan:\n%q\nvs\n%q", second, first)
	}
}

func TestScanFile_EditUpdatesExistingNote(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "edit.md", Deck: "Default"}
	writeVaultFile(t, vaultDir, "edit.md", "Q: question\nA: answer\n\n")

	if _, err := ScanFile(store, ref, col, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	var id int64
	for i := range col.notes {
		id = i
	}

	// Edit the answer, keep the identifier comment.
	edited := fmt.Sprintf("Q: question\nA: better answer\n<!-- %d -->\n\n", id)
	writeVaultFile(t, vaultDir, "edit.md", edited)

	if _, err := ScanFile(store, ref, col, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	if len(col.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(col.notes))
	}
	if got := col.notes[id].Back; got != "better answer" {
		t.Errorf("back = %q, want %q", got, "better answer")
	}
	// File already carried the identifier, so it should be untouched.
	if got := readVaultFile(t, vaultDir, "edit.md"); got != edited {
		t.Errorf("file changed: %q", got)
	}
}

func TestScanFile_StaleIdentifierRecreatesNote(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "stale.md", Deck: "Default"}
	writeVaultFile(t, vaultDir, "stale.md", "Q: question\nA: answer\n<!-- 9999999999999 -->\n\n")

	surviving, err := ScanFile(store, ref, col, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := col.notes[9999999999999]; !ok {
		t.Fatal("note not recreated under the stale identifier")
	}
	if _, ok := surviving[9999999999999]; !ok {
		t.Error("recreated identifier missing from surviving set")
	}
	want := "Q: question\nA: answer\n<!-- 9999999999999 -->\n\n"
	if got := readVaultFile(t, vaultDir, "stale.md"); got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestScanFile_ShortIdentifierTreatedAsText(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "short.md", Deck: "Default"}
	writeVaultFile(t, vaultDir, "short.md", "Q: question\nA: answer\n<!-- 123 -->\n\n")

	if _, err := ScanFile(store, ref, col, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	if len(col.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(col.notes))
	}
	for id, n := range col.notes {
		if id == 123 {
			t.Error("short digit run must not be used as identifier")
		}
		// The malformed comment is ordinary text and lands on the back.
		if want := "answer" + models.LineBreak + "<!-- 123 -->"; n.Back != want {
			t.Errorf("back = %q, want %q", n.Back, want)
		}
	}
	// A fresh identifier comment is appended before the blank line.
	got := readVaultFile(t, vaultDir, "short.md")
	if !strings.Contains(got, "<!-- 123 -->\n<!-- ") {
		t.Errorf("expected fresh identifier after the malformed comment, got %q", got)
	}
}

func TestScanFile_IncompleteBlockPassesThrough(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "incomplete.md", Deck: "Default"}
	content := "Q: a question with no answer\n\nsome prose after it\n"
	writeVaultFile(t, vaultDir, "incomplete.md", content)

	surviving, err := ScanFile(store, ref, col, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if len(surviving) != 0 || len(col.notes) != 0 {
		t.Errorf("incomplete block produced notes: surviving=%d notes=%d", len(surviving), len(col.notes))
	}
	if got := readVaultFile(t, vaultDir, "incomplete.md"); got != content {
		t.Errorf("file mutated: %q", got)
	}
}

func TestScanFile_TrailingNoteWithoutBlankLine(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "tail.md", Deck: "Default"}
	writeVaultFile(t, vaultDir, "tail.md", "Q: question\nA: answer")

	surviving, err := ScanFile(store, ref, col, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if len(surviving) != 1 {
		t.Fatalf("surviving = %d, want 1", len(surviving))
	}
	var id int64
	for i := range col.notes {
		id = i
	}
	want := fmt.Sprintf("Q: question\nA: answer\n<!-- %d -->\n\n", id)
	if got := readVaultFile(t, vaultDir, "tail.md"); got != want {
		t.Errorf("file = %q, want %q", got, want)
	}
}

func TestScanFile_SurroundingProsePreserved(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "prose.md", Deck: "Default"}
	content := "# Study notes\n\nSome commentary that is not a card.\n\nQ: question\nA: answer\n\nClosing remarks.\n"
	writeVaultFile(t, vaultDir, "prose.md", content)

	if _, err := ScanFile(store, ref, col, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	got := readVaultFile(t, vaultDir, "prose.md")
	for _, fragment := range []string{"# Study notes\n", "Some commentary that is not a card.\n", "Closing remarks.\n"} {
		if !strings.Contains(got, fragment) {
			t.Errorf("missing fragment %q in %q", fragment, got)
		}
	}
}

func TestScanFile_RepeatedQuestionMarkerExtendsFront(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "repeat.md", Deck: "Default"}
	writeVaultFile(t, vaultDir, "repeat.md", "Q: first\nQ: second\nA: answer\n\n")

	if _, err := ScanFile(store, ref, col, testutil.Logger()); err != nil {
		t.Fatal(err)
	}
	if len(col.notes) != 1 {
		t.Fatalf("notes = %d, want 1", len(col.notes))
	}
	for _, n := range col.notes {
		if want := "first" + models.LineBreak + "second"; n.Front != want {
			t.Errorf("front = %q, want %q", n.Front, want)
		}
	}
}

func TestScanFile_MultipleNotesInOneFile(t *testing.T) {
	vaultDir, store := testutil.TestVault(t)
	col := newFakeResolver()
	ref := models.FileRef{Path: "many.md", Deck: "Default"}
	writeVaultFile(t, vaultDir, "many.md", "Q: one\nA: 1\n\nQ: two\nA: 2\n\nQA: three\nA: 3\n\n")

	surviving, err := ScanFile(store, ref, col, testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	if len(surviving) != 3 || len(col.notes) != 3 {
		t.Fatalf("surviving=%d notes=%d, want 3/3", len(surviving), len(col.notes))
	}
}

func TestNoteTag(t *testing.T) {
	cases := []struct{ path, want string }{
		{"geo.md", "geo"},
		{"Sub/vocab.md", "vocab"},
		{"archive.notes.md", "archive"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := noteTag(tc.path); got != tc.want {
			t.Errorf("noteTag(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
