// Package models defines the domain types for Ansuz.
package models

import "time"

// CardKind selects which card templates a note generates.
type CardKind string

const (
	// KindBasic generates a single front→back card.
	KindBasic CardKind = "basic"
	// KindBasicReversed generates both front→back and back→front cards.
	KindBasicReversed CardKind = "basic_reversed"
)

// Valid reports whether k is a known card kind.
func (k CardKind) Valid() bool {
	return k == KindBasic || k == KindBasicReversed
}

// LineBreak is the placeholder stored in note fields in place of a literal
// newline. Collection note fields are single-line; multi-line markdown
// blocks are joined with this token and expanded again on export.
const LineBreak = "<br>"

// Note is a single flashcard record in the collection.
type Note struct {
	ID        int64     `json:"id"`
	Deck      string    `json:"deck"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	Tag       string    `json:"tag"`
	Kind      CardKind  `json:"kind"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileRef is a markdown file discovered in the vault together with the deck
// its notes belong to.
type FileRef struct {
	Path string `json:"path"` // relative to the vault root
	Deck string `json:"deck"`
}

// ImportReport summarizes one import run.
type ImportReport struct {
	// Decks maps each processed deck to the number of notes that survived
	// in it (created or updated).
	Decks map[string]int `json:"decks"`
	// Deleted is the number of collection notes removed because no markdown
	// block claimed them.
	Deleted int `json:"deleted"`
}

// Total returns the number of surviving notes across all decks.
func (r *ImportReport) Total() int {
	n := 0
	for _, c := range r.Decks {
		n += c
	}
	return n
}
