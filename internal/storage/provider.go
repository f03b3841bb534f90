// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/ansuz/internal/models"

// DefaultDeck is the deck assigned to markdown files in the vault root.
const DefaultDeck = "Default"

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns every markdown flashcard file with its deck assignment:
	// files in the vault root belong to DefaultDeck, files exactly one
	// directory below the root belong to a deck named after that directory.
	// Deeper files are not discovered.
	List() ([]models.FileRef, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
}
