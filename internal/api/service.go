package api

import (
	"log/slog"
	"slices"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
	vsync "github.com/starford/ansuz/internal/sync"
)

// Service coordinates vault, collection, and sync operations for the API.
type Service struct {
	store  storage.Provider
	col    collection.Collection
	scope  vsync.DeletionScope
	broker *sse.Broker
	logger *slog.Logger
}

// NewService creates a new API service. broker may be nil when SSE is not
// wired (tests, CLI use).
func NewService(store storage.Provider, col collection.Collection, scope vsync.DeletionScope, broker *sse.Broker, logger *slog.Logger) *Service {
	return &Service{store: store, col: col, scope: scope, broker: broker, logger: logger}
}

// ListDecks returns every deck name in the collection.
func (s *Service) ListDecks() ([]string, error) {
	return s.col.DeckNames()
}

// DeckNotes returns all notes in a deck, or apperr.ErrNotFound for an
// unknown deck.
func (s *Service) DeckNotes(deck string) ([]*models.Note, error) {
	names, err := s.col.DeckNames()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(names, deck) {
		return nil, apperr.ErrNotFound
	}
	return s.col.Notes(deck)
}

// CreateNote adds a note straight to the collection. The next export makes
// it visible in the vault; an import before that would reconcile it away, so
// callers working file-first should edit markdown instead.
func (s *Service) CreateNote(req CreateNoteRequest) (*models.Note, error) {
	kind := models.CardKind(req.Kind)
	if req.Kind == "" {
		kind = models.KindBasic
	}
	n := &models.Note{
		Deck:  req.Deck,
		Front: req.Front,
		Back:  req.Back,
		Tag:   req.Tag,
		Kind:  kind,
	}
	id, err := s.col.AddNote(n)
	if err != nil {
		return nil, err
	}
	n.ID = id
	if s.broker != nil {
		s.broker.PublishNoteCreated(n)
	}
	return n, nil
}

// Search matches notes against front, back, and tag.
func (s *Service) Search(query string, limit int) ([]*models.Note, error) {
	return s.col.Search(query, limit)
}

// Import runs a full vault import pass and publishes the report.
func (s *Service) Import() (*models.ImportReport, error) {
	report, err := vsync.Run(s.store, s.col, s.scope, s.logger)
	if err != nil {
		return nil, err
	}
	if s.broker != nil {
		s.broker.PublishSyncCompleted(report)
	}
	return report, nil
}

// Export serializes the collection to markdown under dest.
func (s *Service) Export(dest string) ([]string, error) {
	return exporter.Export(s.col, dest, s.logger)
}
