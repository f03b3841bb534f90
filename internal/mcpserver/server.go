// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Ansuz flashcard tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
	vsync "github.com/starford/ansuz/internal/sync"
)

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp    *server.MCPServer
	store  storage.Provider
	col    collection.Collection
	scope  vsync.DeletionScope
	logger *slog.Logger
}

// New creates a new MCP server with all Ansuz tools registered.
func New(store storage.Provider, col collection.Collection, scope vsync.DeletionScope, logger *slog.Logger) *Server {
	s := &Server{store: store, col: col, scope: scope, logger: logger}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_decks",
		mcp.WithDescription("List every deck in the flashcard collection."),
	), s.listDecks)

	s.mcp.AddTool(mcp.NewTool("list_deck_notes",
		mcp.WithDescription("List all notes in a deck with their identifiers, fronts, and backs."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Deck name (e.g. Default)")),
	), s.listDeckNotes)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Add a flashcard note directly to the collection. "+
			"Prefer editing vault markdown and importing; read the card format first via "+
			"the get_card_format tool or the ansuz://card-format resource."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Target deck (created if missing)")),
		mcp.WithString("front", mcp.Required(), mcp.Description("Question side")),
		mcp.WithString("back", mcp.Required(), mcp.Description("Answer side")),
		mcp.WithString("kind", mcp.Description("Card kind: basic (default) or basic_reversed")),
		mcp.WithString("tag", mcp.Description("Optional tag")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note fronts, backs, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("import_notes",
		mcp.WithDescription("Run a full vault import pass: parse every markdown flashcard file, "+
			"create/update collection notes, and delete notes no file claims."),
	), s.importNotes)

	s.mcp.AddTool(mcp.NewTool("get_card_format",
		mcp.WithDescription("Returns the canonical markdown flashcard dialect. "+
			"Call this before writing vault files."),
	), s.getCardFormat)

	// Resource: card format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://card-format", "Card Format Contract",
			mcp.WithResourceDescription("Canonical markdown flashcard dialect the vault files follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDecks(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	decks, err := s.col.DeckNames()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(decks) == 0 {
		return mcp.NewToolResultText("The collection has no decks yet."), nil
	}
	return mcp.NewToolResultText(strings.Join(decks, "\n")), nil
}

func (s *Server) listDeckNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deck, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.col.Notes(deck)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Deck %q has no notes.", deck)), nil
	}
	payload, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) addNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deck, err := req.RequireString("deck")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	front, err := req.RequireString("front")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	back, err := req.RequireString("back")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	kind := models.KindBasic
	if k, kErr := req.RequireString("kind"); kErr == nil && k != "" {
		kind = models.CardKind(k)
		if !kind.Valid() {
			return mcp.NewToolResultError(fmt.Sprintf("unknown card kind %q", k)), nil
		}
	}
	tag := ""
	if v, tErr := req.RequireString("tag"); tErr == nil {
		tag = v
	}

	id, err := s.col.AddNote(&models.Note{
		Deck:  deck,
		Front: front,
		Back:  back,
		Tag:   tag,
		Kind:  kind,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("mcp: note added", slog.Int64("id", id), slog.String("deck", deck))
	return mcp.NewToolResultText(fmt.Sprintf("Created note %d in deck %q.", id, deck)), nil
}

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.col.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes matched."), nil
	}
	payload, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) importNotes(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := vsync.Run(s.store, s.col, s.scope, s.logger)
	if err != nil {
		if errors.Is(err, apperr.ErrNoNotesFound) {
			return mcp.NewToolResultText("No markdown flashcard files found in the vault."), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) getCardFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CardFormatContract), nil
}

func (s *Server) readCardFormatResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     CardFormatContract,
		},
	}, nil
}
