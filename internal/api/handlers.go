package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// deckName extracts the deck name URL parameter, decoding any escaping.
func deckName(r *http.Request) string {
	raw := chi.URLParam(r, "deck")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDecks handles GET /decks.
func (h *Handler) ListDecks(w http.ResponseWriter, _ *http.Request) {
	decks, err := h.svc.ListDecks()
	if err != nil {
		slog.Error("list decks failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if decks == nil {
		decks = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": decks})
}

// DeckNotes handles GET /decks/{deck}/notes.
func (h *Handler) DeckNotes(w http.ResponseWriter, r *http.Request) {
	deck := deckName(r)
	if deck == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("deck is required"))
		return
	}
	notes, err := h.svc.DeckNotes(deck)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("deck not found"))
		} else {
			slog.Error("deck notes failed", slog.String("deck", deck), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deck":  deck,
		"notes": notes,
		"total": len(notes),
	})
}

// CreateNote handles POST /notes.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	note, err := h.svc.CreateNote(req)
	if err != nil {
		slog.Error("create note failed", slog.String("deck", req.Deck), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Search handles GET /search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notes, err := h.svc.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if notes == nil {
		notes = []*models.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": notes, "total": len(notes)})
}

// Import handles POST /import: a full vault import pass.
func (h *Handler) Import(w http.ResponseWriter, _ *http.Request) {
	report, err := h.svc.Import()
	if err != nil {
		if errors.Is(err, apperr.ErrNoNotesFound) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody("no markdown notes found in vault"))
			return
		}
		slog.Error("import failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Export handles POST /export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	decks, err := h.svc.Export(req.Dest)
	if err != nil {
		if errors.Is(err, apperr.ErrExportTargetExists) {
			writeJSON(w, http.StatusConflict, errorBody("export target already exists"))
			return
		}
		slog.Error("export failed", slog.String("dest", req.Dest), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": decks})
}
