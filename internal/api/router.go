package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Collection browsing.
	r.Get("/decks", h.ListDecks)
	r.Get("/decks/{deck}/notes", h.DeckNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/search", h.Search)

	// Sync triggers.
	r.Post("/import", h.Import)
	r.Post("/export", h.Export)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
