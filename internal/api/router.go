package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/halvard/skald/internal/vault"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *vault.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Tree listing.
	r.Get("/tree", h.Tree)

	// Notebooks.
	r.Post("/notebooks", h.CreateNotebook)
	r.Get("/notebooks/{id}", h.GetNotebook)
	r.Delete("/notebooks/{id}", h.DeleteNotebook)
	r.Post("/notebooks/{id}/move", h.MoveNotebook)

	// Snippets.
	r.Get("/snippets", h.ListSnippets)
	r.Post("/snippets", h.CreateSnippet)
	r.Get("/snippets/{id}", h.GetSnippet)
	r.Put("/snippets/{id}/content", h.UpdateSnippetContent)
	r.Delete("/snippets/{id}", h.DeleteSnippet)
	r.Post("/snippets/{id}/move", h.MoveSnippet)
	r.Post("/snippets/{id}/favorite", h.ToggleFavorite)
	r.Post("/snippets/{id}/access", h.AccessSnippet)
	r.Post("/snippets/{id}/tags", h.TagSnippet)
	r.Delete("/snippets/{id}/tags/{name}", h.UntagSnippet)

	// Tags.
	r.Get("/tags", h.ListTags)

	// Search.
	r.Get("/search", h.Search)

	// Backup.
	r.Get("/export", h.Export)
	r.Post("/import", h.Import)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
