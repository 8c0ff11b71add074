package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/halvard/skald/internal/backup"
	"github.com/halvard/skald/internal/checksum"
	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/store"
	"github.com/halvard/skald/internal/vault"
)

// Handler holds API route handlers.
type Handler struct {
	svc *vault.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *vault.Service) *Handler {
	return &Handler{svc: svc}
}

// idParam parses the {id} URL parameter as a UUID.
func idParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// Tree handles GET /api/tree.
//
//	@Summary		Flattened notebook and snippet tree in display order
//	@Tags			tree
//	@Produce		json
//	@Success		200	{object}	TreeResponse
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	items := h.svc.Tree()
	entries := make([]TreeEntry, len(items))
	for i, it := range items {
		entries[i] = TreeEntry{Depth: it.Depth, Notebook: it.Notebook, Snippet: it.Snippet}
	}
	writeJSON(w, http.StatusOK, TreeResponse{Items: entries})
}

// CreateNotebook handles POST /api/notebooks.
//
//	@Summary		Create a root or child notebook
//	@Tags			notebooks
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNotebookRequest	true	"Notebook to create"
//	@Success		201		{object}	models.Notebook
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks [post]
func (h *Handler) CreateNotebook(w http.ResponseWriter, r *http.Request) {
	var req CreateNotebookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	var (
		n   *models.Notebook
		err error
	)
	if req.ParentID != nil {
		n, err = h.svc.CreateChildNotebook(*req.ParentID, req.Name)
	} else {
		n, err = h.svc.CreateNotebook(req.Name)
	}
	if err != nil {
		writeError(w, err, "create notebook")
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// GetNotebook handles GET /api/notebooks/{id}.
//
//	@Summary		Get a single notebook
//	@Tags			notebooks
//	@Produce		json
//	@Param			id	path		string	true	"Notebook ID"
//	@Success		200	{object}	models.Notebook
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks/{id} [get]
func (h *Handler) GetNotebook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid notebook id"))
		return
	}
	n, err := h.svc.Notebook(id)
	if err != nil {
		writeError(w, err, "get notebook")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNotebook handles DELETE /api/notebooks/{id}.
// With ?cascade=true the whole subtree and its snippets are removed;
// without it the delete is rejected for non-empty notebooks.
//
//	@Summary		Delete a notebook
//	@Tags			notebooks
//	@Param			id		path	string	true	"Notebook ID"
//	@Param			cascade	query	bool	false	"Delete subtree and snippets"
//	@Success		204		"Notebook deleted"
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks/{id} [delete]
func (h *Handler) DeleteNotebook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid notebook id"))
		return
	}
	cascade := r.URL.Query().Get("cascade") == "true"
	if err := h.svc.DeleteNotebook(id, cascade); err != nil {
		writeError(w, err, "delete notebook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveNotebook handles POST /api/notebooks/{id}/move.
//
//	@Summary		Swap a notebook with its previous or next sibling
//	@Tags			notebooks
//	@Accept			json
//	@Param			id		path	string				true	"Notebook ID"
//	@Param			body	body	MoveNotebookRequest	true	"Direction"
//	@Success		204		"Notebook moved"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks/{id}/move [post]
func (h *Handler) MoveNotebook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid notebook id"))
		return
	}
	var req MoveNotebookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	var dir store.MoveDirection
	switch req.Direction {
	case "up":
		dir = store.MoveUp
	case "down":
		dir = store.MoveDown
	default:
		writeJSON(w, http.StatusBadRequest, errorBody("direction must be up or down"))
		return
	}
	if err := h.svc.MoveNotebook(id, dir); err != nil {
		writeError(w, err, "move notebook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateSnippet handles POST /api/snippets.
//
//	@Summary		Create an empty snippet in a notebook
//	@Tags			snippets
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateSnippetRequest	true	"Snippet to create"
//	@Success		201		{object}	models.Snippet
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets [post]
func (h *Handler) CreateSnippet(w http.ResponseWriter, r *http.Request) {
	var req CreateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	sn, err := h.svc.CreateSnippet(req.Title, models.ParseLanguage(req.Language), req.NotebookID)
	if err != nil {
		writeError(w, err, "create snippet")
		return
	}
	writeJSON(w, http.StatusCreated, sn)
}

// ListSnippets handles GET /api/snippets.
//
//	@Summary		List snippets, optionally favorites only
//	@Tags			snippets
//	@Produce		json
//	@Param			favorite	query		bool	false	"Only favorite snippets"
//	@Success		200			{object}	SnippetListResponse
//	@Security		BearerAuth
//	@Router			/snippets [get]
func (h *Handler) ListSnippets(w http.ResponseWriter, r *http.Request) {
	favoritesOnly := r.URL.Query().Get("favorite") == "true"

	summaries := make([]SnippetSummary, 0)
	for _, sn := range h.svc.Snippets() {
		if favoritesOnly && !sn.Favorite {
			continue
		}
		summaries = append(summaries, newSnippetSummary(sn))
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Title != summaries[j].Title {
			return summaries[i].Title < summaries[j].Title
		}
		return summaries[i].ID.String() < summaries[j].ID.String()
	})
	writeJSON(w, http.StatusOK, SnippetListResponse{Snippets: summaries})
}

// GetSnippet handles GET /api/snippets/{id}.
// The response carries the snippet content and its checksum in the ETag
// header for later If-Match updates.
//
//	@Summary		Get a single snippet with content
//	@Tags			snippets
//	@Produce		json
//	@Param			id	path		string	true	"Snippet ID"
//	@Success		200	{object}	models.Snippet
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets/{id} [get]
func (h *Handler) GetSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid snippet id"))
		return
	}
	sn, err := h.svc.Snippet(id)
	if err != nil {
		writeError(w, err, "get snippet")
		return
	}
	w.Header().Set("ETag", `"`+checksum.Sum([]byte(sn.Content))+`"`)
	writeJSON(w, http.StatusOK, sn)
}

// UpdateSnippetContent handles PUT /api/snippets/{id}/content.
//
//	@Summary		Replace snippet content with optimistic concurrency
//	@Tags			snippets
//	@Accept			json
//	@Produce		json
//	@Param			id			path	string						true	"Snippet ID"
//	@Param			If-Match	header	string						false	"SHA-256 checksum of the content being replaced"
//	@Param			body		body	UpdateSnippetContentRequest	true	"New content"
//	@Success		200			{object}	models.Snippet
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets/{id}/content [put]
func (h *Handler) UpdateSnippetContent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid snippet id"))
		return
	}
	var req UpdateSnippetContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	ifMatch := r.Header.Get("If-Match")
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch = strings.Trim(ifMatch, `"`)

	sn, err := h.svc.UpdateSnippetContent(id, req.Content, ifMatch)
	if err != nil {
		writeError(w, err, "update snippet content")
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// DeleteSnippet handles DELETE /api/snippets/{id}.
//
//	@Summary		Delete a snippet
//	@Tags			snippets
//	@Param			id	path	string	true	"Snippet ID"
//	@Success		204	"Snippet deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/snippets/{id} [delete]
func (h *Handler) DeleteSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid snippet id"))
		return
	}
	if err := h.svc.DeleteSnippet(id); err != nil {
		writeError(w, err, "delete snippet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveSnippet handles POST /api/snippets/{id}/move.
func (h *Handler) MoveSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid snippet id"))
		return
	}
	var req MoveSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	sn, err := h.svc.MoveSnippet(id, req.NotebookID)
	if err != nil {
		writeError(w, err, "move snippet")
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// ToggleFavorite handles POST /api/snippets/{id}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid snippet id"))
		return
	}
	sn, err := h.svc.ToggleFavorite(id)
	if err != nil {
		writeError(w, err, "toggle favorite")
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// AccessSnippet handles POST /api/snippets/{id}/access. It records a use
// of the snippet (copy, open in editor) for usage statistics.
func (h *Handler) AccessSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid snippet id"))
		return
	}
	sn, err := h.svc.AccessSnippet(id)
	if err != nil {
		writeError(w, err, "access snippet")
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// TagSnippet handles POST /api/snippets/{id}/tags.
func (h *Handler) TagSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid snippet id"))
		return
	}
	var req TagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	tag, err := h.svc.TagSnippet(id, req.Name)
	if err != nil {
		writeError(w, err, "tag snippet")
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

// UntagSnippet handles DELETE /api/snippets/{id}/tags/{name}.
func (h *Handler) UntagSnippet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid snippet id"))
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.svc.UntagSnippet(id, name); err != nil {
		writeError(w, err, "untag snippet")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/tags with optional substring filter ?q=.
//
//	@Summary		List tags, optionally filtered by name substring
//	@Tags			tags
//	@Produce		json
//	@Param			q	query		string	false	"Name filter"
//	@Success		200	{object}	TagListResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, TagListResponse{Tags: h.svc.FindTags(q)})
}

// Search handles GET /api/search.
//
//	@Summary		Search notebooks, snippets, tags and content
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: h.svc.Search(q)})
}

// Export handles GET /api/export.
//
//	@Summary		Export the store as a portable bundle
//	@Tags			backup
//	@Produce		json
//	@Param			content		query	bool	false	"Include snippet content (default true)"
//	@Param			favorites	query	bool	false	"Favorites only"
//	@Param			notebooks	query	string	false	"Comma-separated notebook IDs to include"
//	@Success		200	{object}	backup.Bundle
//	@Security		BearerAuth
//	@Router			/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := backup.DefaultOptions()
	if q.Get("content") == "false" {
		opts.IncludeContent = false
	}
	if q.Get("favorites") == "true" {
		opts.FavoritesOnly = true
	}
	if raw := q.Get("notebooks"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorBody("invalid notebook id in filter"))
				return
			}
			opts.NotebookIDs = append(opts.NotebookIDs, id)
		}
	}
	writeJSON(w, http.StatusOK, h.svc.Export(opts))
}

// Import handles POST /api/import.
//
//	@Summary		Merge an export bundle into the store
//	@Tags			backup
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Bundle and merge policy"
//	@Success		200		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 50<<20)
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	policy := backup.MergeUpdate
	if req.Policy != "" {
		var err error
		if policy, err = backup.ParsePolicy(req.Policy); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown merge policy"))
			return
		}
	}
	res, err := h.svc.ImportBlob(req.Bundle, policy)
	if err != nil {
		writeError(w, err, "import")
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{
		NotebooksAdded: res.NotebooksAdded,
		SnippetsAdded:  res.SnippetsAdded,
	})
}
