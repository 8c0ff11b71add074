package api

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/search"
)

// CreateNotebookRequest is the request body for creating a notebook.
// ParentID, when set, creates the notebook as a child of that notebook.
type CreateNotebookRequest struct {
	Name     string     `json:"name" example:"Algorithms" validate:"required"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// MoveNotebookRequest selects the swap direction for reordering a notebook
// among its siblings.
type MoveNotebookRequest struct {
	Direction string `json:"direction" example:"up" validate:"required"`
}

// CreateSnippetRequest is the request body for creating a snippet.
type CreateSnippetRequest struct {
	Title      string    `json:"title" example:"Quick sort" validate:"required"`
	Language   string    `json:"language" example:"rust"`
	NotebookID uuid.UUID `json:"notebook_id" validate:"required"`
}

// UpdateSnippetContentRequest is the request body for replacing snippet content.
type UpdateSnippetContentRequest struct {
	Content string `json:"content" example:"fn main() {}" validate:"required"`
}

// MoveSnippetRequest is the request body for moving a snippet to another notebook.
type MoveSnippetRequest struct {
	NotebookID uuid.UUID `json:"notebook_id" validate:"required"`
}

// TagRequest is the request body for tagging or untagging a snippet.
type TagRequest struct {
	Name string `json:"name" example:"sorting" validate:"required"`
}

// ImportRequest carries an export bundle plus the merge policy to apply.
type ImportRequest struct {
	Policy string          `json:"policy" example:"merge"`
	Bundle json.RawMessage `json:"bundle" validate:"required"`
}

// TreeEntry is one row of the flattened tree listing. Exactly one of
// Notebook or Snippet is set.
type TreeEntry struct {
	Depth    int              `json:"depth"`
	Notebook *models.Notebook `json:"notebook,omitempty"`
	Snippet  *models.Snippet  `json:"snippet,omitempty"`
}

// TreeResponse wraps the flattened tree.
type TreeResponse struct {
	Items []TreeEntry `json:"items" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
}

// SnippetSummary is a listing row: snippet metadata plus derived content
// stats, without the full content payload.
type SnippetSummary struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Language   models.Language `json:"language"`
	NotebookID uuid.UUID       `json:"notebook_id"`
	Favorite   bool            `json:"is_favorite"`
	Tags       []string        `json:"tags,omitempty"`
	Preview    string          `json:"preview,omitempty"`
	LineCount  int             `json:"line_count"`
	WordCount  int             `json:"word_count"`
	UseCount   int             `json:"use_count"`
}

func newSnippetSummary(sn *models.Snippet) SnippetSummary {
	return SnippetSummary{
		ID:         sn.ID,
		Title:      sn.Title,
		Language:   sn.Language,
		NotebookID: sn.NotebookID,
		Favorite:   sn.Favorite,
		Tags:       sn.Tags,
		Preview:    sn.Preview(3),
		LineCount:  sn.LineCount(),
		WordCount:  sn.WordCount(),
		UseCount:   sn.UseCount,
	}
}

// SnippetListResponse wraps a snippet listing.
type SnippetListResponse struct {
	Snippets []SnippetSummary `json:"snippets" validate:"required"`
}

// TagListResponse wraps a tag listing.
type TagListResponse struct {
	Tags []*models.Tag `json:"tags" validate:"required"`
}

// ImportResponse reports what a merge added.
type ImportResponse struct {
	NotebooksAdded int `json:"notebooks_added"`
	SnippetsAdded  int `json:"snippets_added"`
}
