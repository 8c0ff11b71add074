// Package storage defines the persistence boundary: one aggregate document
// per data root plus one plain-text content file per snippet.
package storage

import (
	"github.com/google/uuid"

	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/store"
)

// Provider is the interface for durable store operations. All methods are
// blocking file I/O; the caller owns retry policy.
type Provider interface {
	// Load deserializes the aggregate document. A missing document yields
	// an empty store, not an error.
	Load() (*store.Store, error)
	// Save serializes the full aggregate as one unit. Snippet content is
	// stripped; it lives in side files.
	Save(s *store.Store) error
	// SaveSnippetContent writes the snippet's content file.
	SaveSnippetContent(sn *models.Snippet) error
	// LoadSnippetContent reads a content file; a missing file yields "".
	LoadSnippetContent(snippetID, notebookID uuid.UUID, extension string) (string, error)
	// DeleteSnippetFile removes the snippet's content file if present.
	DeleteSnippetFile(sn *models.Snippet) error
	// MoveSnippetContent relocates the content file after the snippet moved
	// from oldNotebookID to its current notebook.
	MoveSnippetContent(sn *models.Snippet, oldNotebookID uuid.UUID) error
	// DeleteNotebookDir removes a notebook's content directory if present.
	DeleteNotebookDir(notebookID uuid.UUID) error
	// SnippetPath returns the absolute path of the snippet's content file,
	// suitable for handing to an external editor.
	SnippetPath(sn *models.Snippet) string
}
