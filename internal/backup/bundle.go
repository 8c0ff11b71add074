// Package backup implements the versioned export/import bundle and the
// merge engine that reconciles an imported bundle into a live store.
package backup

import (
	"time"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/store"
)

// BundleVersion is written into every export.
const BundleVersion = "1.0.0"

// Bundle is the wire format accepted by the merge engine, from a file or an
// in-memory blob. Tag associations travel as tag-name → snippet-id lists so
// that tag ids never leak between installations.
type Bundle struct {
	Version       string                         `json:"version"`
	CreatedAt     time.Time                      `json:"created_at"`
	Notebooks     map[uuid.UUID]*models.Notebook `json:"notebooks"`
	Snippets      map[uuid.UUID]*models.Snippet  `json:"snippets"`
	RootNotebooks []uuid.UUID                    `json:"root_notebooks"`
	Tags          map[string][]uuid.UUID         `json:"tags"`
}

// Options control what an export includes.
type Options struct {
	// IncludeContent keeps snippet content in the bundle; without it the
	// content fields are stripped to keep exports small.
	IncludeContent bool
	// NotebookIDs restricts the export to the given notebooks. Nil means
	// every notebook.
	NotebookIDs []uuid.UUID
	// FavoritesOnly restricts snippets to favorites.
	FavoritesOnly bool
}

// DefaultOptions exports everything, content included.
func DefaultOptions() Options {
	return Options{IncludeContent: true}
}

// Build creates a bundle from the store under the given options. Entities
// are cloned; the bundle shares no state with the store.
func Build(s *store.Store, opts Options) *Bundle {
	b := &Bundle{
		Version:       BundleVersion,
		CreatedAt:     time.Now().UTC(),
		Notebooks:     make(map[uuid.UUID]*models.Notebook),
		Snippets:      make(map[uuid.UUID]*models.Snippet),
		RootNotebooks: []uuid.UUID{},
		Tags:          make(map[string][]uuid.UUID),
	}

	include := func(id uuid.UUID) bool { return true }
	if opts.NotebookIDs != nil {
		wanted := models.NewIDSet(opts.NotebookIDs...)
		include = wanted.Contains
	}

	for id, n := range s.Notebooks {
		if include(id) {
			b.Notebooks[id] = cloneNotebook(n)
		}
	}
	for _, rootID := range s.RootNotebooks {
		if include(rootID) {
			b.RootNotebooks = append(b.RootNotebooks, rootID)
		}
	}
	for id, sn := range s.Snippets {
		if !include(sn.NotebookID) {
			continue
		}
		if opts.FavoritesOnly && !sn.Favorite {
			continue
		}
		clone := cloneSnippet(sn)
		if !opts.IncludeContent {
			clone.Content = ""
		}
		b.Snippets[id] = clone
	}

	for tagID, t := range s.Tags.Tags {
		var included []uuid.UUID
		for _, snippetID := range s.Tags.SnippetsWithTag(tagID) {
			if _, ok := b.Snippets[snippetID]; ok {
				included = append(included, snippetID)
			}
		}
		if len(included) > 0 {
			b.Tags[t.Name] = included
		}
	}
	return b
}

func cloneNotebook(n *models.Notebook) *models.Notebook {
	clone := *n
	clone.Children = append([]uuid.UUID{}, n.Children...)
	if n.ParentID != nil {
		pid := *n.ParentID
		clone.ParentID = &pid
	}
	return &clone
}

func cloneSnippet(sn *models.Snippet) *models.Snippet {
	clone := *sn
	clone.Tags = append([]string{}, sn.Tags...)
	return &clone
}
