package store

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/apperr"
	"github.com/halvard/skald/internal/models"
)

// MoveDirection selects the sibling to swap with in MoveNotebook.
type MoveDirection int

const (
	MoveUp MoveDirection = iota
	MoveDown
)

// CreateRootNotebook creates a notebook at the top level and appends it to
// the ordered root list.
func (s *Store) CreateRootNotebook(name string) (*models.Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.ErrValidation
	}
	n := models.NewNotebook(name)
	s.Notebooks[n.ID] = n
	s.RootNotebooks = append(s.RootNotebooks, n.ID)
	return n, nil
}

// CreateChildNotebook creates a notebook under parentID and appends it to the
// parent's ordered child list.
func (s *Store) CreateChildNotebook(parentID uuid.UUID, name string) (*models.Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.ErrValidation
	}
	parent, ok := s.Notebooks[parentID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	n := models.NewChildNotebook(name, parentID)
	s.Notebooks[n.ID] = n
	parent.AddChild(n.ID)
	return n, nil
}

// Notebook returns the notebook with the given id.
func (s *Store) Notebook(id uuid.UUID) (*models.Notebook, error) {
	n, ok := s.Notebooks[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return n, nil
}

// DeleteNotebook removes an empty notebook. It fails with ErrConflict while
// the notebook still owns snippets or has child notebooks; use
// DeleteNotebookTree for the cascading variant.
func (s *Store) DeleteNotebook(id uuid.UUID) error {
	n, ok := s.Notebooks[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if len(n.Children) > 0 || len(s.snippetsOf(id)) > 0 {
		return apperr.ErrConflict
	}
	s.detachNotebook(n)
	delete(s.Notebooks, id)
	return nil
}

// DeleteNotebookTree removes the notebook and every descendant notebook and
// snippet, bottom-up. It returns the deleted snippets so the caller can
// remove their content files.
func (s *Store) DeleteNotebookTree(id uuid.UUID) ([]*models.Snippet, error) {
	n, ok := s.Notebooks[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	var removed []*models.Snippet
	s.deleteSubtree(n, &removed)
	return removed, nil
}

func (s *Store) deleteSubtree(n *models.Notebook, removed *[]*models.Snippet) {
	for _, childID := range append([]uuid.UUID{}, n.Children...) {
		if child, ok := s.Notebooks[childID]; ok {
			s.deleteSubtree(child, removed)
		}
	}
	for _, sn := range s.snippetsOf(n.ID) {
		s.Tags.HandleSnippetDeleted(sn.ID)
		delete(s.Snippets, sn.ID)
		*removed = append(*removed, sn)
	}
	s.detachNotebook(n)
	delete(s.Notebooks, n.ID)
}

// detachNotebook unlinks n from its parent's child list or from the root
// list. The notebook itself stays in the table.
func (s *Store) detachNotebook(n *models.Notebook) {
	if n.ParentID != nil {
		if parent, ok := s.Notebooks[*n.ParentID]; ok {
			parent.RemoveChild(n.ID)
		}
		return
	}
	s.RootNotebooks = removeID(s.RootNotebooks, n.ID)
}

// MoveNotebook swaps the notebook with its previous or next sibling in the
// parent's child list, or in the root list for root notebooks. Moving past
// either end is a no-op.
func (s *Store) MoveNotebook(id uuid.UUID, dir MoveDirection) error {
	n, ok := s.Notebooks[id]
	if !ok {
		return apperr.ErrNotFound
	}
	siblings := s.RootNotebooks
	if n.ParentID != nil {
		parent, ok := s.Notebooks[*n.ParentID]
		if !ok {
			return apperr.ErrNotFound
		}
		siblings = parent.Children
	}
	for i, sib := range siblings {
		if sib != id {
			continue
		}
		switch {
		case dir == MoveUp && i > 0:
			siblings[i-1], siblings[i] = siblings[i], siblings[i-1]
		case dir == MoveDown && i < len(siblings)-1:
			siblings[i], siblings[i+1] = siblings[i+1], siblings[i]
		}
		return nil
	}
	return apperr.ErrNotFound
}

// TreeItem is one entry of the flattened forest listing: exactly one of
// Notebook or Snippet is set.
type TreeItem struct {
	Depth    int
	Notebook *models.Notebook
	Snippet  *models.Snippet
}

// Flatten walks the forest depth-first in pre-order, starting from each root
// in root-list order. Each notebook is emitted, then its owned snippets in
// creation order, then its children in child-list order. The result is
// computed from current state on every call.
func (s *Store) Flatten() []TreeItem {
	var items []TreeItem
	for _, rootID := range s.RootNotebooks {
		if n, ok := s.Notebooks[rootID]; ok {
			s.flattenInto(&items, n, 0)
		}
	}
	return items
}

func (s *Store) flattenInto(items *[]TreeItem, n *models.Notebook, depth int) {
	*items = append(*items, TreeItem{Depth: depth, Notebook: n})
	for _, sn := range s.snippetsOf(n.ID) {
		*items = append(*items, TreeItem{Depth: depth + 1, Snippet: sn})
	}
	for _, childID := range n.Children {
		if child, ok := s.Notebooks[childID]; ok {
			s.flattenInto(items, child, depth+1)
		}
	}
}

// snippetsOf returns the snippets owned by a notebook in creation order,
// with ids as tie-breaker so the listing is stable.
func (s *Store) snippetsOf(notebookID uuid.UUID) []*models.Snippet {
	var out []*models.Snippet
	for _, sn := range s.Snippets {
		if sn.NotebookID == notebookID {
			out = append(out, sn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// recountSnippets refreshes the cached snippet count of a notebook.
func (s *Store) recountSnippets(notebookID uuid.UUID) {
	if n, ok := s.Notebooks[notebookID]; ok {
		n.SetSnippetCount(len(s.snippetsOf(notebookID)))
	}
}
