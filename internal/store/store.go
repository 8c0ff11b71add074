// Package store implements the in-memory aggregate holding all notebooks,
// snippets, and tag associations. There is exactly one mutator: callers
// thread a single *Store handle through every operation and the vault layer
// flushes it to disk after each successful mutation.
package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/models"
)

// Store is the aggregate root. It is the sole owner of every entity; nothing
// is aliased outside of it.
type Store struct {
	Notebooks     map[uuid.UUID]*models.Notebook `json:"notebooks"`
	RootNotebooks []uuid.UUID                    `json:"root_notebooks"`
	Snippets      map[uuid.UUID]*models.Snippet  `json:"snippets"`
	Tags          *TagIndex                      `json:"tags"`
}

// New creates an empty store.
func New() *Store {
	return &Store{
		Notebooks:     make(map[uuid.UUID]*models.Notebook),
		RootNotebooks: []uuid.UUID{},
		Snippets:      make(map[uuid.UUID]*models.Snippet),
		Tags:          NewTagIndex(),
	}
}

// Normalize repairs nil maps and slices after deserialization so that a
// document written by an older build still yields a usable store.
func (s *Store) Normalize() {
	if s.Notebooks == nil {
		s.Notebooks = make(map[uuid.UUID]*models.Notebook)
	}
	if s.RootNotebooks == nil {
		s.RootNotebooks = []uuid.UUID{}
	}
	if s.Snippets == nil {
		s.Snippets = make(map[uuid.UUID]*models.Snippet)
	}
	if s.Tags == nil {
		s.Tags = NewTagIndex()
	}
	s.Tags.normalize()
	for _, n := range s.Notebooks {
		if n.Children == nil {
			n.Children = []uuid.UUID{}
		}
	}
	for _, sn := range s.Snippets {
		if sn.Tags == nil {
			sn.Tags = []string{}
		}
	}
}

// CheckIntegrity verifies the structural invariants of the aggregate:
// the notebook graph is a forest with consistent parent/child links, every
// snippet's notebook exists, snippet counts match ownership, and the tag
// index is bidirectionally consistent with no orphan tags.
func (s *Store) CheckIntegrity() error {
	for id, n := range s.Notebooks {
		if n.ParentID != nil {
			parent, ok := s.Notebooks[*n.ParentID]
			if !ok {
				return fmt.Errorf("notebook %s: parent %s does not exist", id, *n.ParentID)
			}
			if !containsID(parent.Children, id) {
				return fmt.Errorf("notebook %s: missing from parent %s child list", id, parent.ID)
			}
		} else if !containsID(s.RootNotebooks, id) {
			return fmt.Errorf("notebook %s: parentless but not in root list", id)
		}
		for _, childID := range n.Children {
			child, ok := s.Notebooks[childID]
			if !ok {
				return fmt.Errorf("notebook %s: child %s does not exist", id, childID)
			}
			if child.ParentID == nil || *child.ParentID != id {
				return fmt.Errorf("notebook %s: child %s does not point back", id, childID)
			}
		}
		// Walking up from any notebook must terminate.
		seen := map[uuid.UUID]bool{id: true}
		for cur := n; cur.ParentID != nil; {
			next := s.Notebooks[*cur.ParentID]
			if next == nil {
				break
			}
			if seen[next.ID] {
				return fmt.Errorf("notebook %s: ancestor cycle through %s", id, next.ID)
			}
			seen[next.ID] = true
			cur = next
		}
		if got := len(s.snippetsOf(id)); n.SnippetCount != got {
			return fmt.Errorf("notebook %s: snippet_count %d, owns %d", id, n.SnippetCount, got)
		}
	}
	for _, rootID := range s.RootNotebooks {
		n, ok := s.Notebooks[rootID]
		if !ok {
			return fmt.Errorf("root list references missing notebook %s", rootID)
		}
		if n.ParentID != nil {
			return fmt.Errorf("root notebook %s has a parent", rootID)
		}
	}
	for id, sn := range s.Snippets {
		if _, ok := s.Notebooks[sn.NotebookID]; !ok {
			return fmt.Errorf("snippet %s: notebook %s does not exist", id, sn.NotebookID)
		}
	}
	return s.Tags.checkIntegrity(s.Snippets)
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
