package store

import (
	"strings"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/apperr"
	"github.com/halvard/skald/internal/models"
)

// CreateSnippet creates an empty snippet in the given notebook and refreshes
// the notebook's snippet count.
func (s *Store) CreateSnippet(title string, language models.Language, notebookID uuid.UUID) (*models.Snippet, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.ErrValidation
	}
	if _, ok := s.Notebooks[notebookID]; !ok {
		return nil, apperr.ErrNotFound
	}
	sn := models.NewSnippet(title, language, notebookID)
	s.Snippets[sn.ID] = sn
	s.recountSnippets(notebookID)
	return sn, nil
}

// Snippet returns the snippet with the given id.
func (s *Store) Snippet(id uuid.UUID) (*models.Snippet, error) {
	sn, ok := s.Snippets[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return sn, nil
}

// UpdateSnippetContent replaces the content and bumps the version.
func (s *Store) UpdateSnippetContent(id uuid.UUID, content string) (*models.Snippet, error) {
	sn, ok := s.Snippets[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	sn.UpdateContent(content)
	return sn, nil
}

// MarkSnippetAccessed refreshes the access timestamp and use counter.
func (s *Store) MarkSnippetAccessed(id uuid.UUID) (*models.Snippet, error) {
	sn, ok := s.Snippets[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	sn.MarkAccessed()
	return sn, nil
}

// ToggleSnippetFavorite flips the favorite flag.
func (s *Store) ToggleSnippetFavorite(id uuid.UUID) (*models.Snippet, error) {
	sn, ok := s.Snippets[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	sn.ToggleFavorite()
	return sn, nil
}

// DeleteSnippet removes the snippet from the tag index first, then from the
// snippet table, and refreshes the owning notebook's count. The removed
// snippet is returned so the caller can delete its content file.
func (s *Store) DeleteSnippet(id uuid.UUID) (*models.Snippet, error) {
	sn, ok := s.Snippets[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	s.Tags.HandleSnippetDeleted(id)
	delete(s.Snippets, id)
	s.recountSnippets(sn.NotebookID)
	return sn, nil
}

// MoveSnippet reassigns the snippet to another notebook and refreshes both
// notebooks' counts. The previous notebook id is returned so the caller can
// relocate the content file; leaving the file behind would orphan it.
func (s *Store) MoveSnippet(id, newNotebookID uuid.UUID) (*models.Snippet, uuid.UUID, error) {
	sn, ok := s.Snippets[id]
	if !ok {
		return nil, uuid.Nil, apperr.ErrNotFound
	}
	if _, ok := s.Notebooks[newNotebookID]; !ok {
		return nil, uuid.Nil, apperr.ErrNotFound
	}
	oldID := sn.NotebookID
	if oldID == newNotebookID {
		return sn, oldID, nil
	}
	sn.NotebookID = newNotebookID
	s.recountSnippets(oldID)
	s.recountSnippets(newNotebookID)
	return sn, oldID, nil
}

// TagSnippet associates a tag (created or reused case-insensitively) with
// the snippet and mirrors the name on the snippet's denormalized list.
func (s *Store) TagSnippet(id uuid.UUID, rawName string) (*models.Tag, error) {
	sn, ok := s.Snippets[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	name := models.CanonicalTagName(rawName)
	if name == "" {
		return nil, apperr.ErrValidation
	}
	tag := s.Tags.AddTagToSnippet(id, name)
	sn.AddTag(tag.Name)
	return tag, nil
}

// UntagSnippet removes the association and the mirrored name. Removing a tag
// the snippet does not carry is a no-op.
func (s *Store) UntagSnippet(id uuid.UUID, rawName string) error {
	sn, ok := s.Snippets[id]
	if !ok {
		return apperr.ErrNotFound
	}
	name := models.CanonicalTagName(rawName)
	s.Tags.RemoveTagFromSnippet(id, name)
	sn.RemoveTag(name)
	return nil
}
