// Package vault coordinates the in-memory store and the persistence layer.
// Every successful mutation is followed by a full-aggregate flush; a flush
// failure is returned to the caller while the in-memory mutation stays in
// place ("dirty, retry the flush").
package vault

import (
	"sync"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/apperr"
	"github.com/halvard/skald/internal/backup"
	"github.com/halvard/skald/internal/checksum"
	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/search"
	"github.com/halvard/skald/internal/storage"
	"github.com/halvard/skald/internal/store"
)

// ChangeEvent describes a store mutation for change listeners.
type ChangeEvent struct {
	Kind   string // "created", "updated", "deleted"
	Entity string // "notebook", "snippet"
	ID     uuid.UUID
}

// Service is the single mutator of the store. The aggregate itself is plain
// maps, so the service serializes every operation behind one mutex: HTTP
// handlers, the content watcher, and the MCP server all drive it
// concurrently.
type Service struct {
	mu       sync.Mutex
	store    *store.Store
	provider storage.Provider
	onChange func(ChangeEvent)
}

// NewService creates a service over an already-loaded store.
func NewService(st *store.Store, provider storage.Provider) *Service {
	return &Service{store: st, provider: provider}
}

// SetChangeCallback installs a listener invoked after each successful
// mutation. Pass nil to remove it.
func (s *Service) SetChangeCallback(fn func(ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Store exposes the aggregate for single-threaded collaborators (startup
// checks, CLI subcommands, tests). Concurrent callers must go through the
// service methods instead.
func (s *Service) Store() *store.Store { return s.store }

func (s *Service) notify(kind, entity string, id uuid.UUID) {
	if s.onChange != nil {
		s.onChange(ChangeEvent{Kind: kind, Entity: entity, ID: id})
	}
}

func (s *Service) flush() error {
	return s.provider.Save(s.store)
}

// LoadContents populates snippet content from the side files. Called once at
// startup, after the aggregate document has been loaded.
func (s *Service) LoadContents() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sn := range s.store.Snippets {
		content, err := s.provider.LoadSnippetContent(sn.ID, sn.NotebookID, sn.Extension)
		if err != nil {
			return err
		}
		sn.Content = content
	}
	return nil
}

// CreateNotebook creates a root notebook.
func (s *Service) CreateNotebook(name string) (*models.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.store.CreateRootNotebook(name)
	if err != nil {
		return nil, err
	}
	s.notify("created", "notebook", n.ID)
	return n, s.flush()
}

// CreateChildNotebook creates a notebook under an existing parent.
func (s *Service) CreateChildNotebook(parentID uuid.UUID, name string) (*models.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.store.CreateChildNotebook(parentID, name)
	if err != nil {
		return nil, err
	}
	s.notify("created", "notebook", n.ID)
	return n, s.flush()
}

// Notebook returns a notebook by id.
func (s *Service) Notebook(id uuid.UUID) (*models.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Notebook(id)
}

// DeleteNotebook removes a notebook. Without cascade it fails with
// ErrConflict while snippets or child notebooks remain; with cascade the
// whole subtree is removed bottom-up, content files included.
func (s *Service) DeleteNotebook(id uuid.UUID, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !cascade {
		if err := s.store.DeleteNotebook(id); err != nil {
			return err
		}
		if err := s.provider.DeleteNotebookDir(id); err != nil {
			return err
		}
		s.notify("deleted", "notebook", id)
		return s.flush()
	}

	// Collect subtree ids before mutating so every content directory can be
	// removed afterwards.
	subtree := s.collectSubtree(id)
	removed, err := s.store.DeleteNotebookTree(id)
	if err != nil {
		return err
	}
	for _, sn := range removed {
		if err := s.provider.DeleteSnippetFile(sn); err != nil {
			return err
		}
	}
	for _, nbID := range subtree {
		if err := s.provider.DeleteNotebookDir(nbID); err != nil {
			return err
		}
	}
	s.notify("deleted", "notebook", id)
	return s.flush()
}

func (s *Service) collectSubtree(id uuid.UUID) []uuid.UUID {
	n, err := s.store.Notebook(id)
	if err != nil {
		return nil
	}
	ids := []uuid.UUID{id}
	for _, childID := range n.Children {
		ids = append(ids, s.collectSubtree(childID)...)
	}
	return ids
}

// MoveNotebook swaps a notebook with a sibling.
func (s *Service) MoveNotebook(id uuid.UUID, dir store.MoveDirection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.MoveNotebook(id, dir); err != nil {
		return err
	}
	s.notify("updated", "notebook", id)
	return s.flush()
}

// CreateSnippet creates an empty snippet and its content file, so an
// external editor can be pointed at the file immediately.
func (s *Service) CreateSnippet(title string, language models.Language, notebookID uuid.UUID) (*models.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.store.CreateSnippet(title, language, notebookID)
	if err != nil {
		return nil, err
	}
	if err := s.provider.SaveSnippetContent(sn); err != nil {
		return nil, err
	}
	s.notify("created", "snippet", sn.ID)
	return sn, s.flush()
}

// Snippet returns a snippet by id.
func (s *Service) Snippet(id uuid.UUID) (*models.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snippet(id)
}

// Snippets returns every snippet in the store.
func (s *Service) Snippets() []*models.Snippet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Snippet, 0, len(s.store.Snippets))
	for _, sn := range s.store.Snippets {
		out = append(out, sn)
	}
	return out
}

// UpdateSnippetContent replaces a snippet's content. A non-empty ifMatch is
// compared against the SHA-256 of the current content; a mismatch fails with
// ErrConflict before anything changes.
func (s *Service) UpdateSnippetContent(id uuid.UUID, content, ifMatch string) (*models.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.store.Snippet(id)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum([]byte(current.Content)) {
		return nil, apperr.ErrConflict
	}
	sn, err := s.store.UpdateSnippetContent(id, content)
	if err != nil {
		return nil, err
	}
	if err := s.provider.SaveSnippetContent(sn); err != nil {
		return nil, err
	}
	s.notify("updated", "snippet", id)
	return sn, s.flush()
}

// AccessSnippet refreshes the access timestamp and use counter, feeding
// recency-based listings.
func (s *Service) AccessSnippet(id uuid.UUID) (*models.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.store.MarkSnippetAccessed(id)
	if err != nil {
		return nil, err
	}
	return sn, s.flush()
}

// ToggleFavorite flips a snippet's favorite flag.
func (s *Service) ToggleFavorite(id uuid.UUID) (*models.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.store.ToggleSnippetFavorite(id)
	if err != nil {
		return nil, err
	}
	s.notify("updated", "snippet", id)
	return sn, s.flush()
}

// DeleteSnippet removes the snippet from the tag index and the store, then
// deletes its content file.
func (s *Service) DeleteSnippet(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.store.DeleteSnippet(id)
	if err != nil {
		return err
	}
	if err := s.provider.DeleteSnippetFile(sn); err != nil {
		return err
	}
	s.notify("deleted", "snippet", id)
	return s.flush()
}

// MoveSnippet reassigns a snippet to another notebook and relocates its
// content file in the same operation, so no orphan is left behind.
func (s *Service) MoveSnippet(id, notebookID uuid.UUID) (*models.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, oldNotebookID, err := s.store.MoveSnippet(id, notebookID)
	if err != nil {
		return nil, err
	}
	if err := s.provider.MoveSnippetContent(sn, oldNotebookID); err != nil {
		return nil, err
	}
	s.notify("updated", "snippet", id)
	return sn, s.flush()
}

// TagSnippet adds a tag association.
func (s *Service) TagSnippet(id uuid.UUID, name string) (*models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, err := s.store.TagSnippet(id, name)
	if err != nil {
		return nil, err
	}
	s.notify("updated", "snippet", id)
	return tag, s.flush()
}

// UntagSnippet removes a tag association.
func (s *Service) UntagSnippet(id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.UntagSnippet(id, name); err != nil {
		return err
	}
	s.notify("updated", "snippet", id)
	return s.flush()
}

// FindTags matches tag names by case-insensitive substring.
func (s *Service) FindTags(query string) []*models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Tags.FindTagsByName(query)
}

// Tree returns the indentation-ready forest listing.
func (s *Service) Tree() []store.TreeItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Flatten()
}

// Search runs a query over the live store.
func (s *Service) Search(query string) []search.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.Search(s.store, query)
}

// ResultPath renders the notebook chain above a search result.
func (s *Service) ResultPath(r search.Result) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.ParentPath(s.store, r.ParentNotebookID)
}

// SnippetPath returns the content file path for handing to an editor.
func (s *Service) SnippetPath(id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, err := s.store.Snippet(id)
	if err != nil {
		return "", err
	}
	return s.provider.SnippetPath(sn), nil
}

// Export builds a bundle from the live store.
func (s *Service) Export(opts backup.Options) *backup.Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return backup.Build(s.store, opts)
}

// Import merges a bundle into the live store under the given policy, writes
// content files for the snippets that arrived, and flushes.
func (s *Service) Import(b *backup.Bundle, policy backup.Policy) (backup.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := backup.Merge(s.store, b, policy)
	for id := range b.Snippets {
		sn, ok := s.store.Snippets[id]
		if !ok {
			continue
		}
		if err := s.provider.SaveSnippetContent(sn); err != nil {
			return res, err
		}
	}
	s.notify("updated", "notebook", uuid.Nil)
	return res, s.flush()
}

// ImportFromFile reads, decodes, and merges a bundle file.
func (s *Service) ImportFromFile(path string, policy backup.Policy) (backup.Result, error) {
	b, err := backup.ReadFile(path)
	if err != nil {
		return backup.Result{}, err
	}
	return s.Import(b, policy)
}

// ImportBlob decodes and merges an in-memory payload (e.g. clipboard text).
func (s *Service) ImportBlob(data []byte, policy backup.Policy) (backup.Result, error) {
	b, err := backup.Decode(data)
	if err != nil {
		return backup.Result{}, err
	}
	return s.Import(b, policy)
}
