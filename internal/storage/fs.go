package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/apperr"
	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/store"
)

const documentName = "store.json"

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)

// FS implements Provider backed by the local file system. Layout under the
// data root:
//
//	store.json                            aggregate document
//	snippets/<notebook_id>/<snippet_id>.<ext>  one content file per snippet
type FS struct {
	root         string // absolute path to data directory
	documentPath string
	snippetsDir  string
}

// NewFS creates an FS provider rooted at the given directory, creating the
// directory tree if needed.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	snippetsDir := filepath.Join(abs, "snippets")
	if err := os.MkdirAll(snippetsDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dirs: %w", err)
	}
	return &FS{
		root:         abs,
		documentPath: filepath.Join(abs, documentName),
		snippetsDir:  snippetsDir,
	}, nil
}

// Root returns the absolute data root directory.
func (f *FS) Root() string { return f.root }

// SnippetsDir returns the absolute directory holding content files.
func (f *FS) SnippetsDir() string { return f.snippetsDir }

// Load reads the aggregate document. A missing document is not an error:
// it yields a fresh empty store.
func (f *FS) Load() (*store.Store, error) {
	data, err := os.ReadFile(f.documentPath)
	if errors.Is(err, os.ErrNotExist) {
		return store.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read document: %w", err)
	}
	s := store.New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("storage: decode document: %w: %v", apperr.ErrMalformed, err)
	}
	s.Normalize()
	return s, nil
}

// Save writes the whole aggregate as one document. Content fields are
// stripped first; they live in side files. The write goes to a temp file
// and is renamed into place so a crash mid-write cannot corrupt the
// previous document.
func (f *FS) Save(s *store.Store) error {
	doc := store.Store{
		Notebooks:     s.Notebooks,
		RootNotebooks: s.RootNotebooks,
		Snippets:      make(map[uuid.UUID]*models.Snippet, len(s.Snippets)),
		Tags:          s.Tags,
	}
	for id, sn := range s.Snippets {
		clone := *sn
		clone.Content = ""
		doc.Snippets[id] = &clone
	}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode document: %w", err)
	}
	return f.atomicWrite(f.documentPath, append(data, '\n'))
}

// SaveSnippetContent writes the snippet's content to its side file.
func (f *FS) SaveSnippetContent(sn *models.Snippet) error {
	return f.atomicWrite(f.contentPath(sn.NotebookID, sn.ID, sn.Extension), []byte(sn.Content))
}

// LoadSnippetContent reads a content file. A missing file yields "" so a
// snippet created on another machine without its content still loads.
func (f *FS) LoadSnippetContent(snippetID, notebookID uuid.UUID, extension string) (string, error) {
	data, err := os.ReadFile(f.contentPath(notebookID, snippetID, extension))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("storage: read snippet content: %w", err)
	}
	return string(data), nil
}

// DeleteSnippetFile removes the snippet's content file if it exists.
func (f *FS) DeleteSnippetFile(sn *models.Snippet) error {
	err := os.Remove(f.contentPath(sn.NotebookID, sn.ID, sn.Extension))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete snippet file: %w", err)
	}
	return nil
}

// MoveSnippetContent relocates a content file after its snippet changed
// notebooks. Without this the old file would be orphaned under the previous
// notebook's directory.
func (f *FS) MoveSnippetContent(sn *models.Snippet, oldNotebookID uuid.UUID) error {
	oldPath := f.contentPath(oldNotebookID, sn.ID, sn.Extension)
	newPath := f.contentPath(sn.NotebookID, sn.ID, sn.Extension)
	if oldPath == newPath {
		return nil
	}
	if _, err := os.Stat(oldPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("storage: move snippet content: %w", err)
	}
	return nil
}

// DeleteNotebookDir removes a notebook's content directory and anything
// left inside it.
func (f *FS) DeleteNotebookDir(notebookID uuid.UUID) error {
	err := os.RemoveAll(filepath.Join(f.snippetsDir, notebookID.String()))
	if err != nil {
		return fmt.Errorf("storage: delete notebook dir: %w", err)
	}
	return nil
}

// SnippetPath returns the absolute content file path for a snippet.
func (f *FS) SnippetPath(sn *models.Snippet) string {
	return f.contentPath(sn.NotebookID, sn.ID, sn.Extension)
}

// ResolveContentPath maps an absolute path under the snippets directory back
// to (notebookID, snippetID, extension). ok is false for paths that do not
// look like content files.
func (f *FS) ResolveContentPath(path string) (notebookID, snippetID uuid.UUID, extension string, ok bool) {
	rel, err := filepath.Rel(f.snippetsDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return uuid.Nil, uuid.Nil, "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 {
		return uuid.Nil, uuid.Nil, "", false
	}
	notebookID, err = uuid.Parse(parts[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, "", false
	}
	base := parts[1]
	dot := strings.LastIndex(base, ".")
	if dot <= 0 {
		return uuid.Nil, uuid.Nil, "", false
	}
	snippetID, err = uuid.Parse(base[:dot])
	if err != nil {
		return uuid.Nil, uuid.Nil, "", false
	}
	return notebookID, snippetID, base[dot+1:], true
}

func (f *FS) contentPath(notebookID, snippetID uuid.UUID, extension string) string {
	name := fmt.Sprintf("%s.%s", snippetID, extension)
	return filepath.Join(f.snippetsDir, notebookID.String(), name)
}

// atomicWrite writes content via tmp file, fsync, rename.
func (f *FS) atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".skald-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
