package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Snippet is a titled unit of text content owned by exactly one notebook.
// Content is persisted in a side file, not in the aggregate document, so the
// JSON field is omitted when empty; the persistence layer strips it before
// writing the document and export bundles fill it in when content is included.
type Snippet struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	Language    Language  `json:"language"`
	NotebookID  uuid.UUID `json:"notebook_id"`
	Tags        []string  `json:"tags"`
	Favorite    bool      `json:"is_favorite"`
	UseCount    int       `json:"use_count"`
	Extension   string    `json:"file_extension"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AccessedAt  time.Time `json:"accessed_at"`
}

// NewSnippet creates an empty snippet in the given notebook.
func NewSnippet(title string, language Language, notebookID uuid.UUID) *Snippet {
	now := time.Now().UTC()
	return &Snippet{
		ID:         uuid.New(),
		Title:      title,
		Language:   language,
		NotebookID: notebookID,
		Tags:       []string{},
		Extension:  language.Extension(),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
		AccessedAt: now,
	}
}

// UpdateContent replaces the content, bumps the version, and refreshes
// the updated timestamp.
func (s *Snippet) UpdateContent(content string) {
	s.Content = content
	s.Version++
	s.UpdatedAt = time.Now().UTC()
}

// MarkAccessed refreshes the access timestamp and increments the use counter.
func (s *Snippet) MarkAccessed() {
	s.AccessedAt = time.Now().UTC()
	s.UseCount++
}

// ToggleFavorite flips the favorite flag.
func (s *Snippet) ToggleFavorite() {
	s.Favorite = !s.Favorite
	s.UpdatedAt = time.Now().UTC()
}

// AddTag records a denormalized tag name on the snippet itself. The tag index
// remains the authoritative mapping; this list mirrors it for display and
// export.
func (s *Snippet) AddTag(name string) {
	for _, t := range s.Tags {
		if strings.EqualFold(t, name) {
			return
		}
	}
	s.Tags = append(s.Tags, name)
	s.UpdatedAt = time.Now().UTC()
}

// RemoveTag drops a tag name from the denormalized list.
func (s *Snippet) RemoveTag(name string) {
	for i, t := range s.Tags {
		if strings.EqualFold(t, name) {
			s.Tags = append(s.Tags[:i], s.Tags[i+1:]...)
			s.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// HasTag reports whether the snippet carries the tag name (case-insensitive).
func (s *Snippet) HasTag(name string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the content is blank.
func (s *Snippet) IsEmpty() bool { return strings.TrimSpace(s.Content) == "" }

// Preview returns the first maxLines lines of content.
func (s *Snippet) Preview(maxLines int) string {
	lines := strings.Split(s.Content, "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}

// LineCount returns the number of content lines.
func (s *Snippet) LineCount() int {
	if s.Content == "" {
		return 0
	}
	return len(strings.Split(strings.TrimSuffix(s.Content, "\n"), "\n"))
}

// WordCount returns the number of whitespace-separated words in the content.
func (s *Snippet) WordCount() int { return len(strings.Fields(s.Content)) }
