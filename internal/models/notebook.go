// Package models defines the domain types for Skald.
package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultNotebookColor is assigned to notebooks created without an explicit
// display color.
const DefaultNotebookColor = "#f38ba8"

// Notebook is a named container for snippets. Notebooks form a forest:
// ParentID is nil for roots, and Children holds the ordered ids of direct
// child notebooks. Both sides of the relation are kept consistent by the
// store package.
type Notebook struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Color        string      `json:"color,omitempty"`
	Icon         string      `json:"icon,omitempty"`
	ParentID     *uuid.UUID  `json:"parent_id,omitempty"`
	Children     []uuid.UUID `json:"children"`
	SnippetCount int         `json:"snippet_count"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// NewNotebook creates a root notebook with the given name.
func NewNotebook(name string) *Notebook {
	now := time.Now().UTC()
	return &Notebook{
		ID:        uuid.New(),
		Name:      name,
		Color:     DefaultNotebookColor,
		Children:  []uuid.UUID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewChildNotebook creates a notebook attached to the given parent.
func NewChildNotebook(name string, parentID uuid.UUID) *Notebook {
	n := NewNotebook(name)
	pid := parentID
	n.ParentID = &pid
	return n
}

// AddChild appends childID to the ordered child list if not already present.
func (n *Notebook) AddChild(childID uuid.UUID) {
	for _, id := range n.Children {
		if id == childID {
			return
		}
	}
	n.Children = append(n.Children, childID)
	n.UpdatedAt = time.Now().UTC()
}

// RemoveChild drops childID from the child list, preserving order.
func (n *Notebook) RemoveChild(childID uuid.UUID) {
	for i, id := range n.Children {
		if id == childID {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			n.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// SetSnippetCount records the number of snippets the notebook currently owns.
func (n *Notebook) SetSnippetCount(count int) {
	if n.SnippetCount == count {
		return
	}
	n.SnippetCount = count
	n.UpdatedAt = time.Now().UTC()
}

// IsRoot reports whether the notebook has no parent.
func (n *Notebook) IsRoot() bool { return n.ParentID == nil }
