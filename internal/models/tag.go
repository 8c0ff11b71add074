package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tag is a user-defined label in a many-to-many relation with snippets.
// Names are stored without the leading '#' marker users may type, and are
// unique case-insensitively. A tag only exists while at least one snippet
// carries it; the store's tag index prunes orphans immediately.
type Tag struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// NewTag creates a tag with a canonicalized name.
func NewTag(name string) *Tag {
	now := time.Now().UTC()
	return &Tag{
		ID:         uuid.New(),
		Name:       CanonicalTagName(name),
		CreatedAt:  now,
		LastUsedAt: now,
	}
}

// MarkUsed bumps the usage counter and the last-used timestamp.
func (t *Tag) MarkUsed() {
	t.UsageCount++
	t.LastUsedAt = time.Now().UTC()
}

// DisplayName returns the name with the '#' prefix users see.
func (t *Tag) DisplayName() string { return "#" + t.Name }

// CanonicalTagName strips surrounding whitespace and a single leading '#'
// marker. Case is preserved; comparisons are done case-insensitively.
func CanonicalTagName(raw string) string {
	return strings.TrimPrefix(strings.TrimSpace(raw), "#")
}
