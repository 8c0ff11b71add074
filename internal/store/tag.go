package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/models"
)

// TagIndex is the bidirectional many-to-many mapping between tags and
// snippets. Both directions are kept in lockstep: snippet s carries tag t
// exactly when t's snippet set contains s. A tag whose snippet set becomes
// empty is removed immediately; tags have no standalone existence.
type TagIndex struct {
	Tags        map[uuid.UUID]*models.Tag  `json:"tags"`
	SnippetTags map[uuid.UUID]models.IDSet `json:"snippet_tags"`
	TagSnippets map[uuid.UUID]models.IDSet `json:"tag_snippets"`
}

// NewTagIndex creates an empty index.
func NewTagIndex() *TagIndex {
	return &TagIndex{
		Tags:        make(map[uuid.UUID]*models.Tag),
		SnippetTags: make(map[uuid.UUID]models.IDSet),
		TagSnippets: make(map[uuid.UUID]models.IDSet),
	}
}

func (ti *TagIndex) normalize() {
	if ti.Tags == nil {
		ti.Tags = make(map[uuid.UUID]*models.Tag)
	}
	if ti.SnippetTags == nil {
		ti.SnippetTags = make(map[uuid.UUID]models.IDSet)
	}
	if ti.TagSnippets == nil {
		ti.TagSnippets = make(map[uuid.UUID]models.IDSet)
	}
}

// ensureTag returns the existing tag matching name case-insensitively, or
// creates one. The name is expected to be canonical already.
func (ti *TagIndex) ensureTag(name string) *models.Tag {
	if t := ti.TagByName(name); t != nil {
		return t
	}
	t := models.NewTag(name)
	ti.Tags[t.ID] = t
	ti.TagSnippets[t.ID] = models.NewIDSet()
	return t
}

// AddTagToSnippet canonicalizes rawName, reuses or creates the tag, and
// inserts the pair into both directions of the mapping. The tag's usage
// counter and last-used timestamp are refreshed.
func (ti *TagIndex) AddTagToSnippet(snippetID uuid.UUID, rawName string) *models.Tag {
	t := ti.ensureTag(models.CanonicalTagName(rawName))
	t.MarkUsed()
	if ti.SnippetTags[snippetID] == nil {
		ti.SnippetTags[snippetID] = models.NewIDSet()
	}
	ti.SnippetTags[snippetID].Add(t.ID)
	if ti.TagSnippets[t.ID] == nil {
		ti.TagSnippets[t.ID] = models.NewIDSet()
	}
	ti.TagSnippets[t.ID].Add(snippetID)
	return t
}

// RemoveTagFromSnippet removes a single association and prunes the tag if
// its snippet set becomes empty. It reports whether an association existed.
func (ti *TagIndex) RemoveTagFromSnippet(snippetID uuid.UUID, name string) bool {
	t := ti.TagByName(models.CanonicalTagName(name))
	if t == nil {
		return false
	}
	tags := ti.SnippetTags[snippetID]
	if tags == nil || !tags.Contains(t.ID) {
		return false
	}
	tags.Remove(t.ID)
	if len(tags) == 0 {
		delete(ti.SnippetTags, snippetID)
	}
	ti.TagSnippets[t.ID].Remove(snippetID)
	if len(ti.TagSnippets[t.ID]) == 0 {
		delete(ti.TagSnippets, t.ID)
		delete(ti.Tags, t.ID)
	}
	return true
}

// HandleSnippetDeleted removes the snippet from every tag set it belonged
// to and prunes any tag left without snippets.
func (ti *TagIndex) HandleSnippetDeleted(snippetID uuid.UUID) {
	tagIDs, ok := ti.SnippetTags[snippetID]
	if !ok {
		return
	}
	delete(ti.SnippetTags, snippetID)
	for tagID := range tagIDs {
		snippets, ok := ti.TagSnippets[tagID]
		if !ok {
			continue
		}
		snippets.Remove(snippetID)
		if len(snippets) == 0 {
			delete(ti.TagSnippets, tagID)
			delete(ti.Tags, tagID)
		}
	}
}

// TagByName returns the tag whose name matches case-insensitively, or nil.
func (ti *TagIndex) TagByName(name string) *models.Tag {
	for _, t := range ti.Tags {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// FindTagsByName returns every tag whose name contains query
// case-insensitively, sorted by name.
func (ti *TagIndex) FindTagsByName(query string) []*models.Tag {
	query = strings.ToLower(query)
	var out []*models.Tag
	for _, t := range ti.Tags {
		if strings.Contains(strings.ToLower(t.Name), query) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SnippetsWithTag returns the ids of snippets carrying the tag, sorted.
func (ti *TagIndex) SnippetsWithTag(tagID uuid.UUID) []uuid.UUID {
	set, ok := ti.TagSnippets[tagID]
	if !ok {
		return nil
	}
	return set.Sorted()
}

// TagsOfSnippet returns the tags attached to a snippet, sorted by name.
func (ti *TagIndex) TagsOfSnippet(snippetID uuid.UUID) []*models.Tag {
	var out []*models.Tag
	for tagID := range ti.SnippetTags[snippetID] {
		if t, ok := ti.Tags[tagID]; ok {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllTags returns every tag sorted by name.
func (ti *TagIndex) AllTags() []*models.Tag {
	out := make([]*models.Tag, 0, len(ti.Tags))
	for _, t := range ti.Tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// checkIntegrity verifies bidirectional consistency against the snippet
// table: every mapping entry refers to live entities, both directions agree,
// and no tag has an empty snippet set.
func (ti *TagIndex) checkIntegrity(snippets map[uuid.UUID]*models.Snippet) error {
	for snippetID, tagIDs := range ti.SnippetTags {
		if _, ok := snippets[snippetID]; !ok {
			return fmt.Errorf("tag index: snippet %s no longer exists", snippetID)
		}
		for tagID := range tagIDs {
			if _, ok := ti.Tags[tagID]; !ok {
				return fmt.Errorf("tag index: snippet %s references missing tag %s", snippetID, tagID)
			}
			if set, ok := ti.TagSnippets[tagID]; !ok || !set.Contains(snippetID) {
				return fmt.Errorf("tag index: pair (%s, %s) missing from tag side", snippetID, tagID)
			}
		}
	}
	for tagID, snippetIDs := range ti.TagSnippets {
		if _, ok := ti.Tags[tagID]; !ok {
			return fmt.Errorf("tag index: snippet set for missing tag %s", tagID)
		}
		if len(snippetIDs) == 0 {
			return fmt.Errorf("tag index: tag %s has an empty snippet set", tagID)
		}
		for snippetID := range snippetIDs {
			if set, ok := ti.SnippetTags[snippetID]; !ok || !set.Contains(tagID) {
				return fmt.Errorf("tag index: pair (%s, %s) missing from snippet side", snippetID, tagID)
			}
		}
	}
	for tagID := range ti.Tags {
		if _, ok := ti.TagSnippets[tagID]; !ok {
			return fmt.Errorf("tag index: tag %s has no snippet set", tagID)
		}
	}
	return nil
}
