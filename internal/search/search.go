// Package search implements the read-only cross-entity query over a live
// store. Matching is case-insensitive substring; there is no relevance
// ranking, so ordering is made explicit instead of leaking map iteration
// order.
package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/store"
)

// ResultType classifies what part of the aggregate a result matched.
type ResultType string

const (
	ResultNotebook     ResultType = "notebook"
	ResultSnippet      ResultType = "snippet"
	ResultContentMatch ResultType = "content"
)

// resultRank orders result types in listings.
var resultRank = map[ResultType]int{
	ResultNotebook:     0,
	ResultSnippet:      1,
	ResultContentMatch: 2,
}

// Result is a single match. A snippet matching on several fields yields one
// result per field.
type Result struct {
	EntityID     uuid.UUID  `json:"entity_id"`
	DisplayName  string     `json:"display_name"`
	Type         ResultType `json:"result_type"`
	MatchContext string     `json:"match_context"`
	// ParentNotebookID locates the result in the tree: the snippet's owning
	// notebook, or the notebook's parent (nil for roots).
	ParentNotebookID *uuid.UUID `json:"parent_notebook_id,omitempty"`
}

// Search runs a query against the store. An all-whitespace query yields no
// results. A query of the form "#name" (no spaces) searches tags instead of
// entity fields. Results are sorted by (type, display name, entity id) so
// repeated queries over the same state are byte-identical.
func Search(s *store.Store, query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	lowered := strings.ToLower(query)

	var results []Result
	if strings.HasPrefix(lowered, "#") && !strings.Contains(lowered, " ") {
		results = searchTags(s, strings.TrimPrefix(lowered, "#"))
	} else {
		results = searchFields(s, lowered)
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Type != b.Type {
			return resultRank[a.Type] < resultRank[b.Type]
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.EntityID.String() < b.EntityID.String()
	})
	return results
}

func searchFields(s *store.Store, query string) []Result {
	var results []Result

	for id, n := range s.Notebooks {
		if strings.Contains(strings.ToLower(n.Name), query) {
			results = append(results, Result{
				EntityID:         id,
				DisplayName:      n.Name,
				Type:             ResultNotebook,
				MatchContext:     fmt.Sprintf("Notebook name match: %s", n.Name),
				ParentNotebookID: n.ParentID,
			})
		}
		if n.Description != "" && strings.Contains(strings.ToLower(n.Description), query) {
			results = append(results, Result{
				EntityID:         id,
				DisplayName:      n.Name,
				Type:             ResultNotebook,
				MatchContext:     fmt.Sprintf("Description: %s", n.Description),
				ParentNotebookID: n.ParentID,
			})
		}
	}

	for id, sn := range s.Snippets {
		owner := sn.NotebookID
		if strings.Contains(strings.ToLower(sn.Title), query) {
			results = append(results, Result{
				EntityID:         id,
				DisplayName:      sn.Title,
				Type:             ResultSnippet,
				MatchContext:     fmt.Sprintf("Snippet title match: %s", sn.Title),
				ParentNotebookID: &owner,
			})
		}
		if sn.Description != "" && strings.Contains(strings.ToLower(sn.Description), query) {
			results = append(results, Result{
				EntityID:         id,
				DisplayName:      sn.Title,
				Type:             ResultSnippet,
				MatchContext:     fmt.Sprintf("Description: %s", sn.Description),
				ParentNotebookID: &owner,
			})
		}
		if matched := matchingTags(sn.Tags, query); len(matched) > 0 {
			results = append(results, Result{
				EntityID:         id,
				DisplayName:      sn.Title,
				Type:             ResultSnippet,
				MatchContext:     fmt.Sprintf("Tags: %s", strings.Join(matched, ", ")),
				ParentNotebookID: &owner,
			})
		}
		if strings.Contains(strings.ToLower(sn.Content), query) {
			results = append(results, Result{
				EntityID:         id,
				DisplayName:      sn.Title,
				Type:             ResultContentMatch,
				MatchContext:     firstMatchingLine(sn.Content, query),
				ParentNotebookID: &owner,
			})
		}
	}
	return results
}

// searchTags resolves a "#name" query: snippets associated with any tag
// whose name contains the query.
func searchTags(s *store.Store, tagQuery string) []Result {
	seen := make(map[uuid.UUID]bool)
	var results []Result
	for _, t := range s.Tags.FindTagsByName(tagQuery) {
		for _, snippetID := range s.Tags.SnippetsWithTag(t.ID) {
			sn, ok := s.Snippets[snippetID]
			if !ok || seen[snippetID] {
				continue
			}
			seen[snippetID] = true
			owner := sn.NotebookID
			results = append(results, Result{
				EntityID:         snippetID,
				DisplayName:      sn.Title,
				Type:             ResultSnippet,
				MatchContext:     fmt.Sprintf("Tagged with %s", t.DisplayName()),
				ParentNotebookID: &owner,
			})
		}
	}
	return results
}

func matchingTags(tags []string, query string) []string {
	var out []string
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), query) {
			out = append(out, "#"+t)
		}
	}
	return out
}

// firstMatchingLine reports the first content line containing the query as
// "Line <n>: <trimmed line>" with a 1-based line index.
func firstMatchingLine(content, query string) string {
	for i, line := range strings.Split(content, "\n") {
		if strings.Contains(strings.ToLower(line), query) {
			return fmt.Sprintf("Line %d: %s", i+1, strings.TrimSpace(line))
		}
	}
	return ""
}

// ParentPath renders the notebook chain above an entity as "a > b > c",
// walking parent links to the root.
func ParentPath(s *store.Store, parentID *uuid.UUID) string {
	var names []string
	for id := parentID; id != nil; {
		n, ok := s.Notebooks[*id]
		if !ok {
			break
		}
		names = append(names, n.Name)
		id = n.ParentID
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " > ")
}
