package backup

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/store"
)

// Policy names the conflict resolution strategy an operator selects for a
// merge. All four policies thread down to a single question, replace an
// existing entity on id collision or keep it, so MergeUpdate and SmartMerge
// currently behave exactly like OverwriteAll and no timestamp comparison is
// performed.
type Policy int

const (
	// OverwriteAll replaces existing entities on id collision.
	OverwriteAll Policy = iota
	// SkipExisting keeps existing entities untouched.
	SkipExisting
	// MergeUpdate is accepted for operators but resolves as OverwriteAll.
	MergeUpdate
	// SmartMerge ("latest wins") is accepted but resolves as OverwriteAll.
	SmartMerge
)

// Overwrite reports whether the policy replaces entities on id collision.
func (p Policy) Overwrite() bool { return p != SkipExisting }

func (p Policy) String() string {
	switch p {
	case OverwriteAll:
		return "overwrite"
	case SkipExisting:
		return "skip"
	case MergeUpdate:
		return "merge"
	case SmartMerge:
		return "smart"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps an operator-supplied name to a policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite", "overwrite-all":
		return OverwriteAll, nil
	case "skip", "skip-existing":
		return SkipExisting, nil
	case "merge", "merge-update":
		return MergeUpdate, nil
	case "smart", "smart-merge":
		return SmartMerge, nil
	default:
		return OverwriteAll, fmt.Errorf("unknown merge policy %q", s)
	}
}

// Result reports what a merge actually inserted or replaced. Entities
// skipped under SkipExisting are not counted.
type Result struct {
	NotebooksAdded int `json:"notebooks_added"`
	SnippetsAdded  int `json:"snippets_added"`
}

// Merge reconciles a bundle into the live store:
//
//  1. Imported notebooks are inserted when absent, replaced whole when
//     present and the policy overwrites.
//  2. Imported root ids extend the root list; root membership only grows.
//  3. Imported snippets whose notebook is absent from the post-step-1
//     notebook set are silently dropped and excluded from the counts.
//  4. Remaining snippets are inserted when absent, replaced when present
//     and the policy overwrites.
//  5. Tag associations are re-applied additively through the tag index;
//     existing tags are never replaced, so usage counts accumulate.
//
// Afterwards parent/child links are reconciled and snippet counts
// recomputed, so the aggregate invariants hold even for partial bundles.
func Merge(dst *store.Store, b *Bundle, policy Policy) Result {
	overwrite := policy.Overwrite()
	var res Result

	for id, n := range b.Notebooks {
		if _, exists := dst.Notebooks[id]; !exists || overwrite {
			dst.Notebooks[id] = cloneNotebook(n)
			res.NotebooksAdded++
		}
	}

	roots := make(map[uuid.UUID]bool, len(dst.RootNotebooks))
	for _, id := range dst.RootNotebooks {
		roots[id] = true
	}
	for _, id := range b.RootNotebooks {
		if _, ok := dst.Notebooks[id]; ok && !roots[id] {
			dst.RootNotebooks = append(dst.RootNotebooks, id)
			roots[id] = true
		}
	}

	for id, sn := range b.Snippets {
		if _, ok := dst.Notebooks[sn.NotebookID]; !ok {
			continue
		}
		if _, exists := dst.Snippets[id]; !exists || overwrite {
			dst.Snippets[id] = cloneSnippet(sn)
			res.SnippetsAdded++
		}
	}

	for name, snippetIDs := range b.Tags {
		for _, id := range snippetIDs {
			if _, ok := dst.Snippets[id]; ok {
				_, _ = dst.TagSnippet(id, name)
			}
		}
	}

	reconcile(dst)
	return res
}

// reconcile repairs structural links after whole-entity replacement: child
// ids without a live notebook are pruned, notebooks whose parent never
// arrived are promoted to roots, parents learn of children imported without
// them, and snippet counts are recomputed for every notebook.
func reconcile(dst *store.Store) {
	for _, n := range dst.Notebooks {
		kept := n.Children[:0]
		for _, childID := range n.Children {
			if _, ok := dst.Notebooks[childID]; ok {
				kept = append(kept, childID)
			}
		}
		n.Children = kept
	}
	roots := make(map[uuid.UUID]bool, len(dst.RootNotebooks))
	for _, id := range dst.RootNotebooks {
		roots[id] = true
	}
	// Promote in sorted id order; map iteration would make the persisted
	// root order differ across runs.
	var promoted []uuid.UUID
	for id, n := range dst.Notebooks {
		if n.ParentID != nil {
			if parent, ok := dst.Notebooks[*n.ParentID]; ok {
				parent.AddChild(id)
				continue
			}
			n.ParentID = nil
		}
		if !roots[id] {
			promoted = append(promoted, id)
			roots[id] = true
		}
	}
	sort.Slice(promoted, func(i, j int) bool {
		return promoted[i].String() < promoted[j].String()
	})
	dst.RootNotebooks = append(dst.RootNotebooks, promoted...)
	counts := make(map[uuid.UUID]int, len(dst.Notebooks))
	for _, sn := range dst.Snippets {
		counts[sn.NotebookID]++
	}
	for id, n := range dst.Notebooks {
		n.SetSnippetCount(counts[id])
	}
}
