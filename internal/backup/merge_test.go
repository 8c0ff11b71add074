package backup

import (
	"testing"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/store"
)

func seedStore(t *testing.T) (*store.Store, *models.Notebook, *models.Snippet) {
	t.Helper()
	s := store.New()
	nb, err := s.CreateRootNotebook("nb")
	if err != nil {
		t.Fatal(err)
	}
	sn, err := s.CreateSnippet("snip", models.LangGo, nb.ID)
	if err != nil {
		t.Fatal(err)
	}
	sn.UpdateContent("package main")
	if _, err := s.TagSnippet(sn.ID, "demo"); err != nil {
		t.Fatal(err)
	}
	return s, nb, sn
}

func TestMergeIntoEmptyStoreRoundTrip(t *testing.T) {
	src, nb, sn := seedStore(t)
	b := Build(src, DefaultOptions())

	dst := store.New()
	res := Merge(dst, b, MergeUpdate)

	if res.NotebooksAdded != 1 || res.SnippetsAdded != 1 {
		t.Fatalf("result = %+v, want 1/1", res)
	}
	if err := dst.CheckIntegrity(); err != nil {
		t.Fatalf("integrity after merge: %v", err)
	}
	got := dst.Snippets[sn.ID]
	if got == nil || got.Content != "package main" {
		t.Fatalf("snippet content lost: %+v", got)
	}
	if got == sn {
		t.Error("merge must clone, not alias, bundle entities")
	}
	if dst.Notebooks[nb.ID].SnippetCount != 1 {
		t.Errorf("snippet count = %d", dst.Notebooks[nb.ID].SnippetCount)
	}
	if !got.HasTag("demo") || dst.Tags.TagByName("demo") == nil {
		t.Error("tag association lost in merge")
	}
}

func TestMergeSkipExistingKeepsLocalState(t *testing.T) {
	src, _, sn := seedStore(t)
	b := Build(src, DefaultOptions())

	// Local copy diverged.
	dst := seedStoreWithIDs(t, src)
	dst.Snippets[sn.ID].UpdateContent("local edit")

	res := Merge(dst, b, SkipExisting)
	if res.NotebooksAdded != 0 || res.SnippetsAdded != 0 {
		t.Errorf("skip result = %+v, want 0/0", res)
	}
	if dst.Snippets[sn.ID].Content != "local edit" {
		t.Error("SkipExisting replaced a local entity")
	}
}

func TestMergeOverwriteReplacesWholeEntity(t *testing.T) {
	src, _, sn := seedStore(t)
	b := Build(src, DefaultOptions())

	dst := seedStoreWithIDs(t, src)
	dst.Snippets[sn.ID].UpdateContent("local edit")
	dst.Snippets[sn.ID].Title = "renamed locally"

	res := Merge(dst, b, OverwriteAll)
	if res.SnippetsAdded != 1 {
		t.Errorf("overwrite result = %+v", res)
	}
	got := dst.Snippets[sn.ID]
	if got.Title != "snip" || got.Content != "package main" {
		t.Errorf("entity not replaced whole: %+v", got)
	}
}

// seedStoreWithIDs rebuilds a second store carrying the same entity ids by
// merging an export of src into a fresh store.
func seedStoreWithIDs(t *testing.T, src *store.Store) *store.Store {
	t.Helper()
	dst := store.New()
	Merge(dst, Build(src, DefaultOptions()), OverwriteAll)
	if err := dst.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
	return dst
}

func TestMergeDropsSnippetsWithMissingNotebook(t *testing.T) {
	src, _, _ := seedStore(t)
	b := Build(src, DefaultOptions())

	// Add a snippet pointing at a notebook absent from both bundle and store.
	orphan := models.NewSnippet("orphan", models.LangGo, uuid.New())
	b.Snippets[orphan.ID] = orphan

	dst := store.New()
	res := Merge(dst, b, MergeUpdate)
	if res.SnippetsAdded != 1 {
		t.Errorf("snippets added = %d, want 1 (orphan dropped)", res.SnippetsAdded)
	}
	if _, ok := dst.Snippets[orphan.ID]; ok {
		t.Error("orphan snippet reached the store")
	}
	if err := dst.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}

func TestMergeSnippetIntoExistingLocalNotebook(t *testing.T) {
	// The notebook exists only in dst; the bundle carries just the snippet.
	dst := store.New()
	nb, _ := dst.CreateRootNotebook("local")

	sn := models.NewSnippet("arrives", models.LangGo, nb.ID)
	b := &Bundle{
		Version:   BundleVersion,
		Notebooks: map[uuid.UUID]*models.Notebook{},
		Snippets:  map[uuid.UUID]*models.Snippet{sn.ID: sn},
		Tags:      map[string][]uuid.UUID{},
	}

	res := Merge(dst, b, MergeUpdate)
	if res.SnippetsAdded != 1 {
		t.Fatalf("snippets added = %d, want 1", res.SnippetsAdded)
	}
	if nb.SnippetCount != 1 {
		t.Errorf("count = %d, want 1", nb.SnippetCount)
	}
}

func TestMergeRootListOnlyGrows(t *testing.T) {
	src, nb, _ := seedStore(t)
	b := Build(src, DefaultOptions())

	dst := store.New()
	local, _ := dst.CreateRootNotebook("local root")

	Merge(dst, b, MergeUpdate)
	if len(dst.RootNotebooks) != 2 {
		t.Fatalf("roots = %d, want 2", len(dst.RootNotebooks))
	}
	// Merging the same bundle again must not duplicate the root entry.
	Merge(dst, b, MergeUpdate)
	if len(dst.RootNotebooks) != 2 {
		t.Errorf("roots after re-merge = %d, want 2", len(dst.RootNotebooks))
	}
	found := map[uuid.UUID]bool{}
	for _, id := range dst.RootNotebooks {
		found[id] = true
	}
	if !found[local.ID] || !found[nb.ID] {
		t.Error("root list lost an entry")
	}
}

func TestMergeTagsReuseByName(t *testing.T) {
	src, _, sn := seedStore(t)
	b := Build(src, DefaultOptions())

	dst := store.New()
	nb2, _ := dst.CreateRootNotebook("other")
	local, _ := dst.CreateSnippet("local", models.LangGo, nb2.ID)
	existing, _ := dst.TagSnippet(local.ID, "demo")

	Merge(dst, b, MergeUpdate)
	// Same name, different origin id: the existing tag entity is reused.
	merged := dst.Tags.TagByName("demo")
	if merged == nil || merged.ID != existing.ID {
		t.Fatal("tag with identical name should be reused, not duplicated")
	}
	if got := len(dst.Tags.SnippetsWithTag(existing.ID)); got != 2 {
		t.Errorf("snippets with tag = %d, want 2", got)
	}
	_ = sn
}

func TestMergeReconcilesOrphanedParent(t *testing.T) {
	// A child arrives without its parent: the child is promoted to a root.
	parentID := uuid.New()
	child := models.NewChildNotebook("stranded", parentID)
	b := &Bundle{
		Version:   BundleVersion,
		Notebooks: map[uuid.UUID]*models.Notebook{child.ID: child},
		Snippets:  map[uuid.UUID]*models.Snippet{},
		Tags:      map[string][]uuid.UUID{},
	}

	dst := store.New()
	Merge(dst, b, MergeUpdate)
	got := dst.Notebooks[child.ID]
	if got.ParentID != nil {
		t.Error("orphaned child should lose its parent link")
	}
	if err := dst.CheckIntegrity(); err != nil {
		t.Fatalf("integrity: %v", err)
	}
}

func TestMergePromotesOrphansInStableOrder(t *testing.T) {
	// Several children arrive without their parents; the promoted roots
	// must come out in the same order on every merge of the same bundle.
	build := func() *Bundle {
		b := &Bundle{
			Version:   BundleVersion,
			Notebooks: map[uuid.UUID]*models.Notebook{},
			Snippets:  map[uuid.UUID]*models.Snippet{},
			Tags:      map[string][]uuid.UUID{},
		}
		for i := 0; i < 6; i++ {
			n := models.NewChildNotebook("stranded", uuid.New())
			b.Notebooks[n.ID] = n
		}
		return b
	}

	b := build()
	first := store.New()
	Merge(first, b, MergeUpdate)
	if len(first.RootNotebooks) != 6 {
		t.Fatalf("roots = %d, want 6", len(first.RootNotebooks))
	}
	for i := 1; i < len(first.RootNotebooks); i++ {
		if first.RootNotebooks[i-1].String() >= first.RootNotebooks[i].String() {
			t.Fatal("promoted roots not in sorted id order")
		}
	}

	for run := 0; run < 5; run++ {
		again := store.New()
		Merge(again, b, MergeUpdate)
		for i, id := range again.RootNotebooks {
			if first.RootNotebooks[i] != id {
				t.Fatal("root order differs between identical merges")
			}
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	src, _, _ := seedStore(t)
	b := Build(src, DefaultOptions())

	dst := store.New()
	Merge(dst, b, MergeUpdate)
	Merge(dst, b, MergeUpdate)

	if err := dst.CheckIntegrity(); err != nil {
		t.Fatalf("integrity after double merge: %v", err)
	}
	if len(dst.Notebooks) != 1 || len(dst.Snippets) != 1 {
		t.Errorf("entities = %d/%d, want 1/1", len(dst.Notebooks), len(dst.Snippets))
	}
}

func TestParsePolicy(t *testing.T) {
	cases := map[string]Policy{
		"overwrite":   OverwriteAll,
		"skip":        SkipExisting,
		"merge":       MergeUpdate,
		"smart-merge": SmartMerge,
		" MERGE ":     MergeUpdate,
	}
	for in, want := range cases {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("nope"); err == nil {
		t.Error("unknown policy should fail")
	}
}

func TestPolicyCollapse(t *testing.T) {
	for _, p := range []Policy{OverwriteAll, MergeUpdate, SmartMerge} {
		if !p.Overwrite() {
			t.Errorf("%v should overwrite", p)
		}
	}
	if SkipExisting.Overwrite() {
		t.Error("SkipExisting must not overwrite")
	}
}

func TestMergeSameNameNotebooksStayDistinct(t *testing.T) {
	src := store.New()
	if _, err := src.CreateRootNotebook("Work"); err != nil {
		t.Fatal(err)
	}
	b := Build(src, DefaultOptions())

	dst := store.New()
	local, err := dst.CreateRootNotebook("Work")
	if err != nil {
		t.Fatal(err)
	}

	res := Merge(dst, b, MergeUpdate)
	if res.NotebooksAdded != 1 {
		t.Fatalf("notebooks added = %d, want 1", res.NotebooksAdded)
	}
	if len(dst.Notebooks) != 2 {
		t.Fatalf("notebooks = %d, identity is by id, not name", len(dst.Notebooks))
	}
	if _, ok := dst.Notebooks[local.ID]; !ok {
		t.Error("local notebook lost")
	}
	if err := dst.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}
