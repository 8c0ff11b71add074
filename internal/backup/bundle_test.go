package backup

import (
	"testing"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/store"
)

func TestBuildFiltersNotebooks(t *testing.T) {
	s := store.New()
	a, _ := s.CreateRootNotebook("a")
	bNB, _ := s.CreateRootNotebook("b")
	snA, _ := s.CreateSnippet("in a", models.LangGo, a.ID)
	snB, _ := s.CreateSnippet("in b", models.LangGo, bNB.ID)
	_, _ = s.TagSnippet(snA.ID, "keep")
	_, _ = s.TagSnippet(snB.ID, "drop")

	opts := DefaultOptions()
	opts.NotebookIDs = []uuid.UUID{a.ID}
	bundle := Build(s, opts)

	if len(bundle.Notebooks) != 1 || bundle.Notebooks[a.ID] == nil {
		t.Fatalf("notebooks = %d", len(bundle.Notebooks))
	}
	if len(bundle.RootNotebooks) != 1 || bundle.RootNotebooks[0] != a.ID {
		t.Errorf("roots = %v", bundle.RootNotebooks)
	}
	if _, ok := bundle.Snippets[snB.ID]; ok {
		t.Error("snippet from excluded notebook leaked into bundle")
	}
	if _, ok := bundle.Tags["drop"]; ok {
		t.Error("tag with no included snippets leaked into bundle")
	}
	if ids := bundle.Tags["keep"]; len(ids) != 1 || ids[0] != snA.ID {
		t.Errorf("kept tag ids = %v", ids)
	}
}

func TestBuildFavoritesOnly(t *testing.T) {
	s := store.New()
	nb, _ := s.CreateRootNotebook("nb")
	fav, _ := s.CreateSnippet("fav", models.LangGo, nb.ID)
	_, _ = s.CreateSnippet("plain", models.LangGo, nb.ID)
	_, _ = s.ToggleSnippetFavorite(fav.ID)

	opts := DefaultOptions()
	opts.FavoritesOnly = true
	bundle := Build(s, opts)

	if len(bundle.Snippets) != 1 {
		t.Fatalf("snippets = %d, want 1", len(bundle.Snippets))
	}
	if bundle.Snippets[fav.ID] == nil {
		t.Error("favorite snippet missing from bundle")
	}
}

func TestBuildStripsContent(t *testing.T) {
	s := store.New()
	nb, _ := s.CreateRootNotebook("nb")
	sn, _ := s.CreateSnippet("s", models.LangGo, nb.ID)
	sn.UpdateContent("secret")

	opts := DefaultOptions()
	opts.IncludeContent = false
	bundle := Build(s, opts)

	if bundle.Snippets[sn.ID].Content != "" {
		t.Error("content not stripped")
	}
	// The store entity keeps its content.
	if sn.Content != "secret" {
		t.Error("Build mutated the store entity")
	}
}

func TestBuildClonesEntities(t *testing.T) {
	s := store.New()
	nb, _ := s.CreateRootNotebook("nb")
	sn, _ := s.CreateSnippet("s", models.LangGo, nb.ID)

	bundle := Build(s, DefaultOptions())
	bundle.Notebooks[nb.ID].Name = "mutated"
	bundle.Snippets[sn.ID].Title = "mutated"

	if nb.Name != "nb" || sn.Title != "s" {
		t.Error("bundle shares state with the store")
	}
}
