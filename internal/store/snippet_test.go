package store

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/halvard/skald/internal/apperr"
	"github.com/halvard/skald/internal/models"
)

func TestCreateSnippet(t *testing.T) {
	s := New()
	nb, _ := s.CreateRootNotebook("nb")

	sn, err := s.CreateSnippet("  hello  ", models.LangRust, nb.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sn.Title != "hello" {
		t.Errorf("title = %q, want trimmed", sn.Title)
	}
	if sn.Version != 1 {
		t.Errorf("version = %d, want 1", sn.Version)
	}
	if sn.Extension != "rs" {
		t.Errorf("extension = %q, want rs", sn.Extension)
	}

	if _, err := s.CreateSnippet("", models.LangGo, nb.ID); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("blank title err = %v, want ErrValidation", err)
	}
	if _, err := s.CreateSnippet("x", models.LangGo, uuid.New()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing notebook err = %v, want ErrNotFound", err)
	}
}

func TestUpdateSnippetContentBumpsVersion(t *testing.T) {
	s := New()
	nb, _ := s.CreateRootNotebook("nb")
	sn, _ := s.CreateSnippet("s", models.LangGo, nb.ID)

	if _, err := s.UpdateSnippetContent(sn.ID, "v2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpdateSnippetContent(sn.ID, "v3"); err != nil {
		t.Fatal(err)
	}
	if sn.Content != "v3" || sn.Version != 3 {
		t.Errorf("content = %q version = %d, want v3/3", sn.Content, sn.Version)
	}
}

func TestMarkAccessedAndFavorite(t *testing.T) {
	s := New()
	nb, _ := s.CreateRootNotebook("nb")
	sn, _ := s.CreateSnippet("s", models.LangGo, nb.ID)

	if _, err := s.MarkSnippetAccessed(sn.ID); err != nil {
		t.Fatal(err)
	}
	if sn.UseCount != 1 {
		t.Errorf("use count = %d, want 1", sn.UseCount)
	}

	if _, err := s.ToggleSnippetFavorite(sn.ID); err != nil {
		t.Fatal(err)
	}
	if !sn.Favorite {
		t.Error("expected favorite after first toggle")
	}
	_, _ = s.ToggleSnippetFavorite(sn.ID)
	if sn.Favorite {
		t.Error("expected not favorite after second toggle")
	}
}

func TestDeleteSnippetCleansTagIndex(t *testing.T) {
	s := New()
	nb, _ := s.CreateRootNotebook("nb")
	sn, _ := s.CreateSnippet("s", models.LangGo, nb.ID)
	keep, _ := s.CreateSnippet("keep", models.LangGo, nb.ID)
	_, _ = s.TagSnippet(sn.ID, "solo")
	_, _ = s.TagSnippet(sn.ID, "shared")
	_, _ = s.TagSnippet(keep.ID, "shared")

	removed, err := s.DeleteSnippet(sn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if removed.ID != sn.ID {
		t.Error("returned snippet mismatch")
	}
	if s.Tags.TagByName("solo") != nil {
		t.Error("tag with no remaining snippets should be pruned")
	}
	if s.Tags.TagByName("shared") == nil {
		t.Error("tag still carried by another snippet must survive")
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}

func TestMoveSnippetSameNotebookNoop(t *testing.T) {
	s := New()
	nb, _ := s.CreateRootNotebook("nb")
	sn, _ := s.CreateSnippet("s", models.LangGo, nb.ID)

	got, oldID, err := s.MoveSnippet(sn.ID, nb.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.NotebookID != nb.ID || oldID != nb.ID {
		t.Error("same-notebook move should be a no-op")
	}
	if nb.SnippetCount != 1 {
		t.Errorf("count = %d, want 1", nb.SnippetCount)
	}
}

func TestTagSnippetCanonicalization(t *testing.T) {
	s := New()
	nb, _ := s.CreateRootNotebook("nb")
	a, _ := s.CreateSnippet("a", models.LangGo, nb.ID)
	b, _ := s.CreateSnippet("b", models.LangGo, nb.ID)

	t1, err := s.TagSnippet(a.ID, " #Sorting ")
	if err != nil {
		t.Fatal(err)
	}
	if t1.Name != "Sorting" {
		t.Fatalf("canonical name = %q, want Sorting", t1.Name)
	}
	// Different spellings of the same tag reuse the entity.
	t2, _ := s.TagSnippet(b.ID, "SORTING")
	if t2.ID != t1.ID {
		t.Error("case-variant tag should reuse the existing entity")
	}
	if t2.UsageCount != 2 {
		t.Errorf("usage count = %d, want 2", t2.UsageCount)
	}
	if !a.HasTag("sorting") || !b.HasTag("Sorting") {
		t.Error("denormalized tag list out of sync")
	}

	if _, err := s.TagSnippet(a.ID, " # "); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("empty canonical name err = %v, want ErrValidation", err)
	}
}

func TestUntagSnippet(t *testing.T) {
	s := New()
	nb, _ := s.CreateRootNotebook("nb")
	sn, _ := s.CreateSnippet("s", models.LangGo, nb.ID)
	_, _ = s.TagSnippet(sn.ID, "x")

	if err := s.UntagSnippet(sn.ID, "#X"); err != nil {
		t.Fatal(err)
	}
	if sn.HasTag("x") {
		t.Error("denormalized list still carries removed tag")
	}
	if len(s.Tags.Tags) != 0 {
		t.Error("last association should prune the tag")
	}

	// Removing an absent tag is a no-op, not an error.
	if err := s.UntagSnippet(sn.ID, "never"); err != nil {
		t.Errorf("untag absent = %v, want nil", err)
	}
	if err := s.CheckIntegrity(); err != nil {
		t.Fatal(err)
	}
}
