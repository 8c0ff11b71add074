package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/halvard/skald/internal/apperr"
	"github.com/halvard/skald/internal/models"
	"github.com/halvard/skald/internal/store"
)

func TestEncodeDecodeJSON(t *testing.T) {
	src, _, sn := seedStore(t)
	bundle := Build(src, DefaultOptions())

	data, err := bundle.Encode()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != BundleVersion {
		t.Errorf("version = %q", got.Version)
	}
	if got.Snippets[sn.ID] == nil || got.Snippets[sn.ID].Content != "package main" {
		t.Error("snippet lost in codec round trip")
	}
}

func TestDecodeYAMLFallback(t *testing.T) {
	src, nb, sn := seedStore(t)
	bundle := Build(src, DefaultOptions())

	// Re-encode the bundle as YAML via a generic document, the shape a
	// hand-edited or foreign export would arrive in.
	jsonData, err := bundle.Encode()
	if err != nil {
		t.Fatal(err)
	}
	var doc any
	if err := yaml.Unmarshal(jsonData, &doc); err != nil {
		t.Fatal(err)
	}
	yamlData, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	got, err := Decode(yamlData)
	if err != nil {
		t.Fatalf("YAML decode: %v", err)
	}
	if got.Notebooks[nb.ID] == nil {
		t.Error("notebook lost in YAML path")
	}
	if got.Snippets[sn.ID] == nil {
		t.Error("snippet lost in YAML path")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte("\t{{{ not a document")); !errors.Is(err, apperr.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestWriteReadFile(t *testing.T) {
	src, _, _ := seedStore(t)
	bundle := Build(src, DefaultOptions())

	path := filepath.Join(t.TempDir(), "export.json")
	if err := bundle.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Snippets) != len(bundle.Snippets) {
		t.Errorf("snippets = %d, want %d", len(got.Snippets), len(bundle.Snippets))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestReadFileYAML(t *testing.T) {
	s := store.New()
	nb, _ := s.CreateRootNotebook("yaml nb")
	_, _ = s.CreateSnippet("y", models.LangGo, nb.ID)
	bundle := Build(s, DefaultOptions())

	jsonData, _ := bundle.Encode()
	var doc any
	_ = yaml.Unmarshal(jsonData, &doc)
	yamlData, _ := yaml.Marshal(doc)

	path := filepath.Join(t.TempDir(), "export.yaml")
	if err := os.WriteFile(path, yamlData, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Notebooks[nb.ID] == nil {
		t.Error("YAML file import lost the notebook")
	}
}
