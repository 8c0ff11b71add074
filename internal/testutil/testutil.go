// Package testutil provides shared test helpers for setting up data
// directories and services.
package testutil

import (
	"testing"

	"github.com/halvard/skald/internal/storage"
	"github.com/halvard/skald/internal/vault"
)

// TestFS creates a temporary data directory with a storage.FS provider.
func TestFS(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dataDir := t.TempDir()
	fs, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	return dataDir, fs
}

// TestService creates a vault service over a fresh temporary store.
func TestService(t *testing.T) *vault.Service {
	t.Helper()
	_, fs := TestFS(t)
	st, err := fs.Load()
	if err != nil {
		t.Fatal(err)
	}
	return vault.NewService(st, fs)
}
