package testsupport

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"verifier/internal/config"
	"verifier/internal/restored"
)

// MustOpenIndex opens the configured restored-file index and registers cleanup.
func MustOpenIndex(t testing.TB, cfg *config.Config) *restored.Store {
	t.Helper()

	store, err := restored.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("restored.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedRestored loads assets into store through a generated restored-file
// listing named name. ID and UUID on the inputs are ignored.
func SeedRestored(t testing.TB, store *restored.Store, name string, assets ...restored.Asset) restored.ListingResult {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create restored listing: %v", err)
	}
	w := csv.NewWriter(f)
	for _, a := range assets {
		if err := w.Write([]string{a.MD5, a.Path, a.Filename, strconv.FormatInt(a.Bytes, 10)}); err != nil {
			t.Fatalf("write restored row: %v", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		t.Fatalf("flush restored listing: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close restored listing: %v", err)
	}

	result, err := store.Load(context.Background(), path, restored.LoadOptions{Share: "test"})
	if err != nil {
		t.Fatalf("store.Load: %v", err)
	}
	return result
}
