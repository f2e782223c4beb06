package restored_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"verifier/internal/logging"
	"verifier/internal/restored"
	"verifier/internal/testsupport"
)

func seedStore(t *testing.T) *restored.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	testsupport.SeedRestored(t, store, "share-a.csv",
		restored.Asset{MD5: "AAAA0000AAAA0000AAAA0000AAAA0000", Path: "/restores/a/photo.tif", Filename: "photo.tif", Bytes: 1048576},
		restored.Asset{MD5: "bbbb1111bbbb1111bbbb1111bbbb1111", Path: "/restores/b/photo.tif", Filename: "photo.tif", Bytes: 1048576},
		restored.Asset{MD5: "cccc2222cccc2222cccc2222cccc2222", Path: "/restores/c/photo.tif", Filename: "photo.tif", Bytes: 99},
		restored.Asset{MD5: "dddd3333dddd3333dddd3333dddd3333", Path: "/restores/a/page1.tif", Filename: "page1.tif", Bytes: 524288},
	)
	return store
}

func TestLookupShapes(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		key   restored.Key
		paths []string
	}{
		{"full", restored.FullKey("photo.tif", 1048576, "aaaa0000aaaa0000aaaa0000aaaa0000"), []string{"/restores/a/photo.tif"}},
		{"full uppercase md5", restored.FullKey("photo.tif", 1048576, "AAAA0000AAAA0000AAAA0000AAAA0000"), []string{"/restores/a/photo.tif"}},
		{"name and bytes", restored.NameBytesKey("photo.tif", 1048576), []string{"/restores/a/photo.tif", "/restores/b/photo.tif"}},
		{"name", restored.NameKey("photo.tif"), []string{"/restores/a/photo.tif", "/restores/b/photo.tif", "/restores/c/photo.tif"}},
		{"missing", restored.NameKey("nothing.tif"), nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assets, err := store.Lookup(ctx, tc.key)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if len(assets) != len(tc.paths) {
				t.Fatalf("expected %d results, got %d (%v)", len(tc.paths), len(assets), assets)
			}
			for i, asset := range assets {
				if asset.Path != tc.paths[i] {
					t.Fatalf("result %d: got %q want %q", i, asset.Path, tc.paths[i])
				}
				if asset.UUID == "" || asset.ID == 0 {
					t.Fatalf("expected id and uuid on %+v", asset)
				}
			}
		})
	}
}

func TestLookupIsDeterministic(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()
	first, err := store.Lookup(ctx, restored.NameKey("photo.tif"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	second, err := store.Lookup(ctx, restored.NameKey("photo.tif"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("lookup order changed at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLoadSkipsBadRowsAndDuplicateListings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	ctx := context.Background()

	dir := t.TempDir()
	listing := testsupport.WriteListing(t, dir, "prefix_batch7_suffix.csv",
		"md5,path,filename,bytes",
		"eeee,/restores/x/one.tif,one.tif,10",
		"ffff,/restores/x/two.tif,,20",
		"short,row",
		"gggg,/restores/x/three.tif,three.tif,notanumber",
	)

	opts := restored.LoadOptions{Share: "henson", Prefix: "prefix_", Suffix: "_suffix.csv"}
	result, err := store.Load(ctx, listing, opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if result.Rows != 2 || result.Skipped != 3 {
		t.Fatalf("expected 2 rows and 3 skipped, got %+v", result)
	}
	if result.Batch != "batch7" {
		t.Fatalf("unexpected batch label %q", result.Batch)
	}

	two, err := store.Lookup(ctx, restored.NameKey("two.tif"))
	if err != nil || len(two) != 1 {
		t.Fatalf("expected filename derived from path, got %v err=%v", two, err)
	}

	again, err := store.Load(ctx, listing, opts)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !again.AlreadyLoaded || again.ListingID != result.ListingID {
		t.Fatalf("expected listing to be recognized as loaded, got %+v", again)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Listings != 1 || stats.Files != 2 || stats.DistinctNames != 2 || stats.TotalBytes != 30 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestLoadDirRecordsFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenIndex(t, cfg)
	dir := t.TempDir()
	testsupport.WriteListing(t, dir, "a.csv", "1111,/r/a.tif,a.tif,1")
	testsupport.WriteListing(t, dir, ".hidden.csv", "2222,/r/b.tif,b.tif,2")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	results, err := store.LoadDir(context.Background(), dir, restored.LoadOptions{}, logging.NewNop())
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(results) != 1 || results[0].Rows != 1 || results[0].Batch != "a" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestReopenChecksSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()
	store, err := restored.OpenSQLite(ctx, cfg.Index.Path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	store.Close()

	store, err = restored.OpenSQLite(ctx, cfg.Index.Path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.Index.Path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := restored.OpenSQLite(ctx, cfg.Index.Path); !errors.Is(err, restored.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
