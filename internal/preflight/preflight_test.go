package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"verifier/internal/restored"
	"verifier/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckReadable_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckReadable("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckIndexNotLoaded(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckIndex(context.Background(), cfg)
	if result.Passed || !strings.Contains(result.Detail, "not loaded") {
		t.Fatalf("expected unloaded index failure, got %+v", result)
	}
	if _, err := os.Stat(cfg.Index.Path); !os.IsNotExist(err) {
		t.Fatal("check must not create the index")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	store := testsupport.MustOpenIndex(t, cfg)
	testsupport.SeedRestored(t, store, "RST_20120314_a.csv", restored.Asset{Filename: "a.tif", Bytes: 1, MD5: strings.Repeat("a", 32), Path: "/mnt/a.tif"})

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected four checks, got %d", len(results))
	}
	if Failed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
	if got := results[3].Detail; got != "sqlite, 1 files" {
		t.Fatalf("unexpected index detail %q", got)
	}

	if RunAll(context.Background(), nil) != nil {
		t.Fatal("nil config should produce no results")
	}
}
