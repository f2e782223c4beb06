package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"verifier/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "verifier", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if !filepath.IsAbs(cfg.Paths.SourceDir) || filepath.Base(cfg.Paths.SourceDir) != "inventories" {
		t.Fatalf("unexpected source dir: %q", cfg.Paths.SourceDir)
	}
	if cfg.Index.Driver != config.DriverSQLite {
		t.Fatalf("unexpected index driver: %q", cfg.Index.Driver)
	}
	if cfg.Index.CacheSize != config.Default().Index.CacheSize {
		t.Fatalf("unexpected cache size: %d", cfg.Index.CacheSize)
	}
	if len(cfg.Matching.Excludes) != 2 {
		t.Fatalf("expected default excludes, got %v", cfg.Matching.Excludes)
	}
	if cfg.Matching.HiddenPrefix != "." {
		t.Fatalf("unexpected hidden prefix: %q", cfg.Matching.HiddenPrefix)
	}
}

func TestLoadCustomConfigResolvesAgainstRoot(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
root_dir = "` + root + `"
source_dir = "lists"
output_dir = "/tmp/verifier-out"

[index]
driver = "SQLITE3"
path = "db/restored.sqlite"
cache_size = -5

[matching]
excludes = [" Thumbs.db ", "Thumbs.db", "*.tmp", ""]

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Paths.SourceDir != filepath.Join(root, "lists") {
		t.Fatalf("unexpected source dir: %q", cfg.Paths.SourceDir)
	}
	if cfg.Paths.OutputDir != "/tmp/verifier-out" {
		t.Fatalf("absolute output dir should be kept, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Index.Driver != config.DriverSQLite {
		t.Fatalf("unexpected driver: %q", cfg.Index.Driver)
	}
	if cfg.Index.Path != filepath.Join(root, "db", "restored.sqlite") {
		t.Fatalf("unexpected index path: %q", cfg.Index.Path)
	}
	if cfg.Index.CacheSize != 0 {
		t.Fatalf("negative cache size should clamp to 0, got %d", cfg.Index.CacheSize)
	}
	if got := strings.Join(cfg.Matching.Excludes, ","); got != "Thumbs.db,*.tmp" {
		t.Fatalf("unexpected excludes: %q", got)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
}

func TestLoadLegacyYAML(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := t.TempDir()
	path := filepath.Join(t.TempDir(), "verifier.yml")
	content := "ROOTDIR: " + root + "\n" +
		"SOURCEDIR: inventories\n" +
		"OUTPUTDIR: out\n" +
		"DATABASE: restores.db\n" +
		"EXCLUDES:\n  - Thumbs.db\n  - desktop.ini\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.RootDir != root {
		t.Fatalf("unexpected root: %q", cfg.Paths.RootDir)
	}
	if cfg.Paths.OutputDir != filepath.Join(root, "out") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Index.Path != filepath.Join(root, "restores.db") {
		t.Fatalf("unexpected index path: %q", cfg.Index.Path)
	}
	if got := strings.Join(cfg.Matching.Excludes, ","); got != "Thumbs.db,desktop.ini" {
		t.Fatalf("unexpected excludes: %q", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"driver", func(c *config.Config) { c.Index.Driver = "oracle" }, "index.driver"},
		{"postgres without dsn", func(c *config.Config) { c.Index.Driver = config.DriverPostgres }, "index.dsn"},
		{"same dirs", func(c *config.Config) { c.Paths.OutputDir = c.Paths.SourceDir }, "paths.output_dir"},
		{"bad pattern", func(c *config.Config) { c.Matching.Excludes = []string{"[abc"} }, "matching.excludes"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.SourceDir = "/data/in"
			cfg.Paths.OutputDir = "/data/out"
			cfg.Index.Path = "/data/restored.db"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VERIFIER_INDEX_DSN", "postgres://localhost/restores")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[index]\ndriver = \"postgresql\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Index.Driver != config.DriverPostgres || cfg.Index.DSN != "postgres://localhost/restores" {
		t.Fatalf("unexpected index config: %+v", cfg.Index)
	}
}

func TestPostgresDSNFromDotenv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VERIFIER_INDEX_DSN", "")
	os.Unsetenv("VERIFIER_INDEX_DSN")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[index]\ndriver = \"postgres\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("VERIFIER_INDEX_DSN=postgres://db/restores\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Index.DSN != "postgres://db/restores" {
		t.Fatalf("expected dsn from .env, got %q", cfg.Index.DSN)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(target); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}
