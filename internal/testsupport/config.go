package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"verifier/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The source directory is created so listings can be written into it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootDir = base
	cfgVal.Paths.SourceDir = filepath.Join(base, "inventories")
	cfgVal.Paths.OutputDir = filepath.Join(base, "package")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Index.Driver = config.DriverSQLite
	cfgVal.Index.Path = filepath.Join(base, "restored.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}
	return builder.cfg
}

// WithExcludes replaces the exclusion patterns on the test config.
func WithExcludes(patterns ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.Excludes = append([]string(nil), patterns...)
	}
}

// WithCacheSize overrides the lookup cache size on the test config.
func WithCacheSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Index.CacheSize = size
	}
}

// WithMetricsTextfile enables metrics output under the test root.
func WithMetricsTextfile(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, name)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.RootDir
}
