package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeIndex(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeLogging()
	return c.normalizeMetrics()
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.RootDir, err = expandPath(strings.TrimSpace(c.Paths.RootDir)); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if c.Paths.SourceDir, err = c.rooted(c.Paths.SourceDir); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.OutputDir, err = c.rooted(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIndex() error {
	c.Index.Driver = strings.ToLower(strings.TrimSpace(c.Index.Driver))
	switch c.Index.Driver {
	case "", "sqlite3":
		c.Index.Driver = DriverSQLite
	case "pg", "postgresql", "pgx":
		c.Index.Driver = DriverPostgres
	}
	c.Index.DSN = strings.TrimSpace(c.Index.DSN)
	if c.Index.DSN == "" {
		if value, ok := os.LookupEnv("VERIFIER_INDEX_DSN"); ok {
			c.Index.DSN = strings.TrimSpace(value)
		}
	}
	if c.Index.Driver == DriverSQLite {
		var err error
		if c.Index.Path, err = c.rooted(c.Index.Path); err != nil {
			return fmt.Errorf("index.path: %w", err)
		}
	}
	if c.Index.CacheSize < 0 {
		c.Index.CacheSize = 0
	}
	return nil
}

func (c *Config) normalizeMatching() {
	cleaned := make([]string, 0, len(c.Matching.Excludes))
	seen := make(map[string]struct{}, len(c.Matching.Excludes))
	for _, pattern := range c.Matching.Excludes {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if _, ok := seen[pattern]; ok {
			continue
		}
		seen[pattern] = struct{}{}
		cleaned = append(cleaned, pattern)
	}
	c.Matching.Excludes = cleaned
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeMetrics() error {
	textfile := strings.TrimSpace(c.Metrics.Textfile)
	if textfile == "" {
		c.Metrics.Textfile = ""
		return nil
	}
	var err error
	if c.Metrics.Textfile, err = c.rooted(textfile); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

// rooted expands value and, when it is relative and a root directory is
// configured, joins it onto the root.
func (c *Config) rooted(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if c.Paths.RootDir != "" && !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) {
		value = filepath.Join(c.Paths.RootDir, value)
	}
	return expandPath(value)
}
