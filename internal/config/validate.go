package config

import (
	"errors"
	"fmt"
	"path"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIndex(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.SourceDir == "" {
		return errors.New("paths.source_dir must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.SourceDir == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.source_dir")
	}
	return nil
}

func (c *Config) validateIndex() error {
	switch c.Index.Driver {
	case DriverSQLite:
		if c.Index.Path == "" {
			return errors.New("index.path must be set when index.driver is sqlite")
		}
	case DriverPostgres:
		if c.Index.DSN == "" {
			return errors.New("index.dsn must be set when index.driver is postgres (or export VERIFIER_INDEX_DSN)")
		}
	default:
		return fmt.Errorf("index.driver: unsupported value %q", c.Index.Driver)
	}
	return nil
}

func (c *Config) validateMatching() error {
	for _, pattern := range c.Matching.Excludes {
		if _, err := path.Match(pattern, ""); err != nil {
			return fmt.Errorf("matching.excludes: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
