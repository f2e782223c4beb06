package config

import (
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// legacyConfig mirrors the YAML files written for the first verifier
// deployments. Paths other than ROOTDIR are relative to ROOTDIR.
type legacyConfig struct {
	RootDir   string   `yaml:"ROOTDIR"`
	SourceDir string   `yaml:"SOURCEDIR"`
	OutputDir string   `yaml:"OUTPUTDIR"`
	Database  string   `yaml:"DATABASE"`
	Excludes  []string `yaml:"EXCLUDES"`
	LogDir    string   `yaml:"LOGDIR"`
}

func isLegacyPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeLegacy(r io.Reader, cfg *Config) error {
	var legacy legacyConfig
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&legacy); err != nil && err != io.EOF {
		return err
	}
	legacy.apply(cfg)
	return nil
}

func (l legacyConfig) apply(cfg *Config) {
	if v := strings.TrimSpace(l.RootDir); v != "" {
		cfg.Paths.RootDir = v
	}
	if v := strings.TrimSpace(l.SourceDir); v != "" {
		cfg.Paths.SourceDir = v
	}
	if v := strings.TrimSpace(l.OutputDir); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := strings.TrimSpace(l.LogDir); v != "" {
		cfg.Paths.LogDir = v
	}
	if v := strings.TrimSpace(l.Database); v != "" {
		cfg.Index.Driver = DriverSQLite
		cfg.Index.Path = v
	}
	if l.Excludes != nil {
		cfg.Matching.Excludes = append([]string(nil), l.Excludes...)
	}
}
