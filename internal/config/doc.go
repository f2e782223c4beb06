// Package config loads, normalizes, and validates verifier configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and accepts the legacy YAML layout used by
// older verifier deployments (ROOTDIR, SOURCEDIR, OUTPUTDIR, DATABASE,
// EXCLUDES). Relative inventory, package, and index paths resolve against
// paths.root_dir when it is set.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, a canonical index driver, and clear validation errors.
package config
