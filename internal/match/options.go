package match

import (
	"path"
	"strings"

	"verifier/internal/config"
)

// Options are the exclusion rules applied before any lookup.
type Options struct {
	// Excludes are path.Match patterns tested against the record filename.
	Excludes []string
	// HiddenPrefix is an additional hidden-file marker. Names starting with
	// "." are always hidden.
	HiddenPrefix string
}

const dotPrefix = "."

// OptionsFromConfig copies the matching section of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		Excludes:     append([]string(nil), cfg.Matching.Excludes...),
		HiddenPrefix: cfg.Matching.HiddenPrefix,
	}
}

// exclusion returns the deaccession reason for filename, if any.
func (o Options) exclusion(filename string) (string, bool) {
	if strings.HasPrefix(filename, dotPrefix) ||
		(o.HiddenPrefix != "" && strings.HasPrefix(filename, o.HiddenPrefix)) {
		return "hidden file", true
	}
	for _, pattern := range o.Excludes {
		if ok, err := path.Match(pattern, filename); err == nil && ok {
			return "excluded by pattern " + pattern, true
		}
	}
	return "", false
}
