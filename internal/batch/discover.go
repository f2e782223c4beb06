package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"verifier/internal/listing"
	"verifier/internal/logging"
)

// Problem is a listing that could not contribute to any batch.
type Problem struct {
	Path string
	Err  error
}

// Kind returns the error classification of the problem.
func (p Problem) Kind() string {
	var classified interface{ ErrorKind() string }
	if errors.As(p.Err, &classified) {
		return classified.ErrorKind()
	}
	if errors.Is(p.Err, listing.ErrEmptyListing) {
		return "empty"
	}
	return "io"
}

// Group is the set of listings sharing one batch name, in filename order.
type Group struct {
	Identifier string
	Files      []*listing.File
}

// Discovery is the result of scanning a source directory.
type Discovery struct {
	Groups   []Group
	Problems []Problem
}

// Group returns the group named identifier.
func (d *Discovery) Group(identifier string) (Group, bool) {
	for _, g := range d.Groups {
		if g.Identifier == identifier {
			return g, true
		}
	}
	return Group{}, false
}

// Discover loads every listing directly under sourceDir. Subdirectories and
// hidden entries are ignored. Listings that fail to decode or whose names do
// not follow the convention are reported as problems and skipped; only a
// failure to read sourceDir itself is returned as an error.
func Discover(sourceDir string, logger *slog.Logger) (*Discovery, error) {
	logger = logging.NewComponentLogger(logger, "discover")
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	d := &Discovery{}
	index := make(map[string]int)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(sourceDir, name)
		parsed, err := ParseName(name)
		if err != nil {
			d.report(logger, path, err)
			continue
		}
		file, err := listing.Load(path)
		if err != nil {
			d.report(logger, path, err)
			continue
		}
		i, ok := index[parsed.Batch]
		if !ok {
			i = len(d.Groups)
			index[parsed.Batch] = i
			d.Groups = append(d.Groups, Group{Identifier: parsed.Batch})
		}
		d.Groups[i].Files = append(d.Groups[i].Files, file)
		logger.Debug("listing discovered",
			logging.String(logging.FieldBatch, parsed.Batch),
			logging.String(logging.FieldListing, name),
			logging.String("dialect", file.Dialect.String()),
			logging.String("encoding", file.Encoding),
		)
	}
	sort.SliceStable(d.Groups, func(i, j int) bool { return d.Groups[i].Identifier < d.Groups[j].Identifier })
	return d, nil
}

func (d *Discovery) report(logger *slog.Logger, path string, err error) {
	problem := Problem{Path: path, Err: err}
	d.Problems = append(d.Problems, problem)
	logging.WarnWithContext(logger, "listing skipped", "listing_skipped",
		logging.String(logging.FieldListing, filepath.Base(path)),
		logging.String("kind", problem.Kind()),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "rename or re-export the listing"),
		logging.String(logging.FieldImpact, "records from this listing are not verified"),
	)
}
