package listing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"verifier/internal/accession"
	"verifier/internal/fileutil"
)

// File is a decoded inventory listing.
type File struct {
	Path      string
	Name      string
	MD5       string
	Encoding  string
	Dialect   Dialect
	Delimiter rune
	Lines     []string
}

// Stats counts how each line of a listing was classified. For every dialect
// Records + Directories + Skipped == Lines - Blank.
type Stats struct {
	Lines       int `json:"lines"`
	Blank       int `json:"blank"`
	Records     int `json:"records"`
	Directories int `json:"directories"`
	Skipped     int `json:"skipped"`
}

// Result is the outcome of parsing one listing.
type Result struct {
	Records []*accession.Record
	Stats   Stats
}

// Load reads, checksums, and decodes the listing at path.
func Load(path string) (*File, error) {
	digest, err := fileutil.MD5File(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	f, err := FromBytes(path, raw)
	if err != nil {
		return nil, err
	}
	f.MD5 = digest
	return f, nil
}

// FromBytes decodes raw as the content of a listing located at path. The MD5
// field is left empty.
func FromBytes(path string, raw []byte) (*File, error) {
	text, enc, err := decodeText(path, raw)
	if err != nil {
		return nil, err
	}
	lines := splitLines(text)
	first := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptyListing)
	}
	dialect, delim := Sniff(lines[first])
	return &File{
		Path:      path,
		Name:      filepath.Base(path),
		Encoding:  enc,
		Dialect:   dialect,
		Delimiter: delim,
		Lines:     lines,
	}, nil
}

// splitLines splits on LF, dropping a trailing CR from each line and the empty
// line a final newline produces.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Parse extracts asset records according to the sniffed dialect. It does not
// modify f, so repeated calls return equal sequences.
func (f *File) Parse() *Result {
	p := &parser{file: f, result: &Result{}}
	p.result.Stats.Lines = len(f.Lines)
	switch f.Dialect {
	case DialectDirList:
		p.parseDirList()
	case DialectSemicolon:
		p.parseSemicolon()
	default:
		p.parseDelimited()
	}
	return p.result
}

type parser struct {
	file   *File
	result *Result
}

func (p *parser) blank() { p.result.Stats.Blank++ }

func (p *parser) skip() { p.result.Stats.Skipped++ }

func (p *parser) directory() { p.result.Stats.Directories++ }

func (p *parser) emit(rec *accession.Record, lineIndex int) {
	rec.SourceFile = p.file.Name
	rec.SourceLine = lineIndex + 1
	p.result.Records = append(p.result.Records, rec)
	p.result.Stats.Records++
}

// baseName strips any Windows or POSIX directory prefix.
func baseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// trimBOM drops a byte-order mark from the start of s.
func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
