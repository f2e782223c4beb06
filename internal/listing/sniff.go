package listing

import "strings"

// Dialect is the syntactic family of a listing.
type Dialect uint8

const (
	DialectUnknown Dialect = iota
	// DialectDirList is MS-DOS style `dir` output.
	DialectDirList
	// DialectSemicolon is a semicolon separated export with sizes in KiB.
	DialectSemicolon
	// DialectDelimited is a header-row table separated by tabs or commas.
	DialectDelimited
)

func (d Dialect) String() string {
	switch d {
	case DialectDirList:
		return "dirlist"
	case DialectSemicolon:
		return "semicolon"
	case DialectDelimited:
		return "delimited"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Dialect) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Sniff classifies a listing from its first line. The rules apply in order:
// a "Volume in drive" banner, any semicolon, any tab, and otherwise a comma
// separated table. The delimiter is only meaningful for DialectDelimited.
func Sniff(firstLine string) (Dialect, rune) {
	trimmed := strings.TrimSpace(firstLine)
	switch {
	case strings.HasPrefix(trimmed, "Volume in drive"):
		return DialectDirList, 0
	case strings.Contains(trimmed, ";"):
		return DialectSemicolon, ';'
	case strings.Contains(firstLine, "\t"):
		return DialectDelimited, '\t'
	default:
		return DialectDelimited, ','
	}
}
