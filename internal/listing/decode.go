package listing

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

type textEncoding struct {
	name    string
	charmap *charmap.Charmap
}

// encodings are tried in order; the first that decodes the whole listing wins.
var encodings = []textEncoding{
	{name: "utf-8"},
	{name: "iso-8859-1", charmap: charmap.ISO8859_1},
	{name: "macintosh", charmap: charmap.Macintosh},
	{name: "windows-1252", charmap: charmap.Windows1252},
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns raw as a string and the name of the encoding used.
// A charmap result containing U+FFFD means the charmap has no mapping for
// some byte, so the next candidate is tried.
func decodeText(path string, raw []byte) (string, string, error) {
	tried := make([]string, 0, len(encodings))
	for _, enc := range encodings {
		tried = append(tried, enc.name)
		if enc.charmap == nil {
			if utf8.Valid(raw) {
				return string(bytes.TrimPrefix(raw, utf8BOM)), enc.name, nil
			}
			continue
		}
		out, err := enc.charmap.NewDecoder().Bytes(raw)
		if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return string(out), enc.name, nil
	}
	return "", "", &DecodeError{Path: path, Tried: tried}
}
