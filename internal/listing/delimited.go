package listing

import (
	"encoding/csv"
	"math"
	"strconv"
	"strings"
	"time"

	"verifier/internal/accession"
)

// Column synonyms, in priority order. The first spelling present in a
// header wins.
var (
	filenameHeaders  = []string{"Filename", "File Name", "FILENAME", "Key"}
	bytesHeaders     = []string{"Size", "SIZE", "File Size", "Bytes", "BYTES"}
	timestampHeaders = []string{"Mod Date", "Moddate", "MODDATE"}
	md5Headers       = []string{"MD5", "Other", "Data"}
)

// Vendor export columns. Their presence turns on summary-row filtering.
const (
	vendorNameHeader   = "File Name"
	vendorTypeHeader   = "Type"
	vendorDirectory    = "Directory"
	vendorExtensionRow = "Extension"
	vendorTotalRow     = "Total file size"
)

var delimitedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 03:04:05 PM",
	"01/02/2006 03:04 PM",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

// columnMap holds resolved column indexes; -1 means the header lacks it.
type columnMap struct {
	filename   int
	bytes      int
	timestamp  int
	md5        int
	vendorName int
	vendorType int
}

func resolveColumns(header []string) columnMap {
	index := make(map[string]int, len(header))
	for i, cell := range header {
		cell = strings.TrimSpace(trimBOM(cell))
		if _, ok := index[cell]; !ok {
			index[cell] = i
		}
	}
	first := func(names []string) int {
		for _, name := range names {
			if i, ok := index[name]; ok {
				return i
			}
		}
		return -1
	}
	lookup := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}
	return columnMap{
		filename:   first(filenameHeaders),
		bytes:      first(bytesHeaders),
		timestamp:  first(timestampHeaders),
		md5:        first(md5Headers),
		vendorName: lookup(vendorNameHeader),
		vendorType: lookup(vendorTypeHeader),
	}
}

func splitRow(line string, delim rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r.Read()
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (p *parser) parseDelimited() {
	delim := p.file.Delimiter
	if delim == 0 {
		delim = ','
	}
	var (
		cols      columnMap
		haveHeads bool
	)
	for i, line := range p.file.Lines {
		if isBlank(line) {
			p.blank()
			continue
		}
		row, err := splitRow(line, delim)
		if err != nil {
			p.skip()
			continue
		}
		if !haveHeads {
			cols = resolveColumns(row)
			haveHeads = true
			p.skip()
			continue
		}
		if cols.vendorName >= 0 {
			if cell(row, cols.vendorType) == vendorDirectory {
				p.directory()
				continue
			}
			name := cell(row, cols.vendorName)
			if name == "" || strings.HasPrefix(name, vendorExtensionRow) || strings.HasPrefix(name, vendorTotalRow) {
				p.skip()
				continue
			}
		}
		rec, ok := cols.record(row)
		if !ok {
			p.skip()
			continue
		}
		p.emit(rec, i)
	}
}

// record builds an asset from row. It fails when the filename is missing or
// a mapped size is not a number.
func (c columnMap) record(row []string) (*accession.Record, bool) {
	if c.filename < 0 || c.filename >= len(row) {
		return nil, false
	}
	name := baseName(row[c.filename])
	if name == "" {
		return nil, false
	}
	rec := &accession.Record{Filename: name}
	if raw := cell(row, c.bytes); raw != "" {
		size, ok := parseSize(raw)
		if !ok {
			return nil, false
		}
		rec.Bytes = &size
	}
	rec.MD5 = normalizeMD5(cell(row, c.md5))
	if raw := cell(row, c.timestamp); raw != "" {
		rec.Timestamp = parseTimestamp(raw)
	}
	return rec, true
}

func parseSize(raw string) (int64, bool) {
	raw = strings.ReplaceAll(raw, ",", "")
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n >= 0 {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, false
	}
	return byteCount(f)
}

// byteCount converts a whole, non-negative size to int64. Values at or above
// 2^63 do not fit and are rejected.
func byteCount(f float64) (int64, bool) {
	if math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// normalizeMD5 lowercases value and keeps it only if it is a 32 character
// hex digest.
func normalizeMD5(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if len(value) != 32 {
		return ""
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return ""
		}
	}
	return value
}

func parseTimestamp(raw string) *time.Time {
	raw = strings.Join(strings.Fields(raw), " ")
	for _, layout := range delimitedTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}
