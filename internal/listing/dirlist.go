package listing

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"verifier/internal/accession"
)

// dirListEntry matches "MM/DD/YYYY  HH:MM AM  1,234  name".
var dirListEntry = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2}\s[AP]M)\s+([0-9,]+)\s+(.+)$`)

const dirListTimeLayout = "01/02/2006 03:04 PM"

func (p *parser) parseDirList() {
	for i, line := range p.file.Lines {
		if isBlank(line) {
			p.blank()
			continue
		}
		trimmed := strings.TrimSpace(line)
		m := dirListEntry.FindStringSubmatch(trimmed)
		if m == nil {
			if strings.Contains(trimmed, "<DIR>") {
				p.directory()
			} else {
				p.skip()
			}
			continue
		}
		size, err := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
		name := baseName(m[3])
		if err != nil || name == "" {
			p.skip()
			continue
		}
		rec := &accession.Record{Filename: name, Bytes: &size}
		if ts, err := time.Parse(dirListTimeLayout, strings.Join(strings.Fields(m[1]), " ")); err == nil {
			rec.Timestamp = &ts
		}
		p.emit(rec, i)
	}
}
