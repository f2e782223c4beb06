package listing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"verifier/internal/accession"
)

const semicolonTimeLayout = "01/02/2006 03:04:05 PM"

// parseSemicolon reads "path;timestamp;size-KiB;type" rows. Rows whose third
// column reads "Directory" describe folders.
func (p *parser) parseSemicolon() {
	for i, line := range p.file.Lines {
		if isBlank(line) {
			p.blank()
			continue
		}
		cols := strings.Split(strings.TrimSpace(line), ";")
		if len(cols) < 3 {
			p.skip()
			continue
		}
		if strings.TrimSpace(cols[2]) == "Directory" {
			p.directory()
			continue
		}
		name := baseName(cols[0])
		ts, tsErr := time.Parse(semicolonTimeLayout, strings.Join(strings.Fields(cols[1]), " "))
		kib, sizeErr := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(cols[2]), ",", ""), 64)
		if name == "" || tsErr != nil || sizeErr != nil {
			p.skip()
			continue
		}
		size, ok := byteCount(math.Round(kib * 1024))
		if !ok {
			p.skip()
			continue
		}
		p.emit(&accession.Record{Filename: name, Bytes: &size, Timestamp: &ts}, i)
	}
}
