package match

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"verifier/internal/accession"
	"verifier/internal/batch"
	"verifier/internal/logging"
	"verifier/internal/restored"
)

// Matcher classifies records against a restored-file index.
type Matcher struct {
	index  restored.Index
	opts   Options
	logger *slog.Logger
}

// New returns a matcher over index.
func New(index restored.Index, opts Options, logger *slog.Logger) *Matcher {
	return &Matcher{
		index:  index,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "matcher"),
	}
}

// initialKey is the richest key rec supports.
func initialKey(rec *accession.Record) restored.Key {
	switch {
	case rec.HasMD5() && rec.HasBytes():
		return restored.FullKey(rec.Filename, *rec.Bytes, rec.MD5)
	case rec.HasBytes():
		return restored.NameBytesKey(rec.Filename, *rec.Bytes)
	default:
		return restored.NameKey(rec.Filename)
	}
}

// Match moves rec out of Unresolved. Excluded and hidden files are
// deaccessioned without a lookup. Otherwise the index is queried with the
// richest key, weakening it while nothing is found. A single hit on the first
// full key is a PerfectMatch, any other single hit is Found, and several hits
// are WithDuplicates with the first as the provisional copy.
//
// When the full key failed and a weaker key recovered rows, each recovered
// row whose md5 differs from the record's is returned as a drift note.
func (m *Matcher) Match(ctx context.Context, rec *accession.Record) ([]accession.DriftNote, error) {
	if reason, excluded := m.opts.exclusion(rec.Filename); excluded {
		return nil, rec.Deaccession(reason)
	}

	first := initialKey(rec)
	key := first
	var results []restored.Asset
	for {
		var err error
		results, err = m.index.Lookup(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("match %s: %w", rec.Location(), err)
		}
		if len(results) > 0 {
			break
		}
		weaker, ok := key.Weaken()
		if !ok {
			break
		}
		key = weaker
	}
	escalated := key != first

	var err error
	switch {
	case len(results) == 0:
		err = rec.MarkNotFound()
	case len(results) == 1 && !escalated && first.Shape == restored.ShapeFull:
		err = rec.Resolve(accession.StatusPerfectMatch, results)
	case len(results) == 1:
		err = rec.Resolve(accession.StatusFound, results)
	default:
		err = rec.Resolve(accession.StatusWithDuplicates, results)
	}
	if err != nil {
		return nil, err
	}

	if !escalated || first.Shape != restored.ShapeFull {
		return nil, nil
	}
	var notes []accession.DriftNote
	for _, asset := range results {
		if strings.EqualFold(asset.MD5, rec.MD5) {
			continue
		}
		notes = append(notes, accession.DriftNote{
			Filename:      rec.Filename,
			OriginalMD5:   rec.MD5,
			RecoveredMD5:  asset.MD5,
			RecoveredPath: asset.Path,
		})
	}
	return notes, nil
}

// Summary tallies a batch after matching.
type Summary struct {
	Counts      map[accession.Status]int
	ExtraCopies int
	DriftNotes  int
}

// MatchBatch matches every record of b in order and appends drift notes to
// the batch. An index failure stops the batch and is returned along with the
// partial summary.
func (m *Matcher) MatchBatch(ctx context.Context, b *batch.Batch) (Summary, error) {
	logger := logging.WithBatch(m.logger, b.Identifier)
	summary := Summary{Counts: make(map[accession.Status]int, len(accession.AllStatuses))}
	for _, rec := range b.Records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		notes, err := m.Match(ctx, rec)
		if err != nil {
			return summary, err
		}
		status := rec.Status()
		summary.Counts[status]++
		if status == accession.StatusWithDuplicates {
			summary.ExtraCopies += len(rec.Candidates()) - 1
		}
		if len(notes) > 0 {
			b.AddNote(notes...)
			summary.DriftNotes += len(notes)
			for _, note := range notes {
				logger.Info("content drift recovered",
					logging.String(logging.FieldFilename, note.Filename),
					logging.String("original_md5", note.OriginalMD5),
					logging.String("recovered_md5", note.RecoveredMD5),
					logging.String(logging.FieldPath, note.RecoveredPath),
				)
			}
		}
		logger.Debug("record matched",
			logging.String(logging.FieldListing, rec.SourceFile),
			logging.Int(logging.FieldLine, rec.SourceLine),
			logging.String(logging.FieldFilename, rec.Filename),
			logging.String(logging.FieldStatus, status.String()),
		)
	}
	return summary, nil
}
