package batch

import (
	"fmt"

	"verifier/internal/accession"
	"verifier/internal/listing"
)

// Outcome is the deposit gate result of a finalized batch.
type Outcome uint8

const (
	OutcomePending Outcome = iota
	OutcomeComplete
	OutcomeWithDuplicates
	OutcomeIncomplete
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeWithDuplicates:
		return "with_duplicates"
	case OutcomeIncomplete:
		return "incomplete"
	default:
		return "pending"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	for _, candidate := range []Outcome{OutcomePending, OutcomeComplete, OutcomeWithDuplicates, OutcomeIncomplete} {
		if candidate.String() == string(text) {
			*o = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Eligible reports whether the batch belongs in the deposit package.
func (o Outcome) Eligible() bool {
	return o == OutcomeComplete || o == OutcomeWithDuplicates
}

// Duplicate is a key claimed by more than one listing line.
type Duplicate struct {
	Key       accession.Key
	Locations []accession.Location
}

// Batch is the aggregated record set of one accession batch.
type Batch struct {
	Identifier string
	Files      []*listing.File
	Records    []*accession.Record
	Stats      map[string]listing.Stats

	keys      []accession.Key
	locations map[accession.Key][]accession.Location
	notes     []accession.DriftNote
	outcome   Outcome
}

// New parses files in order into one batch.
func New(identifier string, files []*listing.File) *Batch {
	b := &Batch{
		Identifier: identifier,
		Files:      files,
		Stats:      make(map[string]listing.Stats, len(files)),
		locations:  make(map[accession.Key][]accession.Location),
	}
	for _, f := range files {
		res := f.Parse()
		b.Stats[f.Name] = res.Stats
		for _, rec := range res.Records {
			b.add(rec)
		}
	}
	return b
}

func (b *Batch) add(rec *accession.Record) {
	key := rec.Key()
	if _, seen := b.locations[key]; !seen {
		b.keys = append(b.keys, key)
	}
	b.locations[key] = append(b.locations[key], rec.Location())
	b.Records = append(b.Records, rec)
}

// Duplicates returns keys seen at more than one location, in first-seen order.
func (b *Batch) Duplicates() []Duplicate {
	var dups []Duplicate
	for _, key := range b.keys {
		locs := b.locations[key]
		if len(locs) > 1 {
			dups = append(dups, Duplicate{Key: key, Locations: append([]accession.Location(nil), locs...)})
		}
	}
	return dups
}

// Locations returns every place key was read from.
func (b *Batch) Locations(key accession.Key) []accession.Location {
	return append([]accession.Location(nil), b.locations[key]...)
}

// HasKnownHashes reports whether every record carries an MD5. An empty batch
// has none.
func (b *Batch) HasKnownHashes() bool {
	if len(b.Records) == 0 {
		return false
	}
	for _, rec := range b.Records {
		if !rec.HasMD5() {
			return false
		}
	}
	return true
}

// AddNote appends drift notes found while matching.
func (b *Batch) AddNote(notes ...accession.DriftNote) {
	b.notes = append(b.notes, notes...)
}

// Notes returns the drift notes in the order they were added.
func (b *Batch) Notes() []accession.DriftNote {
	return b.notes
}

// Counts tallies records per status.
func (b *Batch) Counts() map[accession.Status]int {
	counts := make(map[accession.Status]int, len(accession.AllStatuses))
	for _, rec := range b.Records {
		counts[rec.Status()]++
	}
	return counts
}

// Finalize applies the deposit gate and records the outcome. Deaccessioned
// records are outside the deposit set and do not take part. The batch is
// Complete when every remaining record is a perfect match, WithDuplicates when
// every remaining record is a perfect match or resolved duplicate, and
// Incomplete otherwise, including when nothing remains to deposit.
func (b *Batch) Finalize() Outcome {
	depositable := 0
	allPerfect := true
	for _, rec := range b.Records {
		switch rec.Status() {
		case accession.StatusDeaccession:
			continue
		case accession.StatusPerfectMatch:
		case accession.StatusWithDuplicates:
			allPerfect = false
		default:
			b.outcome = OutcomeIncomplete
			return b.outcome
		}
		depositable++
	}
	switch {
	case depositable == 0:
		b.outcome = OutcomeIncomplete
	case allPerfect:
		b.outcome = OutcomeComplete
	default:
		b.outcome = OutcomeWithDuplicates
	}
	return b.outcome
}

// Outcome returns the result of the last Finalize call.
func (b *Batch) Outcome() Outcome { return b.outcome }
