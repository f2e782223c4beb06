package deposit

import (
	"verifier/internal/accession"
	"verifier/internal/batch"
	"verifier/internal/restored"
)

// ReasonExtraCopy is the deaccession reason for surplus restored copies.
const ReasonExtraCopy = "extra restored copy"

// ManifestEntry is one restored file to deposit.
type ManifestEntry struct {
	MD5  string
	Path string
}

// Deaccession is a record or copy left out of the deposit.
type Deaccession struct {
	Reason string
	Key    string
	Path   string
}

// Missing is a record with no usable restored copy.
type Missing struct {
	MD5      string
	Bytes    *int64
	Filename string
}

// Package holds the classified collections of one batch.
type Package struct {
	Identifier   string
	Outcome      batch.Outcome
	Records      []*accession.Record
	Manifest     []ManifestEntry
	Deaccessions []Deaccession
	Missing      []Missing
	Drift        []accession.DriftNote
	Duplicates   []batch.Duplicate
	Summary      Summary
}

// Summary is the per-batch entry of summary.json.
type Summary struct {
	Outcome     batch.Outcome  `json:"outcome"`
	Listings    []string       `json:"listings"`
	Records     int            `json:"records"`
	Statuses    map[string]int `json:"statuses"`
	ExtraCopies int            `json:"extra_copies"`
	Duplicates  int            `json:"duplicates"`
	DriftNotes  int            `json:"drift_notes"`
	// KnownHashes is true when every record of the batch carried an MD5.
	KnownHashes bool           `json:"known_hashes"`
}

// Classify builds the deposit view of b. Call it after Finalize.
//
// Matched records contribute their chosen copy to the manifest and their
// remaining candidates to the deaccessions. Deaccessioned records are listed
// with their listing location as the path. NotFound and Unresolved records
// are missing.
func Classify(b *batch.Batch) *Package {
	p := &Package{
		Identifier: b.Identifier,
		Outcome:    b.Outcome(),
		Records:    b.Records,
		Drift:      b.Notes(),
		Duplicates: b.Duplicates(),
	}
	statuses := make(map[string]int)
	for _, rec := range b.Records {
		statuses[rec.Status().String()]++
		switch {
		case rec.Status().Matched():
			asset := rec.Restored()
			digest := asset.MD5
			if digest == "" {
				digest = rec.MD5
			}
			p.Manifest = append(p.Manifest, ManifestEntry{MD5: digest, Path: asset.Path})
			for _, extra := range surplus(rec) {
				p.Deaccessions = append(p.Deaccessions, Deaccession{
					Reason: ReasonExtraCopy,
					Key:    rec.Key().String(),
					Path:   extra.Path,
				})
			}
		case rec.Status() == accession.StatusDeaccession:
			p.Deaccessions = append(p.Deaccessions, Deaccession{
				Reason: rec.Reason(),
				Key:    rec.Key().String(),
				Path:   rec.Location().String(),
			})
		default:
			p.Missing = append(p.Missing, Missing{MD5: rec.MD5, Bytes: rec.Bytes, Filename: rec.Filename})
		}
	}

	listings := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		listings = append(listings, f.Name)
	}
	extra := 0
	for _, d := range p.Deaccessions {
		if d.Reason == ReasonExtraCopy {
			extra++
		}
	}
	p.Summary = Summary{
		Outcome:     p.Outcome,
		Listings:    listings,
		Records:     len(b.Records),
		Statuses:    statuses,
		ExtraCopies: extra,
		Duplicates:  len(p.Duplicates),
		DriftNotes:  len(p.Drift),
		KnownHashes: b.HasKnownHashes(),
	}
	return p
}

// surplus returns the candidates not chosen for rec. Before the resolver has
// run this is every candidate after the provisional first.
func surplus(rec *accession.Record) []restored.Asset {
	if rec.Promoted() {
		return rec.ExtraCopies()
	}
	if cands := rec.Candidates(); len(cands) > 1 {
		return cands[1:]
	}
	return nil
}
