package accession

import (
	"fmt"
	"strconv"
	"time"

	"verifier/internal/restored"
)

// Record is one file claimed by an accession inventory listing.
//
// Bytes and Timestamp are nil when the listing did not carry them; MD5 is
// empty when unknown. Restored is set exactly when Status is Found,
// PerfectMatch, or WithDuplicates.
type Record struct {
	Filename   string
	Bytes      *int64
	Timestamp  *time.Time
	MD5        string
	SourceFile string
	SourceLine int

	status      Status
	restored    *restored.Asset
	candidates  []restored.Asset
	extraCopies []restored.Asset
	promoted    bool
	reason      string
}

// Key identifies records that describe the same file within a batch.
type Key struct {
	Filename string
	Bytes    int64
	HasBytes bool
	MD5      string
}

func (k Key) String() string {
	size := "-"
	if k.HasBytes {
		size = strconv.FormatInt(k.Bytes, 10)
	}
	md5 := k.MD5
	if md5 == "" {
		md5 = "-"
	}
	return k.Filename + "/" + size + "/" + md5
}

// Location is a listing and line a record was read from.
type Location struct {
	SourceFile string `json:"source_file"`
	SourceLine int    `json:"source_line"`
}

func (l Location) String() string {
	return l.SourceFile + ":" + strconv.Itoa(l.SourceLine)
}

// DriftNote records a restored file found under a weaker key whose checksum
// disagrees with the accession inventory.
type DriftNote struct {
	Filename      string `json:"filename"`
	OriginalMD5   string `json:"original_md5"`
	RecoveredMD5  string `json:"recovered_md5"`
	RecoveredPath string `json:"recovered_path"`
}

// HasMD5 reports whether the listing supplied a digest.
func (r *Record) HasMD5() bool { return r.MD5 != "" }

// HasBytes reports whether the listing supplied a size.
func (r *Record) HasBytes() bool { return r.Bytes != nil }

// Key returns the in-batch duplicate key.
func (r *Record) Key() Key {
	k := Key{Filename: r.Filename, MD5: r.MD5}
	if r.Bytes != nil {
		k.Bytes = *r.Bytes
		k.HasBytes = true
	}
	return k
}

// Location returns where the record was read from.
func (r *Record) Location() Location {
	return Location{SourceFile: r.SourceFile, SourceLine: r.SourceLine}
}

// Status reports the current state.
func (r *Record) Status() Status { return r.status }

// Restored returns the chosen restored file, or nil.
func (r *Record) Restored() *restored.Asset { return r.restored }

// RestoredPath returns the chosen restored path, or "".
func (r *Record) RestoredPath() string {
	if r.restored == nil {
		return ""
	}
	return r.restored.Path
}

// Candidates returns every restored row the matching lookup produced, in
// index order.
func (r *Record) Candidates() []restored.Asset { return r.candidates }

// ExtraCopies returns candidates not chosen by the duplicate resolver.
func (r *Record) ExtraCopies() []restored.Asset { return r.extraCopies }

// Reason explains a Deaccession status.
func (r *Record) Reason() string { return r.reason }

// Resolve moves an Unresolved record to a matched status. The first
// candidate becomes the provisional restored reference.
func (r *Record) Resolve(status Status, candidates []restored.Asset) error {
	if !status.Matched() {
		return fmt.Errorf("%w: %s is not a matched status", ErrIllegalTransition, status)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("resolve %s as %s: no candidates", r.Filename, status)
	}
	if status != StatusWithDuplicates && len(candidates) != 1 {
		return fmt.Errorf("resolve %s as %s: %d candidates", r.Filename, status, len(candidates))
	}
	if status == StatusWithDuplicates && len(candidates) < 2 {
		return fmt.Errorf("resolve %s as %s: need at least two candidates", r.Filename, status)
	}
	if err := r.transition(status); err != nil {
		return err
	}
	r.candidates = append([]restored.Asset(nil), candidates...)
	first := r.candidates[0]
	r.restored = &first
	return nil
}

// MarkNotFound records that no key shape located the file.
func (r *Record) MarkNotFound() error {
	return r.transition(StatusNotFound)
}

// Deaccession removes the record from the deposit set.
func (r *Record) Deaccession(reason string) error {
	if err := r.transition(StatusDeaccession); err != nil {
		return err
	}
	r.reason = reason
	return nil
}

// Promote makes candidate i the restored reference and moves every other
// candidate, in original order, to the extra copies. It may be applied once,
// and only to records with more than one candidate.
func (r *Record) Promote(i int) error {
	if r.status != StatusWithDuplicates {
		return fmt.Errorf("promote %s: status %s has no duplicates", r.Filename, r.status)
	}
	if r.promoted {
		return fmt.Errorf("promote %s: already resolved", r.Filename)
	}
	if i < 0 || i >= len(r.candidates) {
		return fmt.Errorf("promote %s: candidate %d out of range", r.Filename, i)
	}
	chosen := r.candidates[i]
	r.restored = &chosen
	r.extraCopies = make([]restored.Asset, 0, len(r.candidates)-1)
	for j, c := range r.candidates {
		if j != i {
			r.extraCopies = append(r.extraCopies, c)
		}
	}
	r.promoted = true
	return nil
}

// Promoted reports whether the duplicate resolver has chosen a copy.
func (r *Record) Promoted() bool { return r.promoted }

func (r *Record) transition(to Status) error {
	if !canTransition(r.status, to) {
		return fmt.Errorf("%w: %s -> %s for %s", ErrIllegalTransition, r.status, to, r.Filename)
	}
	r.status = to
	return nil
}
