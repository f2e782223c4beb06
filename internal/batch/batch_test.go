package batch_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"verifier/internal/accession"
	"verifier/internal/batch"
	"verifier/internal/listing"
	"verifier/internal/logging"
	"verifier/internal/restored"
	"verifier/internal/testsupport"
)

func TestParseName(t *testing.T) {
	cases := []struct {
		in      string
		want    batch.Name
		wantErr bool
	}{
		{in: "ACC1_20120314_disk1.txt", want: batch.Name{Batch: "ACC1", Date: "20120314", Extra: "disk1.txt"}},
		{in: "ACC1_2012_disk_1_b.csv", want: batch.Name{Batch: "ACC1", Date: "2012", Extra: "disk_1_b.csv"}},
		{in: "ACC1_20120314.txt", wantErr: true},
		{in: "_20120314_x.txt", wantErr: true},
		{in: "ACC1__x.txt", wantErr: true},
		{in: "ACC1_2012_", wantErr: true},
		{in: "listing.txt", wantErr: true},
	}
	for _, tc := range cases {
		got, err := batch.ParseName(tc.in)
		if tc.wantErr {
			var unrecognized *batch.UnrecognizedFilenameError
			if !errors.As(err, &unrecognized) || unrecognized.ErrorKind() != "unrecognized_filename" {
				t.Fatalf("ParseName(%q): expected UnrecognizedFilenameError, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseName(%q) = %+v, %v", tc.in, got, err)
		}
	}
}

func TestDiscoverGroupsAndReports(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteListing(t, dir, "BETA_20120101_a.csv", "Filename,Size", "b.tif,2")
	testsupport.WriteListing(t, dir, "ALPHA_20120101_b.csv", "Filename,Size", "a2.tif,2")
	testsupport.WriteListing(t, dir, "ALPHA_20120101_a.csv", "Filename,Size", "a1.tif,1")
	testsupport.WriteListing(t, dir, "stray.csv", "Filename,Size", "x.tif,1")
	testsupport.WriteListing(t, dir, ".hidden_2012_a.csv", "Filename,Size")
	testsupport.WriteFile(t, filepath.Join(dir, "GAMMA_2012_empty.txt"), []byte("\r\n"))
	if err := os.Mkdir(filepath.Join(dir, "DELTA_2012_dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	d, err := batch.Discover(dir, logging.NewNop())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(d.Groups) != 2 || d.Groups[0].Identifier != "ALPHA" || d.Groups[1].Identifier != "BETA" {
		t.Fatalf("unexpected groups: %+v", d.Groups)
	}
	alpha, ok := d.Group("ALPHA")
	if !ok || len(alpha.Files) != 2 || alpha.Files[0].Name != "ALPHA_20120101_a.csv" {
		t.Fatalf("expected alpha listings in filename order: %+v", alpha)
	}

	kinds := map[string]string{}
	for _, p := range d.Problems {
		kinds[filepath.Base(p.Path)] = p.Kind()
	}
	want := map[string]string{"stray.csv": "unrecognized_filename", "GAMMA_2012_empty.txt": "empty"}
	if len(kinds) != len(want) {
		t.Fatalf("unexpected problems: %+v", kinds)
	}
	for name, kind := range want {
		if kinds[name] != kind {
			t.Fatalf("problem %s: got kind %q want %q", name, kinds[name], kind)
		}
	}
}

func TestDiscoverMissingDirectory(t *testing.T) {
	if _, err := batch.Discover(filepath.Join(t.TempDir(), "absent"), nil); err == nil {
		t.Fatal("expected error for missing source directory")
	}
}

func loadFiles(t *testing.T, dir string, listings map[string][]string, order ...string) []*listing.File {
	t.Helper()
	files := make([]*listing.File, 0, len(order))
	for _, name := range order {
		path := testsupport.WriteListing(t, dir, name, listings[name]...)
		f, err := listing.Load(path)
		if err != nil {
			t.Fatalf("Load %s: %v", name, err)
		}
		files = append(files, f)
	}
	return files
}

func TestNewAggregatesAndIndexesDuplicates(t *testing.T) {
	dir := t.TempDir()
	files := loadFiles(t, dir, map[string][]string{
		"ACC_2012_a.csv": {"Filename,Size,MD5", "a.tif,1,aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "b.tif,2,bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
		"ACC_2012_b.csv": {"Filename,Size,MD5", "a.tif,1,aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "c.tif,3,cccccccccccccccccccccccccccccccc"},
	}, "ACC_2012_a.csv", "ACC_2012_b.csv")

	b := batch.New("ACC", files)
	if len(b.Records) != 4 {
		t.Fatalf("expected flat union of 4 records, got %d", len(b.Records))
	}
	if b.Records[2].SourceFile != "ACC_2012_b.csv" || b.Records[2].SourceLine != 2 {
		t.Fatalf("unexpected provenance: %s", b.Records[2].Location())
	}
	dups := b.Duplicates()
	if len(dups) != 1 || dups[0].Key.Filename != "a.tif" || len(dups[0].Locations) != 2 {
		t.Fatalf("unexpected duplicates: %+v", dups)
	}
	if dups[0].Locations[1].String() != "ACC_2012_b.csv:2" {
		t.Fatalf("unexpected location order: %+v", dups[0].Locations)
	}
	if !b.HasKnownHashes() {
		t.Fatal("every record carries an md5")
	}
	if b.Stats["ACC_2012_a.csv"].Records != 2 {
		t.Fatalf("unexpected per-listing stats: %+v", b.Stats)
	}
}

func TestHasKnownHashes(t *testing.T) {
	dir := t.TempDir()
	files := loadFiles(t, dir, map[string][]string{
		"ACC_2012_a.csv": {"Filename,Size,MD5", "a.tif,1,aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "b.tif,2,"},
	}, "ACC_2012_a.csv")
	if batch.New("ACC", files).HasKnownHashes() {
		t.Fatal("a missing md5 means hashes are not all known")
	}
	if batch.New("EMPTY", nil).HasKnownHashes() {
		t.Fatal("an empty batch has no known hashes")
	}
}

func asset(path string) restored.Asset {
	return restored.Asset{Filename: filepath.Base(path), Path: path}
}

func record(t *testing.T, status accession.Status) *accession.Record {
	t.Helper()
	rec := &accession.Record{Filename: "f.tif"}
	var err error
	switch status {
	case accession.StatusPerfectMatch, accession.StatusFound:
		err = rec.Resolve(status, []restored.Asset{asset("/r/f.tif")})
	case accession.StatusWithDuplicates:
		err = rec.Resolve(status, []restored.Asset{asset("/r/f.tif"), asset("/old/f.tif")})
	case accession.StatusNotFound:
		err = rec.MarkNotFound()
	case accession.StatusDeaccession:
		err = rec.Deaccession("excluded")
	}
	if err != nil {
		t.Fatalf("prepare %s: %v", status, err)
	}
	return rec
}

func TestFinalizeGate(t *testing.T) {
	cases := []struct {
		name     string
		statuses []accession.Status
		want     batch.Outcome
	}{
		{"all perfect", []accession.Status{accession.StatusPerfectMatch, accession.StatusPerfectMatch}, batch.OutcomeComplete},
		{"mixed duplicates", []accession.Status{accession.StatusPerfectMatch, accession.StatusWithDuplicates}, batch.OutcomeWithDuplicates},
		{"only duplicates", []accession.Status{accession.StatusWithDuplicates}, batch.OutcomeWithDuplicates},
		{"one missing", []accession.Status{accession.StatusPerfectMatch, accession.StatusNotFound}, batch.OutcomeIncomplete},
		{"found is not perfect", []accession.Status{accession.StatusFound, accession.StatusPerfectMatch}, batch.OutcomeIncomplete},
		{"unresolved", []accession.Status{accession.StatusUnresolved}, batch.OutcomeIncomplete},
		{"deaccession ignored", []accession.Status{accession.StatusPerfectMatch, accession.StatusDeaccession}, batch.OutcomeComplete},
		{"nothing to deposit", []accession.Status{accession.StatusDeaccession}, batch.OutcomeIncomplete},
		{"empty", nil, batch.OutcomeIncomplete},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := batch.New("ACC", nil)
			for _, status := range tc.statuses {
				b.Records = append(b.Records, record(t, status))
			}
			if got := b.Finalize(); got != tc.want {
				t.Fatalf("Finalize() = %s, want %s", got, tc.want)
			}
			if b.Outcome() != tc.want {
				t.Fatalf("Outcome() not recorded")
			}
			if tc.want.Eligible() == (tc.want == batch.OutcomeIncomplete) {
				t.Fatalf("eligibility of %s inconsistent", tc.want)
			}
		})
	}
}

func TestNotesAndCounts(t *testing.T) {
	b := batch.New("ACC", nil)
	b.Records = append(b.Records, record(t, accession.StatusNotFound), record(t, accession.StatusNotFound), record(t, accession.StatusFound))
	b.AddNote(accession.DriftNote{Filename: "a"}, accession.DriftNote{Filename: "b"})
	if notes := b.Notes(); len(notes) != 2 || notes[1].Filename != "b" {
		t.Fatalf("unexpected notes: %+v", notes)
	}
	counts := b.Counts()
	if counts[accession.StatusNotFound] != 2 || counts[accession.StatusFound] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
