package deposit_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"verifier/internal/accession"
	"verifier/internal/batch"
	"verifier/internal/deposit"
	"verifier/internal/logging"
	"verifier/internal/restored"
)

const digest = "0cc175b9c0f1b6a831c399e269772661"

func size(n int64) *int64 { return &n }

func verifiedBatch(t *testing.T, withMissing bool) *batch.Batch {
	t.Helper()
	b := batch.New("ACC", nil)

	perfect := &accession.Record{Filename: "a.tif", Bytes: size(1), MD5: digest, SourceFile: "ACC_2012_a.csv", SourceLine: 2}
	if err := perfect.Resolve(accession.StatusPerfectMatch, []restored.Asset{{ID: 1, MD5: digest, Path: "/r/a.tif"}}); err != nil {
		t.Fatal(err)
	}
	dup := &accession.Record{Filename: "b.tif", Bytes: size(2), SourceFile: "ACC_2012_a.csv", SourceLine: 3}
	if err := dup.Resolve(accession.StatusWithDuplicates, []restored.Asset{{ID: 2, MD5: digest, Path: "/old/b.tif"}, {ID: 3, MD5: digest, Path: "/r/b.tif"}}); err != nil {
		t.Fatal(err)
	}
	if err := dup.Promote(1); err != nil {
		t.Fatal(err)
	}
	excluded := &accession.Record{Filename: "Thumbs.db", SourceFile: "ACC_2012_a.csv", SourceLine: 4}
	if err := excluded.Deaccession("excluded by pattern Thumbs.db"); err != nil {
		t.Fatal(err)
	}
	b.Records = append(b.Records, perfect, dup, excluded)
	if withMissing {
		missing := &accession.Record{Filename: "gone.tif", Bytes: size(9), MD5: digest, SourceFile: "ACC_2012_a.csv", SourceLine: 5}
		if err := missing.MarkNotFound(); err != nil {
			t.Fatal(err)
		}
		b.Records = append(b.Records, missing)
	}
	b.AddNote(accession.DriftNote{Filename: "x.tif", OriginalMD5: "old", RecoveredMD5: "new", RecoveredPath: "/r/x.tif"})
	b.Finalize()
	return b
}

func TestClassify(t *testing.T) {
	p := deposit.Classify(verifiedBatch(t, true))
	if p.Outcome != batch.OutcomeIncomplete {
		t.Fatalf("unexpected outcome %s", p.Outcome)
	}
	if len(p.Manifest) != 2 || p.Manifest[1].Path != "/r/b.tif" {
		t.Fatalf("unexpected manifest: %+v", p.Manifest)
	}
	if len(p.Deaccessions) != 2 {
		t.Fatalf("expected excluded record and extra copy: %+v", p.Deaccessions)
	}
	extra, excluded := p.Deaccessions[0], p.Deaccessions[1]
	if extra.Reason != deposit.ReasonExtraCopy || extra.Path != "/old/b.tif" || extra.Key != "b.tif/2/-" {
		t.Fatalf("unexpected extra copy entry: %+v", extra)
	}
	if excluded.Path != "ACC_2012_a.csv:4" || !strings.Contains(excluded.Reason, "Thumbs.db") {
		t.Fatalf("unexpected excluded entry: %+v", excluded)
	}
	if len(p.Missing) != 1 || p.Missing[0].Filename != "gone.tif" || *p.Missing[0].Bytes != 9 {
		t.Fatalf("unexpected missing: %+v", p.Missing)
	}
	s := p.Summary
	if s.Records != 4 || s.Statuses["not_found"] != 1 || s.ExtraCopies != 1 || s.DriftNotes != 1 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.KnownHashes {
		t.Fatal("b.tif has no md5, so the batch hashes are not all known")
	}
}

func TestSummaryKnownHashes(t *testing.T) {
	b := batch.New("HASHED", nil)
	rec := &accession.Record{Filename: "a.tif", Bytes: size(1), MD5: digest, SourceFile: "HASHED_2012_a.csv", SourceLine: 2}
	if err := rec.Resolve(accession.StatusPerfectMatch, []restored.Asset{{ID: 1, MD5: digest, Path: "/r/a.tif"}}); err != nil {
		t.Fatal(err)
	}
	b.Records = append(b.Records, rec)
	b.Finalize()
	if !deposit.Classify(b).Summary.KnownHashes {
		t.Fatal("every record carries an md5")
	}

	empty := batch.New("EMPTY", nil)
	empty.Finalize()
	if deposit.Classify(empty).Summary.KnownHashes {
		t.Fatal("an empty batch has no known hashes")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestWriterEligibleBatch(t *testing.T) {
	root := t.TempDir()
	w := deposit.NewWriter(root, logging.NewNop())
	p := deposit.Classify(verifiedBatch(t, false))
	if !p.Outcome.Eligible() {
		t.Fatalf("expected eligible batch, got %s", p.Outcome)
	}
	if err := w.Write(p); err != nil {
		t.Fatalf("Write: %v", err)
	}

	manifest, err := os.ReadFile(filepath.Join(w.BatchDir("ACC"), deposit.ManifestName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	want := digest + " /r/a.tif\n" + digest + " /r/b.tif\n"
	if string(manifest) != want {
		t.Fatalf("unexpected manifest:\n%s", manifest)
	}
	deacc, err := os.ReadFile(filepath.Join(w.BatchDir("ACC"), deposit.DeaccessionName))
	if err != nil || strings.Count(string(deacc), "\n") != 2 {
		t.Fatalf("unexpected deaccessions: %q %v", deacc, err)
	}

	accessions := readCSV(t, filepath.Join(w.ReportsDir("ACC"), "accessions.csv"))
	if len(accessions) != 4 || accessions[1][4] != "perfect_match" || accessions[2][5] != "/r/b.tif" {
		t.Fatalf("unexpected accessions report: %v", accessions)
	}
	drift := readCSV(t, filepath.Join(w.ReportsDir("ACC"), "drift.csv"))
	if len(drift) != 2 || drift[1][3] != "/r/x.tif" {
		t.Fatalf("unexpected drift report: %v", drift)
	}
}

func TestWriterWithholdsIncompleteBatch(t *testing.T) {
	root := t.TempDir()
	w := deposit.NewWriter(root, logging.NewNop())
	stale := filepath.Join(w.BatchDir("ACC"), deposit.ManifestName)
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := deposit.Classify(verifiedBatch(t, true))
	if err := w.Write(p); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(w.BatchDir("ACC")); !os.IsNotExist(err) {
		t.Fatalf("incomplete batch must have no deposit files: %v", err)
	}
	missing := readCSV(t, filepath.Join(w.ReportsDir("ACC"), "missing.csv"))
	if len(missing) != 2 || missing[1][2] != "gone.tif" || missing[1][1] != "9" {
		t.Fatalf("unexpected missing report: %v", missing)
	}
}

func TestWriteSummaryMerges(t *testing.T) {
	root := t.TempDir()
	w := deposit.NewWriter(root, logging.NewNop())
	first := deposit.Classify(verifiedBatch(t, false))
	first.Identifier = "ZED"
	if _, err := w.WriteSummary([]*deposit.Package{first}); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	second := deposit.Classify(verifiedBatch(t, true))
	path, err := w.WriteSummary([]*deposit.Package{second})
	if err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}

	summaries, err := deposit.ReadSummary(path)
	if err != nil {
		t.Fatalf("ReadSummary: %v", err)
	}
	if len(summaries) != 2 || summaries["ZED"].Outcome != batch.OutcomeWithDuplicates || summaries["ACC"].Outcome != batch.OutcomeIncomplete {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
	raw, _ := os.ReadFile(path)
	if strings.Index(string(raw), `"ACC"`) > strings.Index(string(raw), `"ZED"`) {
		t.Fatalf("summary keys must be sorted:\n%s", raw)
	}
}
