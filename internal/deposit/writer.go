package deposit

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"verifier/internal/fileutil"
	"verifier/internal/logging"
)

// Package layout under the output root.
const (
	ReportsDirName  = "reports"
	BatchesDirName  = "batches"
	SummaryFileName = "summary.json"
	ManifestName    = "manifest.txt"
	DeaccessionName = "deaccessions.txt"
)

// Writer serializes packages under Root.
type Writer struct {
	Root   string
	logger *slog.Logger
}

// NewWriter returns a writer rooted at root.
func NewWriter(root string, logger *slog.Logger) *Writer {
	return &Writer{Root: root, logger: logging.NewComponentLogger(logger, "deposit")}
}

// ReportsDir is where the reports of batch id are written.
func (w *Writer) ReportsDir(id string) string {
	return filepath.Join(w.Root, ReportsDirName, id)
}

// BatchDir is where the deposit files of batch id are written.
func (w *Writer) BatchDir(id string) string {
	return filepath.Join(w.Root, BatchesDirName, id)
}

// Write emits the reports for p and, when the batch is eligible, its manifest
// and deaccession list. An ineligible batch has any deposit files from an
// earlier run removed.
func (w *Writer) Write(p *Package) error {
	logger := logging.WithBatch(w.logger, p.Identifier)
	reports := w.ReportsDir(p.Identifier)
	for _, report := range []struct {
		name string
		fill func(io.Writer) error
	}{
		{"accessions.csv", p.writeAccessions},
		{"deaccessions.csv", p.writeDeaccessionsCSV},
		{"missing.csv", p.writeMissing},
		{"drift.csv", p.writeDrift},
		{"duplicates.csv", p.writeDuplicates},
	} {
		if err := fileutil.WriteFileAtomic(filepath.Join(reports, report.name), 0o644, report.fill); err != nil {
			return fmt.Errorf("write report %s for %s: %w", report.name, p.Identifier, err)
		}
	}

	dir := w.BatchDir(p.Identifier)
	if !p.Outcome.Eligible() {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove stale deposit for %s: %w", p.Identifier, err)
		}
		logger.Info("batch withheld from deposit",
			logging.String(logging.FieldOutcome, p.Outcome.String()),
			logging.Int("missing", len(p.Missing)),
			logging.String(logging.FieldPath, reports),
		)
		return nil
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, ManifestName), 0o644, p.writeManifest); err != nil {
		return fmt.Errorf("write manifest for %s: %w", p.Identifier, err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, DeaccessionName), 0o644, p.writeDeaccessionsText); err != nil {
		return fmt.Errorf("write deaccessions for %s: %w", p.Identifier, err)
	}
	logger.Info("batch packaged",
		logging.String(logging.FieldOutcome, p.Outcome.String()),
		logging.Int("manifest_entries", len(p.Manifest)),
		logging.Int("deaccessions", len(p.Deaccessions)),
		logging.String(logging.FieldPath, dir),
	)
	return nil
}

// WriteSummary merges the summaries of pkgs into summary.json, keeping
// entries for batches not part of this run.
func (w *Writer) WriteSummary(pkgs []*Package) (string, error) {
	path := filepath.Join(w.Root, SummaryFileName)
	merged, err := ReadSummary(path)
	if err != nil {
		return "", err
	}
	for _, p := range pkgs {
		merged[p.Identifier] = p.Summary
	}
	err = fileutil.WriteFileAtomic(path, 0o644, func(out io.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "    ")
		return enc.Encode(merged)
	})
	if err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}

// ReadSummary loads summary.json; a missing file is an empty summary.
func ReadSummary(path string) (map[string]Summary, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Summary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	summaries := map[string]Summary{}
	if err := json.Unmarshal(data, &summaries); err != nil {
		return nil, fmt.Errorf("parse summary %s: %w", path, err)
	}
	return summaries, nil
}

func writeCSV(out io.Writer, header []string, rows [][]string) error {
	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func formatBytes(b *int64) string {
	if b == nil {
		return ""
	}
	return strconv.FormatInt(*b, 10)
}

func formatTime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Format(time.RFC3339)
}

func (p *Package) writeAccessions(out io.Writer) error {
	rows := make([][]string, 0, len(p.Records))
	for _, rec := range p.Records {
		rows = append(rows, []string{
			rec.MD5, rec.Filename, formatBytes(rec.Bytes), formatTime(rec.Timestamp),
			rec.Status().String(), rec.RestoredPath(), rec.SourceFile, strconv.Itoa(rec.SourceLine),
		})
	}
	return writeCSV(out, []string{"md5", "filename", "bytes", "timestamp", "status", "restored_path", "source_file", "source_line"}, rows)
}

func (p *Package) writeDeaccessionsCSV(out io.Writer) error {
	rows := make([][]string, 0, len(p.Deaccessions))
	for _, d := range p.Deaccessions {
		rows = append(rows, []string{d.Reason, d.Key, d.Path})
	}
	return writeCSV(out, []string{"reason", "key", "path"}, rows)
}

func (p *Package) writeMissing(out io.Writer) error {
	rows := make([][]string, 0, len(p.Missing))
	for _, m := range p.Missing {
		rows = append(rows, []string{m.MD5, formatBytes(m.Bytes), m.Filename})
	}
	return writeCSV(out, []string{"md5", "bytes", "filename"}, rows)
}

func (p *Package) writeDrift(out io.Writer) error {
	rows := make([][]string, 0, len(p.Drift))
	for _, n := range p.Drift {
		rows = append(rows, []string{n.Filename, n.OriginalMD5, n.RecoveredMD5, n.RecoveredPath})
	}
	return writeCSV(out, []string{"filename", "original_md5", "recovered_md5", "recovered_path"}, rows)
}

func (p *Package) writeDuplicates(out io.Writer) error {
	var rows [][]string
	for _, d := range p.Duplicates {
		for _, loc := range d.Locations {
			rows = append(rows, []string{d.Key.String(), loc.SourceFile, strconv.Itoa(loc.SourceLine)})
		}
	}
	return writeCSV(out, []string{"key", "source_file", "source_line"}, rows)
}

func (p *Package) writeManifest(out io.Writer) error {
	w := bufio.NewWriter(out)
	for _, e := range p.Manifest {
		if _, err := fmt.Fprintf(w, "%s %s\n", e.MD5, e.Path); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (p *Package) writeDeaccessionsText(out io.Writer) error {
	w := bufio.NewWriter(out)
	for _, d := range p.Deaccessions {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", d.Reason, d.Key, d.Path); err != nil {
			return err
		}
	}
	return w.Flush()
}
