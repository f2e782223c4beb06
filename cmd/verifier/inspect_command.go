package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"verifier/internal/accession"
	"verifier/internal/config"
	"verifier/internal/listing"
)

type inspectRecord struct {
	Filename  string     `json:"filename"`
	Bytes     *int64     `json:"bytes,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	MD5       string     `json:"md5,omitempty"`
	Line      int        `json:"line"`
}

type inspectResult struct {
	Path     string          `json:"path"`
	MD5      string          `json:"md5"`
	Encoding string          `json:"encoding"`
	Dialect  listing.Dialect `json:"dialect"`
	Stats    listing.Stats   `json:"stats"`
	Records  []inspectRecord `json:"records"`
}

func newInspectCommand() *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:         "inspect <listing>...",
		Short:       "Show how listings are decoded and parsed",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]inspectResult, 0, len(args))
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				f, err := listing.Load(path)
				if err != nil {
					return err
				}
				results = append(results, newInspectResult(f))
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}
			printInspectResults(cmd, results, limit)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output parsed listings as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Records to show per listing (0 for all)")
	return cmd
}

func newInspectResult(f *listing.File) inspectResult {
	parsed := f.Parse()
	res := inspectResult{
		Path:     f.Path,
		MD5:      f.MD5,
		Encoding: f.Encoding,
		Dialect:  f.Dialect,
		Stats:    parsed.Stats,
		Records:  make([]inspectRecord, 0, len(parsed.Records)),
	}
	for _, rec := range parsed.Records {
		res.Records = append(res.Records, toInspectRecord(rec))
	}
	return res
}

func toInspectRecord(rec *accession.Record) inspectRecord {
	return inspectRecord{
		Filename:  rec.Filename,
		Bytes:     rec.Bytes,
		Timestamp: rec.Timestamp,
		MD5:       rec.MD5,
		Line:      rec.SourceLine,
	}
}

func printInspectResults(cmd *cobra.Command, results []inspectResult, limit int) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		for _, line := range renderSectionHeader(res.Path, colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, renderStatusLine("MD5", statusInfo, res.MD5, colorize))
		fmt.Fprintln(out, renderStatusLine("Encoding", statusInfo, res.Encoding, colorize))
		fmt.Fprintln(out, renderStatusLine("Dialect", statusInfo, res.Dialect.String(), colorize))
		stats := res.Stats
		fmt.Fprintln(out, renderStatusLine("Lines", statusInfo, fmt.Sprintf(
			"%d total, %d blank, %d records, %d directories, %d skipped",
			stats.Lines, stats.Blank, stats.Records, stats.Directories, stats.Skipped), colorize))

		records := res.Records
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
		if len(records) == 0 {
			continue
		}
		rows := make([][]string, 0, len(records))
		for _, rec := range records {
			rows = append(rows, []string{
				strconv.Itoa(rec.Line),
				rec.Filename,
				formatOptionalBytes(rec.Bytes),
				formatOptionalTime(rec.Timestamp),
				dashIfEmpty(rec.MD5),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Line", "Filename", "Bytes", "Modified", "MD5"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			nil,
		))
		if len(records) < len(res.Records) {
			fmt.Fprintf(out, "%s… %d more records\n", statusIndent, len(res.Records)-len(records))
		}
	}
}

func formatOptionalBytes(b *int64) string {
	if b == nil {
		return "-"
	}
	return strconv.FormatInt(*b, 10)
}

func formatOptionalTime(ts *time.Time) string {
	if ts == nil {
		return "-"
	}
	return ts.Format("2006-01-02 15:04:05")
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
