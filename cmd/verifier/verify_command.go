package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"verifier/internal/accession"
	"verifier/internal/metrics"
	"verifier/internal/reconcile"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var batches []string
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Match accession listings against the restored-file index and build the deposit package",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			opts := reconcile.Options{Batches: batches, DryRun: dryRun}
			if cfg.Metrics.Textfile != "" {
				opts.Metrics = metrics.New()
			}
			report, err := reconcile.Run(cmd.Context(), cfg, opts, logger)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			printVerifyReport(cmd, report)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&batches, "batch", "b", nil, "Only verify these batch identifiers (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Match and report without writing the deposit package")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run report as JSON")
	return cmd
}

func printVerifyReport(cmd *cobra.Command, report *reconcile.Report) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	headers := []string{"Batch", "Listings", "Records", "Perfect", "Found", "Dups", "Missing", "Deacc", "Drift", "Outcome"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(report.Batches))
	totals := make([]int, 8)
	for _, b := range report.Batches {
		values := []int{
			b.Listings,
			b.Records,
			b.Count(accession.StatusPerfectMatch),
			b.Count(accession.StatusFound),
			b.Count(accession.StatusWithDuplicates),
			b.Count(accession.StatusNotFound) + b.Count(accession.StatusUnresolved),
			b.Count(accession.StatusDeaccession),
			b.DriftNotes,
		}
		row := []string{b.Identifier}
		for i, v := range values {
			totals[i] += v
			row = append(row, strconv.Itoa(v))
		}
		rows = append(rows, append(row, renderOutcome(b.Outcome, colorize)))
	}
	footer := []string{"Total"}
	for _, v := range totals {
		footer = append(footer, strconv.Itoa(v))
	}
	footer = append(footer, fmt.Sprintf("%d/%d eligible", report.Eligible(), len(report.Batches)))

	for _, line := range renderSectionHeader("Verification run "+report.RunID, colorize) {
		fmt.Fprintln(out, line)
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No batches found")
	} else {
		fmt.Fprintln(out, renderTable(headers, rows, aligns, footer))
	}

	for _, b := range report.Batches {
		if b.Error != "" {
			fmt.Fprintln(out, renderStatusLine(b.Identifier, statusError, b.Error, colorize))
		}
	}
	for _, skipped := range report.Skipped {
		fmt.Fprintln(out, renderStatusLine(filepath.Base(skipped.Path), statusWarn, skipped.Kind+": "+skipped.Error, colorize))
	}
	switch {
	case report.DryRun:
		fmt.Fprintln(out, renderStatusLine("Package", statusInfo, "dry run, nothing written", colorize))
	case report.SummaryPath != "":
		fmt.Fprintln(out, renderStatusLine("Package", statusOK, filepath.Dir(report.SummaryPath), colorize))
	}
}

// writeJSON prints v as indented JSON. Restored paths and filenames are
// written as-is, without HTML escaping of &, < and >.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
