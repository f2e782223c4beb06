package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"verifier/internal/config"
	"verifier/internal/restored"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the restored-file index",
	}

	indexCmd.AddCommand(newIndexLoadCommand(ctx))
	indexCmd.AddCommand(newIndexStatsCommand(ctx))
	indexCmd.AddCommand(newIndexLookupCommand(ctx))

	return indexCmd
}

func newIndexLoadCommand(ctx *commandContext) *cobra.Command {
	var opts restored.LoadOptions
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "load <dir-or-listing>",
		Short: "Import restored-file listings (md5,path,filename,bytes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(target)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", target, err)
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			var results []restored.ListingResult
			err = ctx.withIndex(cmd.Context(), func(store *restored.Store) error {
				if info.IsDir() {
					results, err = store.LoadDir(cmd.Context(), target, opts, logger)
					return err
				}
				result, err := store.Load(cmd.Context(), target, opts)
				if err != nil {
					return err
				}
				results = append(results, result)
				return nil
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, results)
			}
			return printLoadResults(cmd, results)
		},
	}

	cmd.Flags().StringVarP(&opts.Share, "share", "s", "", "Restored share the listings describe")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "Listing filename prefix stripped from the batch label")
	cmd.Flags().StringVar(&opts.Suffix, "suffix", "", "Listing filename suffix stripped from the batch label")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output load results as JSON")
	return cmd
}

func printLoadResults(cmd *cobra.Command, results []restored.ListingResult) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	var failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintln(out, renderStatusLine(r.Batch, statusError, r.Err.Error(), colorize))
		case r.AlreadyLoaded:
			fmt.Fprintln(out, renderStatusLine(r.Batch, statusInfo, "already loaded", colorize))
		case r.Skipped > 0:
			fmt.Fprintln(out, renderStatusLine(r.Batch, statusWarn, fmt.Sprintf("%d rows, %d skipped", r.Rows, r.Skipped), colorize))
		default:
			fmt.Fprintln(out, renderStatusLine(r.Batch, statusOK, fmt.Sprintf("%d rows", r.Rows), colorize))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d listings failed to load", failed, len(results))
	}
	if len(results) == 0 {
		return errors.New("no restored listings found")
	}
	return nil
}

func newIndexStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the restored-file index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withIndex(cmd.Context(), func(store *restored.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Restored-file index", colorize) {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintln(out, renderStatusLine("Backend", statusInfo, store.Driver()+" "+store.Source(), colorize))
				fmt.Fprintln(out, renderStatusLine("Listings", statusInfo, humanize.Comma(stats.Listings), colorize))
				fmt.Fprintln(out, renderStatusLine("Files", statusInfo, humanize.Comma(stats.Files), colorize))
				fmt.Fprintln(out, renderStatusLine("Distinct filenames", statusInfo, humanize.Comma(stats.DistinctNames), colorize))
				fmt.Fprintln(out, renderStatusLine("Total size", statusInfo, humanize.IBytes(uint64(max(stats.TotalBytes, 0))), colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output stats as JSON")
	return cmd
}

func newIndexLookupCommand(ctx *commandContext) *cobra.Command {
	var md5 string
	var size int64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "lookup <filename>",
		Short: "Query the index with the same key shapes the matcher uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := restored.NameKey(args[0])
			switch {
			case cmd.Flags().Changed("bytes") && md5 != "":
				key = restored.FullKey(args[0], size, md5)
			case cmd.Flags().Changed("bytes"):
				key = restored.NameBytesKey(args[0], size)
			case md5 != "":
				return errors.New("--md5 requires --bytes")
			}

			return ctx.withIndex(cmd.Context(), func(store *restored.Store) error {
				assets, err := store.Lookup(cmd.Context(), key)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, assets)
				}
				out := cmd.OutOrStdout()
				if len(assets) == 0 {
					fmt.Fprintf(out, "No restored files match %s (%s)\n", key, key.Shape)
					return nil
				}
				rows := make([][]string, 0, len(assets))
				for _, a := range assets {
					rows = append(rows, []string{strconv.FormatInt(a.ID, 10), a.MD5, strconv.FormatInt(a.Bytes, 10), a.Path})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "MD5", "Bytes", "Path"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
					nil,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&md5, "md5", "", "Restrict to this md5 (requires --bytes)")
	cmd.Flags().Int64Var(&size, "bytes", 0, "Restrict to this size in bytes")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output matches as JSON")
	return cmd
}
