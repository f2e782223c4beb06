package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"verifier/internal/accession"
	"verifier/internal/batch"
	"verifier/internal/config"
	"verifier/internal/deposit"
	"verifier/internal/logging"
	"verifier/internal/match"
	"verifier/internal/metrics"
	"verifier/internal/restored"
)

// ErrPackageLocked is returned when another run holds the package lock.
var ErrPackageLocked = errors.New("deposit package is locked by another run")

// Options adjust a run.
type Options struct {
	// Batches restricts the run to these identifiers; empty means all.
	Batches []string
	// DryRun matches and reports without touching the package.
	DryRun bool
	// Index overrides the configured restored-file index.
	Index restored.Index
	// Metrics receives run counters; nil disables them.
	Metrics *metrics.Recorder
}

// BatchReport summarizes one verified batch.
type BatchReport struct {
	Identifier  string         `json:"identifier"`
	Outcome     batch.Outcome  `json:"outcome"`
	Listings    int            `json:"listings"`
	Records     int            `json:"records"`
	Statuses    map[string]int `json:"statuses"`
	ExtraCopies int            `json:"extra_copies"`
	Duplicates  int            `json:"duplicates"`
	DriftNotes  int            `json:"drift_notes"`
	KnownHashes bool           `json:"known_hashes"`
	Root        string         `json:"root,omitempty"`
	Fallbacks   int            `json:"fallbacks"`
	Error       string         `json:"error,omitempty"`
}

// Count returns the number of records with status.
func (r BatchReport) Count(status accession.Status) int {
	return r.Statuses[status.String()]
}

// SkippedListing is a listing discovery could not use.
type SkippedListing struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Report is the result of a run.
type Report struct {
	RunID       string           `json:"run_id"`
	DryRun      bool             `json:"dry_run"`
	Started     time.Time        `json:"started"`
	Finished    time.Time        `json:"finished"`
	Batches     []BatchReport    `json:"batches"`
	Skipped     []SkippedListing `json:"skipped,omitempty"`
	SummaryPath string           `json:"summary_path,omitempty"`
}

// Eligible counts batches that passed the deposit gate.
func (r *Report) Eligible() int {
	n := 0
	for _, b := range r.Batches {
		if b.Outcome.Eligible() {
			n++
		}
	}
	return n
}

// Run verifies every batch under cfg.Paths.SourceDir. Problems confined to a
// listing or a batch are recorded on the report; the returned error is
// reserved for failures that stop the whole run.
func Run(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Report, error) {
	report := &Report{RunID: uuid.NewString(), DryRun: opts.DryRun, Started: time.Now()}
	logger = logging.NewComponentLogger(logger, "reconcile").With(logging.String(logging.FieldRunID, report.RunID))

	if !opts.DryRun {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, err
		}
		lock := flock.New(cfg.LockPath())
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire package lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPackageLocked, cfg.LockPath())
		}
		defer func() { _ = lock.Unlock() }()
	}

	index := opts.Index
	if index == nil {
		store, err := restored.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		index = store
	}
	cached, err := restored.NewCachedIndex(index, cfg.Index.CacheSize, opts.Metrics)
	if err != nil {
		return nil, err
	}

	discovery, err := batch.Discover(cfg.Paths.SourceDir, logger)
	if err != nil {
		return nil, err
	}
	for _, problem := range discovery.Problems {
		report.Skipped = append(report.Skipped, SkippedListing{
			Path:  problem.Path,
			Kind:  problem.Kind(),
			Error: problem.Err.Error(),
		})
		opts.Metrics.SkippedListing(problem.Kind())
	}

	groups, err := selectGroups(discovery, opts.Batches)
	if err != nil {
		return nil, err
	}

	matcher := match.New(cached, match.OptionsFromConfig(cfg), logger)
	writer := deposit.NewWriter(cfg.Paths.OutputDir, logger)
	packages := make([]*deposit.Package, 0, len(groups))
	for _, group := range groups {
		pkg, entry, err := verifyBatch(ctx, matcher, group, logger)
		if err != nil {
			return nil, err
		}
		if !opts.DryRun {
			if err := writer.Write(pkg); err != nil {
				return nil, err
			}
		}
		packages = append(packages, pkg)
		report.Batches = append(report.Batches, entry)

		for status, n := range entry.Statuses {
			opts.Metrics.Records(status, n)
		}
		opts.Metrics.Batch(entry.Outcome.String())
		opts.Metrics.DriftNotes(entry.DriftNotes)
	}

	if !opts.DryRun {
		path, err := writer.WriteSummary(packages)
		if err != nil {
			return nil, err
		}
		report.SummaryPath = path
	}

	report.Finished = time.Now()
	opts.Metrics.Finished()
	if !opts.DryRun {
		if err := opts.Metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.Error(err),
				logging.String(logging.FieldPath, cfg.Metrics.Textfile),
				logging.String(logging.FieldImpact, "run counters are not exported"),
			)
		}
	}
	logger.Info("verification run finished",
		logging.Int("batches", len(report.Batches)),
		logging.Int("eligible", report.Eligible()),
		logging.Int("skipped_listings", len(report.Skipped)),
		logging.Duration("elapsed", report.Finished.Sub(report.Started)),
	)
	return report, nil
}

func selectGroups(d *batch.Discovery, names []string) ([]batch.Group, error) {
	if len(names) == 0 {
		return d.Groups, nil
	}
	var (
		groups  []batch.Group
		missing []string
	)
	for _, name := range names {
		group, ok := d.Group(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if !slices.ContainsFunc(groups, func(g batch.Group) bool { return g.Identifier == name }) {
			groups = append(groups, group)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no listings found for batch %v", missing)
	}
	return groups, nil
}

// verifyBatch matches, resolves, and finalizes one group. An index failure
// leaves the batch Incomplete and is recorded on the entry; only
// cancellation is returned.
func verifyBatch(ctx context.Context, matcher *match.Matcher, group batch.Group, logger *slog.Logger) (*deposit.Package, BatchReport, error) {
	logger = logging.WithBatch(logger, group.Identifier)
	b := batch.New(group.Identifier, group.Files)
	entry := BatchReport{Identifier: b.Identifier, Listings: len(b.Files), Records: len(b.Records)}

	summary, err := matcher.MatchBatch(ctx, b)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, entry, ctxErr
		}
		entry.Error = err.Error()
		logging.ErrorWithContext(logger, "batch matching aborted", "batch_match_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the restored-file index connection"),
			logging.String(logging.FieldImpact, "batch withheld from deposit"),
		)
	}
	if err == nil {
		resolution, err := match.Resolve(b)
		if err != nil {
			return nil, entry, fmt.Errorf("resolve duplicates for %s: %w", b.Identifier, err)
		}
		entry.Root = resolution.Root
		entry.Fallbacks = resolution.Fallbacks
	}

	entry.Outcome = b.Finalize()
	pkg := deposit.Classify(b)
	entry.Statuses = pkg.Summary.Statuses
	entry.ExtraCopies = pkg.Summary.ExtraCopies
	entry.Duplicates = pkg.Summary.Duplicates
	entry.DriftNotes = summary.DriftNotes
	entry.KnownHashes = pkg.Summary.KnownHashes

	logger.Info("batch verified",
		logging.String(logging.FieldOutcome, entry.Outcome.String()),
		logging.Int("records", entry.Records),
		logging.Int("perfect", entry.Count(accession.StatusPerfectMatch)),
		logging.Int("duplicates", entry.Count(accession.StatusWithDuplicates)),
		logging.Int("missing", entry.Count(accession.StatusNotFound)),
		logging.Int("deaccessioned", entry.Count(accession.StatusDeaccession)),
		logging.Int("drift_notes", entry.DriftNotes),
	)
	return pkg, entry, nil
}
