package restored

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"verifier/internal/fileutil"
	"verifier/internal/logging"
)

// LoadOptions describes the share a batch of restored-file listings came from.
// When a listing filename carries both Prefix and Suffix, the text between
// them becomes the listing's batch label; otherwise the filename stem is used.
type LoadOptions struct {
	Share  string
	Prefix string
	Suffix string
}

// ListingResult reports the outcome of importing one restored-file listing.
type ListingResult struct {
	Path          string `json:"path"`
	MD5           string `json:"md5"`
	ListingID     int64  `json:"listing_id,omitempty"`
	Batch         string `json:"batch"`
	Rows          int    `json:"rows"`
	Skipped       int    `json:"skipped"`
	AlreadyLoaded bool   `json:"already_loaded"`
	Err           error  `json:"-"`
}

// restoredRow is one md5,path,filename,bytes line.
type restoredRow struct {
	line     int
	md5      string
	path     string
	filename string
	bytes    int64
}

// Load imports one restored-file listing. A listing whose digest is already in
// the index is not imported twice.
func (s *Store) Load(ctx context.Context, path string, opts LoadOptions) (ListingResult, error) {
	result := ListingResult{Path: path, Batch: batchLabel(filepath.Base(path), opts)}

	digest, err := fileutil.MD5File(path)
	if err != nil {
		return result, fmt.Errorf("checksum listing: %w", err)
	}
	result.MD5 = digest

	var existing int64
	err = s.db.QueryRowContext(ctx, s.rebind("SELECT id FROM dirlists WHERE md5 = ?"), digest).Scan(&existing)
	switch {
	case err == nil:
		result.ListingID = existing
		result.AlreadyLoaded = true
		return result, nil
	case !errors.Is(err, sql.ErrNoRows):
		return result, fmt.Errorf("check listing %s: %w", filepath.Base(path), err)
	}

	rows, skipped, err := readRestoredRows(path)
	if err != nil {
		return result, err
	}
	result.Skipped = skipped

	err = retryOnBusy(ctx, func() error {
		id, insertErr := s.insertListing(ctx, filepath.Base(path), digest, opts.Share, result.Batch, rows)
		result.ListingID = id
		return insertErr
	})
	if err != nil {
		return result, fmt.Errorf("insert listing %s: %w", filepath.Base(path), err)
	}
	result.Rows = len(rows)
	return result, nil
}

func (s *Store) insertListing(ctx context.Context, filename, digest, share, batch string, rows []restoredRow) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var listingID int64
	err = tx.QueryRowContext(ctx,
		s.rebind("INSERT INTO dirlists (md5, filename, share, batch, loaded_at) VALUES (?, ?, ?, ?, ?) RETURNING id"),
		digest, filename, nullableString(share), nullableString(batch), time.Now().UTC().Format(time.RFC3339Nano),
	).Scan(&listingID)
	if err != nil {
		return 0, fmt.Errorf("insert dirlist: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		"INSERT INTO files (uuid, bytes, md5, filename, path, sourcefile, sourceline) VALUES (?, ?, ?, ?, ?, ?, ?)",
	))
	if err != nil {
		return 0, fmt.Errorf("prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), row.bytes, nullableString(row.md5), row.filename, row.path, listingID, row.line); err != nil {
			return 0, fmt.Errorf("insert file at line %d: %w", row.line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return listingID, nil
}

func readRestoredRows(path string) ([]restoredRow, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open listing: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows    []restoredRow
		skipped int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("read listing: %w", err)
		}
		line, _ := reader.FieldPos(0)
		row, ok := parseRestoredRow(record, line)
		if !ok {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped, nil
}

func parseRestoredRow(record []string, line int) (restoredRow, bool) {
	if len(record) != 4 {
		return restoredRow{}, false
	}
	md5 := strings.ToLower(strings.TrimSpace(record[0]))
	path := strings.TrimSpace(record[1])
	filename := strings.TrimSpace(record[2])
	size, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil || path == "" {
		return restoredRow{}, false
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	return restoredRow{line: line, md5: md5, path: path, filename: filename, bytes: size}, true
}

func batchLabel(filename string, opts LoadOptions) string {
	if opts.Prefix != "" && opts.Suffix != "" &&
		strings.HasPrefix(filename, opts.Prefix) && strings.HasSuffix(filename, opts.Suffix) &&
		len(filename) > len(opts.Prefix)+len(opts.Suffix) {
		return filename[len(opts.Prefix) : len(filename)-len(opts.Suffix)]
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// LoadDir imports every non-hidden regular file in dir, in filename order.
// Per-listing failures are recorded on the result and logged; only a failure
// to read dir itself is returned.
func (s *Store) LoadDir(ctx context.Context, dir string, opts LoadOptions, logger *slog.Logger) ([]ListingResult, error) {
	logger = logging.NewComponentLogger(logger, "index")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read restored listings: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var results []ListingResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		result, err := s.Load(ctx, path, opts)
		if err != nil {
			result.Err = err
			logging.WarnWithContext(logger, "restored listing not loaded", "index_load_failed",
				logging.String(logging.FieldListing, entry.Name()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "files from this listing cannot be matched"),
			)
		} else {
			logger.Info("restored listing loaded",
				logging.String(logging.FieldListing, entry.Name()),
				logging.Int("rows", result.Rows),
				logging.Int("skipped", result.Skipped),
				logging.Bool("already_loaded", result.AlreadyLoaded),
			)
		}
		results = append(results, result)
	}
	return results, nil
}

// Stats summarizes the index contents.
type Stats struct {
	Listings      int64 `json:"listings"`
	Files         int64 `json:"files"`
	DistinctNames int64 `json:"distinct_filenames"`
	TotalBytes    int64 `json:"total_bytes"`
}

// Stats counts listings, files, distinct filenames, and bytes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM dirlists").Scan(&stats.Listings); err != nil {
		return Stats{}, fmt.Errorf("count listings: %w", err)
	}
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COUNT(DISTINCT filename), COALESCE(SUM(bytes), 0) FROM files",
	).Scan(&stats.Files, &stats.DistinctNames, &stats.TotalBytes)
	if err != nil {
		return Stats{}, fmt.Errorf("count files: %w", err)
	}
	return stats, nil
}
