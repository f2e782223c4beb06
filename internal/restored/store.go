package restored

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"verifier/internal/config"
)

// Store is the relational restored-file index.
type Store struct {
	db     *sql.DB
	driver string
	source string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open connects to the index configured in cfg.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Index.Driver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.Index.DSN)
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Index.Path)
	default:
		return nil, fmt.Errorf("index.driver: unsupported value %q", cfg.Index.Driver)
	}
}

// OpenSQLite opens (creating if needed) the index database at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	return finishOpen(ctx, db, config.DriverSQLite, path)
}

// OpenPostgres connects to a PostgreSQL index through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	return finishOpen(ctx, db, config.DriverPostgres, redactDSN(dsn))
}

func finishOpen(ctx context.Context, db *sql.DB, driver, source string) (*Store, error) {
	store := &Store{db: db, driver: driver, source: source}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Driver reports the backing driver name.
func (s *Store) Driver() string { return s.driver }

// Source is the database file path, or the DSN without credentials.
func (s *Store) Source() string { return s.source }

const selectAssetColumns = "SELECT id, uuid, bytes, md5, filename, path FROM files"

// Lookup implements Index.
func (s *Store) Lookup(ctx context.Context, key Key) ([]Asset, error) {
	var (
		query string
		args  []any
	)
	switch key.Shape {
	case ShapeFull:
		query = selectAssetColumns + " WHERE filename = ? AND md5 = ? AND bytes = ? ORDER BY id"
		args = []any{key.Filename, strings.ToLower(key.MD5), key.Bytes}
	case ShapeNameBytes:
		query = selectAssetColumns + " WHERE filename = ? AND bytes = ? ORDER BY id"
		args = []any{key.Filename, key.Bytes}
	case ShapeName:
		query = selectAssetColumns + " WHERE filename = ? ORDER BY id"
		args = []any{key.Filename}
	default:
		return nil, fmt.Errorf("lookup: unsupported key shape %d", key.Shape)
	}

	var assets []Asset
	err := retryOnBusy(ctx, func() error {
		assets = assets[:0]
		rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			asset, err := scanAsset(rows)
			if err != nil {
				return err
			}
			assets = append(assets, asset)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", key.Shape, err)
	}
	return assets, nil
}

func scanAsset(scanner interface{ Scan(dest ...any) error }) (Asset, error) {
	var (
		asset Asset
		bytes sql.NullInt64
		md5   sql.NullString
	)
	if err := scanner.Scan(&asset.ID, &asset.UUID, &bytes, &md5, &asset.Filename, &asset.Path); err != nil {
		return Asset{}, err
	}
	asset.Bytes = bytes.Int64
	asset.MD5 = md5.String
	return asset, nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	return dsn[:scheme+3] + "***" + dsn[at:]
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
