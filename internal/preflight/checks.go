package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"verifier/internal/config"
	"verifier/internal/restored"
)

const indexTimeout = 10 * time.Second

// CheckReadable verifies that path is a directory the process can list.
func CheckReadable(name, path string) Result {
	return checkDir(name, path, unix.R_OK|unix.X_OK)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDir(name, path, unix.R_OK|unix.W_OK|unix.X_OK)
}

func checkDir(name, path string, mode uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckIndex opens the configured restored index and reads its row counts.
// An SQLite index that has not been created yet fails rather than being
// created as a side effect.
func CheckIndex(ctx context.Context, cfg *config.Config) Result {
	const name = "Restored index"
	if cfg.Index.Driver == config.DriverSQLite {
		if _, err := os.Stat(cfg.Index.Path); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not loaded yet)", cfg.Index.Path)}
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	store, err := restored.Open(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("open failed (%v)", err)}
	}
	defer store.Close()

	stats, err := store.Stats(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("query failed (%v)", err)}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s, %s files", store.Driver(), humanize.Comma(stats.Files)),
	}
}
