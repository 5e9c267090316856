package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/blairham/hookrun/pkg/logging"
)

// DBFileName is the index of cloned repositories inside the cache directory
const DBFileName = "db.db"

const repoDirPrefix = "repo"

var log = logging.NewLogger("cache")

// Store maps (repo URL, rev) pairs to clone directories under the cache dir
type Store struct {
	db  *sql.DB
	dir string
}

// DefaultDir resolves the cache directory from HOOKRUN_HOME, then
// XDG_CACHE_HOME, then ~/.cache
func DefaultDir() (string, error) {
	if home := os.Getenv("HOOKRUN_HOME"); home != "" {
		return home, nil
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "hookrun"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "hookrun"), nil
}

// Open creates the cache directory if needed and opens its index
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := initDatabase(db); err != nil {
		_ = db.Close() //nolint:errcheck // init error is more important
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Store{db: db, dir: dir}, nil
}

// Dir returns the cache directory
func (s *Store) Dir() string {
	return s.dir
}

// Lock returns a lock on the whole cache
func (s *Store) Lock() *FileLock {
	return NewFileLock(s.dir)
}

// Lookup returns the clone directory recorded for url at rev. Rows whose
// directory has disappeared are dropped and reported as missing.
func (s *Store) Lookup(ctx context.Context, url, rev string) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		"SELECT path FROM repos WHERE repo = ? AND ref = ?", url, rev,
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	if _, statErr := os.Stat(filepath.Join(path, ".git")); statErr == nil {
		return path, true, nil
	}

	log.WithField("repo", url).Debugf("dropping stale cache entry %s", path)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM repos WHERE repo = ? AND ref = ?", url, rev); err != nil {
		return "", false, fmt.Errorf("failed to remove stale entry: %w", err)
	}
	return "", false, nil
}

// Record stores the clone directory for url at rev
func (s *Store) Record(ctx context.Context, url, rev, path string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO repos (repo, ref, path) VALUES (?, ?, ?)", url, rev, path,
	)
	if err != nil {
		return fmt.Errorf("failed to record %s@%s: %w", url, rev, err)
	}
	return nil
}

// NewRepoDir reserves a fresh, empty directory for a clone
func (s *Store) NewRepoDir() (string, error) {
	dir, err := os.MkdirTemp(s.dir, repoDirPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to create repository directory: %w", err)
	}
	return dir, nil
}

// Clean removes every clone and empties the index
func (s *Store) Clean(ctx context.Context) error {
	return s.Lock().WithLock(ctx, func() error {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			return fmt.Errorf("failed to read cache directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() && strings.HasPrefix(entry.Name(), repoDirPrefix) {
				if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
					return fmt.Errorf("failed to remove repository cache %s: %w", entry.Name(), err)
				}
			}
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM repos"); err != nil {
			return fmt.Errorf("failed to clear cache index: %w", err)
		}
		return nil
	})
}

// Close closes the index
func (s *Store) Close() error {
	return s.db.Close()
}

func initDatabase(db *sql.DB) error {
	const createRepos = `
	CREATE TABLE IF NOT EXISTS repos (
		repo TEXT,
		ref TEXT,
		path TEXT,
		PRIMARY KEY (repo, ref)
	);`

	if _, err := db.ExecContext(context.Background(), createRepos); err != nil {
		return fmt.Errorf("failed to create repos table: %w", err)
	}
	return nil
}
