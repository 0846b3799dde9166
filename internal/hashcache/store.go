package hashcache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/bamsammich/fwt/internal/errs"
)

// DefaultFileName is the cache file name used in the home directory, or
// inside a directory passed as the cache location.
const DefaultFileName = ".fwt.db"

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	dir       TEXT NOT NULL,
	name      TEXT NOT NULL,
	size      INTEGER NOT NULL,
	timestamp INTEGER NOT NULL,
	hash      TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS files_dir_name ON files (dir, name);
CREATE INDEX IF NOT EXISTS files_name ON files (name);
CREATE INDEX IF NOT EXISTS files_hash ON files (hash);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// querier is satisfied by both *sql.DB and *sql.Tx so every statement runs
// inside the open batch when there is one.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// DefaultPath returns ~/.fwt.db, or .fwt.db in the working directory when
// the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(home, DefaultFileName)
}

// ResolvePath turns a user-supplied cache location into a file path. An
// empty value selects DefaultPath, a leading "~/" expands to the home
// directory, and an existing directory gets DefaultFileName appended.
func ResolvePath(p string) string {
	if p == "" {
		return DefaultPath()
	}
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, rest)
		}
	}
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return filepath.Join(p, DefaultFileName)
	}
	return p
}

// Reset deletes the cache file at path together with its journal files.
// A missing file is not an error.
func Reset(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errs.IO("remove", p, err)
		}
	}
	return nil
}

func openDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errs.IO("mkdir", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Cache("open "+path, err)
	}

	// One connection: pragmas stick, and the batch transaction never
	// competes with a second writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errs.Cache(pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Cache("create schema", err)
	}
	return db, nil
}

// checkAlgorithm records the digest algorithm in a fresh cache and refuses
// a cache whose rows were produced by a different one.
func checkAlgorithm(q querier, schemaName string) error {
	var algo string
	err := q.QueryRow(fmt.Sprintf("SELECT value FROM %s.meta WHERE key = 'hash_algorithm'", schemaName)).Scan(&algo)
	switch {
	case err == nil:
		if algo != Algorithm {
			return errs.Cache("check algorithm",
				fmt.Errorf("cache uses %s hashes, want %s", algo, Algorithm))
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return errs.Cache("read meta", err)
	}

	var n int64
	if err := q.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s.files", schemaName)).Scan(&n); err != nil {
		return errs.Cache("count files", err)
	}
	if n > 0 {
		return errs.Cache("check algorithm",
			fmt.Errorf("cache has %d entries of unknown hash algorithm", n))
	}
	if schemaName != "main" {
		return nil
	}
	if _, err := q.Exec("INSERT INTO meta (key, value) VALUES ('hash_algorithm', ?)", Algorithm); err != nil {
		return errs.Cache("write meta", err)
	}
	return nil
}
