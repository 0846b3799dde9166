package hashcache

import (
	"path/filepath"
	"strings"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/filter"
	"github.com/bamsammich/fwt/internal/pathutil"
)

const selectEntry = "SELECT id, dir, name, size, timestamp, hash FROM files"

// QueryByHash returns every entry with the given content hash.
func (c *Cache) QueryByHash(hash string) ([]Entry, error) {
	return c.entries(selectEntry+" WHERE hash = ? ORDER BY dir, name", hash)
}

// QueryByName returns every entry with exactly the given base name.
func (c *Cache) QueryByName(name string) ([]Entry, error) {
	return c.entries(selectEntry+" WHERE name = ? ORDER BY dir, name", name)
}

// QueryByPattern returns every entry whose absolute path matches the glob
// pattern. A pattern without a slash matches base names.
func (c *Cache) QueryByPattern(pattern string, icase bool) ([]Entry, error) {
	p, err := filter.Compile(pattern, icase)
	if err != nil {
		return nil, errs.Invalid("pattern %q: %v", pattern, err)
	}
	all, err := c.entries(selectEntry + " ORDER BY dir, name")
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if p.Match(strings.TrimPrefix(filepath.ToSlash(e.Path()), "/"), false) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Directories lists the distinct directories holding cached files. With
// rootsOnly, directories nested under another listed one are dropped.
func (c *Cache) Directories(rootsOnly bool) ([]string, error) {
	rows, err := c.q().Query("SELECT DISTINCT dir FROM files ORDER BY dir")
	if err != nil {
		return nil, errs.Cache("directories", err)
	}
	defer rows.Close()

	var dirs []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, errs.Cache("scan", err)
		}
		dirs = append(dirs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Cache("directories", err)
	}
	if rootsOnly {
		return pathutil.TopLevel(dirs), nil
	}
	return dirs, nil
}

// Summary describes the cache contents.
type Summary struct {
	Files  int64
	Dirs   int64
	Hashes int64
	Bytes  int64
}

// Summary counts files, directories, distinct hashes and total bytes.
func (c *Cache) Summary() (Summary, error) {
	var s Summary
	err := c.q().QueryRow(`SELECT COUNT(*), COUNT(DISTINCT dir), COUNT(DISTINCT hash),
		COALESCE(SUM(size), 0) FROM files`).Scan(&s.Files, &s.Dirs, &s.Hashes, &s.Bytes)
	if err != nil {
		return Summary{}, errs.Cache("summary", err)
	}
	return s, nil
}

func (c *Cache) entries(query string, args ...any) ([]Entry, error) {
	rows, err := c.q().Query(query, args...)
	if err != nil {
		return nil, errs.Cache("query", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Dir, &e.Name, &e.Size, &e.Timestamp, &e.Hash); err != nil {
			return nil, errs.Cache("scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Cache("query", err)
	}
	return out, nil
}
