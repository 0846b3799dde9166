package hashcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/pathutil"
)

type rowRef struct {
	id   int64
	dir  string
	name string
}

// Purge deletes every entry whose file no longer exists as a regular file.
// Entries whose stat fails for another reason are kept.
func (c *Cache) Purge() (int, error) {
	var removed int
	err := c.inTx(func(q querier) error {
		refs, err := selectRefs(q, "SELECT id, dir, name FROM files")
		if err != nil {
			return err
		}
		for _, r := range refs {
			info, err := os.Stat(filepath.Join(r.dir, r.name))
			switch {
			case err == nil && info.Mode().IsRegular():
				continue
			case err != nil && !errors.Is(err, fs.ErrNotExist):
				continue
			}
			if _, err := q.Exec("DELETE FROM files WHERE id = ?", r.id); err != nil {
				return errs.Cache("purge", err)
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.stats.AddPurged(int64(removed))
	return removed, nil
}

// Remap rewrites the directory of every entry under from (inclusive) so it
// lies under to instead. Entries already present at the destination are
// replaced.
func (c *Cache) Remap(from, to string) (int, error) {
	from, err := pathutil.Abs(from)
	if err != nil {
		return 0, errs.IO("resolve", from, err)
	}
	to, err = pathutil.Abs(to)
	if err != nil {
		return 0, errs.IO("resolve", to, err)
	}

	var moved int
	err = c.inTx(func(q querier) error {
		lo, hi := pathutil.PrefixRange(from)
		refs, err := selectRefs(q,
			"SELECT id, dir, name FROM files WHERE dir = ? OR (dir >= ? AND dir < ?)",
			from, lo, hi)
		if err != nil {
			return err
		}
		for _, r := range refs {
			dir, ok := pathutil.Rebase(r.dir, from, to)
			if !ok {
				continue
			}
			// Rows at the destination are dropped first so the unique
			// (dir, name) index never blocks the move.
			if _, err := q.Exec("UPDATE OR REPLACE files SET dir = ? WHERE id = ?", dir, r.id); err != nil {
				return errs.Cache("remap", err)
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	c.stats.AddRemapped(int64(moved))
	return moved, nil
}

// DeleteDir removes every entry under prefix (inclusive).
func (c *Cache) DeleteDir(prefix string) (int, error) {
	prefix, err := pathutil.Abs(prefix)
	if err != nil {
		return 0, errs.IO("resolve", prefix, err)
	}
	lo, hi := pathutil.PrefixRange(prefix)
	res, err := c.q().Exec("DELETE FROM files WHERE dir = ? OR (dir >= ? AND dir < ?)", prefix, lo, hi)
	if err != nil {
		return 0, errs.Cache("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Cache("delete", err)
	}
	c.stats.AddDeleted(n)
	return int(n), nil
}

// Import merges every entry of the cache file at other into this cache,
// replacing entries with the same (dir, name).
func (c *Cache) Import(ctx context.Context, other string) (int, error) {
	info, err := os.Stat(other)
	if err != nil {
		return 0, errs.IO("stat", other, err)
	}
	if !info.Mode().IsRegular() {
		return 0, errs.NotAFile(other)
	}
	if err := c.Commit(); err != nil {
		return 0, err
	}

	conn, err := c.db.Conn(ctx)
	if err != nil {
		return 0, errs.Cache("import", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS other", other); err != nil {
		return 0, errs.Cache("attach "+other, err)
	}
	defer conn.ExecContext(context.Background(), "DETACH DATABASE other") //nolint:errcheck

	var hasFiles, hasMeta int
	if err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM other.sqlite_master WHERE type = 'table' AND name = 'files'").Scan(&hasFiles); err != nil {
		return 0, errs.Cache("import", err)
	}
	if hasFiles == 0 {
		return 0, errs.Cache("import", fmt.Errorf("%s is not a hash cache", other))
	}
	if err := conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM other.sqlite_master WHERE type = 'table' AND name = 'meta'").Scan(&hasMeta); err != nil {
		return 0, errs.Cache("import", err)
	}
	if hasMeta == 0 {
		var rows int
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM other.files").Scan(&rows); err != nil {
			return 0, errs.Cache("import", err)
		}
		if rows > 0 {
			return 0, errs.Cache("import",
				fmt.Errorf("%s has %d entries of unknown hash algorithm", other, rows))
		}
		return 0, nil
	}
	var algo string
	err = conn.QueryRowContext(ctx,
		"SELECT value FROM other.meta WHERE key = 'hash_algorithm'").Scan(&algo)
	if err != nil || algo != Algorithm {
		return 0, errs.Cache("import",
			fmt.Errorf("%s does not hold %s hashes", other, Algorithm))
	}

	res, err := conn.ExecContext(ctx, `INSERT OR REPLACE INTO main.files (dir, name, size, timestamp, hash)
		SELECT dir, name, size, timestamp, hash FROM other.files`)
	if err != nil {
		return 0, errs.Cache("import", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errs.Cache("import", err)
	}
	c.stats.AddImported(n)
	return int(n), nil
}

func selectRefs(q querier, query string, args ...any) ([]rowRef, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, errs.Cache("select", err)
	}
	defer rows.Close()

	var refs []rowRef
	for rows.Next() {
		var r rowRef
		if err := rows.Scan(&r.id, &r.dir, &r.name); err != nil {
			return nil, errs.Cache("scan", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Cache("select", err)
	}
	return refs, nil
}
