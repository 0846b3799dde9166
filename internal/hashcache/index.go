package hashcache

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/filter"
)

// Indexed is one file hashed by IndexTree.
type Indexed struct {
	Path string
	Size int64
	Hash string
}

// IndexTree walks each directory in dirs and ensures every regular file
// that f admits has a current cache entry. Excluded directories are not
// descended. Files that cannot be read are logged and left out of the
// result; a root that is unreadable or not a directory is logged and
// skipped. Writes are committed
// every batch-size files.
func (c *Cache) IndexTree(ctx context.Context, dirs []string, f *filter.Chain, moveAware bool) ([]Indexed, error) {
	owned := c.tx == nil
	if owned {
		if err := c.Begin(); err != nil {
			return nil, err
		}
	}

	var (
		out     []Indexed
		pending int
	)
	walkErr := func() error {
		for _, d := range dirs {
			root, err := filepath.Abs(d)
			if err != nil {
				return errs.IO("resolve", d, err)
			}
			err = filepath.WalkDir(root, func(p string, de fs.DirEntry, err error) error {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if err != nil {
					slog.Warn("skipping unreadable path", "path", p, "error", err)
					if p == root {
						return filepath.SkipDir
					}
					return nil
				}
				if p == root {
					if !de.IsDir() {
						slog.Warn("skipping index root that is not a directory", "path", p)
					}
					return nil
				}

				rel, err := filepath.Rel(root, p)
				if err != nil {
					return nil
				}
				if de.IsDir() {
					if f.ShouldExclude(rel + "/") {
						return filepath.SkipDir
					}
					return nil
				}
				if !de.Type().IsRegular() {
					return nil
				}

				info, err := de.Info()
				if err != nil {
					slog.Warn("skipping file", "path", p, "error", err)
					return nil
				}
				if !f.Match(rel, false, info.Size()) {
					return nil
				}

				hash, err := c.hashOf(ctx, p, info, moveAware)
				if err != nil {
					slog.Warn("cannot hash file", "path", p, "error", err)
					c.stats.AddFailed(1)
					return nil
				}
				out = append(out, Indexed{Path: p, Size: info.Size(), Hash: hash})
				event.Emit(c.sink, event.Event{Type: event.Indexed, Path: p, Hash: hash, Size: info.Size()})

				pending++
				if owned && pending >= c.batchSize {
					pending = 0
					if err := c.Commit(); err != nil {
						return err
					}
					return c.Begin()
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}()

	if owned {
		if err := c.Commit(); err != nil && walkErr == nil {
			walkErr = err
		}
	}
	return out, walkErr
}
