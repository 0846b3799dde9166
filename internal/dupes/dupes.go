// Package dupes finds duplicated files and the directories whose entire
// contents are duplicated somewhere outside themselves.
package dupes

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/filter"
	"github.com/bamsammich/fwt/internal/hashcache"
	"github.com/bamsammich/fwt/internal/pathutil"
)

// Indexer hashes every admitted file under a set of roots.
// *hashcache.Cache satisfies it.
type Indexer interface {
	IndexTree(ctx context.Context, dirs []string, f *filter.Chain, moveAware bool) ([]hashcache.Indexed, error)
}

// Config describes a duplicate search.
type Config struct {
	Roots     []string
	Index     Indexer
	Filter    *filter.Chain
	MoveAware bool
	Sink      event.Sink
}

// Set is a group of files sharing one content hash.
type Set struct {
	Hash  string
	Size  int64
	Paths []string
}

// Result lists the duplicate sets and the top-level fully duplicated
// directories.
type Result struct {
	Sets []Set
	Dirs []string
}

// WastedBytes is the space held by every copy beyond the first.
func (r Result) WastedBytes() int64 {
	var n int64
	for _, s := range r.Sets {
		n += s.Size * int64(len(s.Paths)-1)
	}
	return n
}

type closer struct {
	cfg      Config
	roots    []string
	byHash   map[string][]string
	pathHash map[string]string
	lister   *lister
	memo     map[string]bool
}

// Run indexes the roots, groups files by hash and computes the directory
// closure.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.Index == nil {
		return Result{}, errs.Invalid("duplicate search needs a hash cache")
	}
	if len(cfg.Roots) == 0 {
		return Result{}, errs.Invalid("no directories to search")
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return Result{}, errs.IO("resolve", r, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return Result{}, errs.IO("stat", abs, err)
		}
		if !info.IsDir() {
			return Result{}, errs.Invalid("%s is not a directory", abs)
		}
		roots = append(roots, abs)
	}
	// Nested roots would index the same files twice.
	roots = pathutil.TopLevel(roots)

	ls, err := newLister()
	if err != nil {
		return Result{}, fmt.Errorf("listing cache: %w", err)
	}
	c := &closer{
		cfg:      cfg,
		roots:    roots,
		byHash:   make(map[string][]string),
		pathHash: make(map[string]string),
		lister:   ls,
		memo:     make(map[string]bool),
	}

	sets, err := c.index(ctx)
	if err != nil {
		return Result{}, err
	}
	for _, s := range sets {
		event.Emit(cfg.Sink, event.Event{Type: event.DuplicateSet, Paths: s.Paths, Hash: s.Hash, Size: s.Size})
	}

	candidates := c.candidates(sets)
	dirs, err := c.closure(ctx, candidates)
	if err != nil {
		return Result{}, err
	}
	for _, d := range dirs {
		event.Emit(cfg.Sink, event.Event{Type: event.DuplicateDir, Path: d})
	}
	return Result{Sets: sets, Dirs: dirs}, nil
}

// index hashes every file and returns the hashes held by two or more
// paths, ordered by first path.
func (c *closer) index(ctx context.Context) ([]Set, error) {
	files, err := c.cfg.Index.IndexTree(ctx, c.roots, c.cfg.Filter, c.cfg.MoveAware)
	if err != nil {
		return nil, err
	}

	sizes := make(map[string]int64)
	for _, f := range files {
		if _, seen := c.pathHash[f.Path]; seen {
			continue
		}
		c.pathHash[f.Path] = f.Hash
		c.byHash[f.Hash] = append(c.byHash[f.Hash], f.Path)
		sizes[f.Hash] = f.Size
	}

	var sets []Set
	for h, paths := range c.byHash {
		if len(paths) < 2 {
			continue
		}
		sort.Strings(paths)
		sets = append(sets, Set{Hash: h, Size: sizes[h], Paths: paths})
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i].Paths[0] < sets[j].Paths[0] })
	return sets, nil
}

// candidates returns the directories holding at least one duplicated file
// in which every admitted file has a copy outside the directory.
func (c *closer) candidates(sets []Set) map[string]bool {
	out := make(map[string]bool)
	checked := make(map[string]bool)
	for _, s := range sets {
		for _, p := range s.Paths {
			dir := filepath.Dir(p)
			if checked[dir] {
				continue
			}
			checked[dir] = true
			if c.everyFileDuplicatedOutside(dir) {
				out[dir] = true
			}
		}
	}
	return out
}

func (c *closer) everyFileDuplicatedOutside(dir string) bool {
	ls := c.lister.list(dir)
	if ls.err != nil {
		slog.Warn("cannot list directory", "path", dir, "error", ls.err)
		return false
	}
	for _, f := range ls.files {
		if c.fileExcluded(f) {
			continue
		}
		h, ok := c.pathHash[f.path]
		if !ok {
			// Admitted but never hashed: nothing proves a copy exists.
			return false
		}
		if !hasCopyOutside(dir, c.byHash[h]) {
			return false
		}
	}
	return true
}

func hasCopyOutside(dir string, paths []string) bool {
	for _, p := range paths {
		if !pathutil.Contains(dir, p) {
			return true
		}
	}
	return false
}

// closure evaluates every candidate and each of its ancestors up to the
// search root, then keeps only the outermost fully duplicated ones.
func (c *closer) closure(ctx context.Context, candidates map[string]bool) ([]string, error) {
	seeds := make(map[string]bool)
	for dir := range candidates {
		root := c.rootOf(dir)
		for d := dir; ; d = filepath.Dir(d) {
			seeds[d] = true
			if d == root || filepath.Dir(d) == d {
				break
			}
		}
	}

	var full []string
	for d := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.fullyDuplicated(d, candidates) {
			full = append(full, d)
		}
	}

	out := pathutil.TopLevel(full)
	for _, d := range out {
		if !c.copiedOutside(d) {
			slog.Warn("some files under this directory are only duplicated inside it",
				"path", d)
		}
	}
	return out, nil
}

// copiedOutside reports whether every admitted file anywhere beneath dir
// has a copy outside dir. A fully duplicated directory can fail this when
// its subdirectories only duplicate each other.
func (c *closer) copiedOutside(dir string) bool {
	stack := []string{dir}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ls := c.lister.list(d)
		if ls.err != nil {
			return false
		}
		for _, f := range ls.files {
			if c.fileExcluded(f) {
				continue
			}
			h, ok := c.pathHash[f.path]
			if !ok || !hasCopyOutside(dir, c.byHash[h]) {
				return false
			}
		}
		for _, sub := range ls.subdirs {
			if !c.dirExcluded(sub) {
				stack = append(stack, sub)
			}
		}
	}
	return true
}

// fullyDuplicated reports whether dir is a candidate, or holds no admitted
// files, and every admitted subdirectory is fully duplicated too.
func (c *closer) fullyDuplicated(dir string, candidates map[string]bool) bool {
	if v, ok := c.memo[dir]; ok {
		return v
	}
	v := c.evaluate(dir, candidates)
	c.memo[dir] = v
	return v
}

func (c *closer) evaluate(dir string, candidates map[string]bool) bool {
	ls := c.lister.list(dir)
	if ls.err != nil {
		slog.Warn("cannot list directory", "path", dir, "error", ls.err)
		return false
	}
	if !candidates[dir] {
		for _, f := range ls.files {
			if !c.fileExcluded(f) {
				return false
			}
		}
	}
	for _, sub := range ls.subdirs {
		if c.dirExcluded(sub) {
			continue
		}
		if !c.fullyDuplicated(sub, candidates) {
			return false
		}
	}
	return true
}

func (c *closer) rootOf(p string) string {
	for _, r := range c.roots {
		if pathutil.Contains(r, p) {
			return r
		}
	}
	return filepath.Dir(p)
}

func (c *closer) rel(p string) string {
	rel, err := filepath.Rel(c.rootOf(p), p)
	if err != nil {
		return p
	}
	return rel
}

func (c *closer) fileExcluded(f fileEntry) bool {
	return !c.cfg.Filter.Match(c.rel(f.path), false, f.size)
}

func (c *closer) dirExcluded(dir string) bool {
	return c.cfg.Filter.ShouldExclude(c.rel(dir) + "/")
}
