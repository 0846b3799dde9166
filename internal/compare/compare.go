// Package compare reports the differences between two directory trees:
// entries present on one side only and files whose attributes or content
// differ.
package compare

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/filter"
	"github.com/bamsammich/fwt/internal/hashcache"
)

// DefaultTolerance absorbs timestamp rounding between filesystems.
const DefaultTolerance = 2000 * time.Millisecond

// Reasons attached to Different events.
const (
	ReasonType        = "type"
	ReasonLeftNewer   = "left newer"
	ReasonRightNewer  = "right newer"
	ReasonLeftLarger  = "left larger"
	ReasonRightLarger = "right larger"
	ReasonContent     = "content"
)

// ContentComparer decides whether two files hold the same bytes.
// *hashcache.Cache satisfies it.
type ContentComparer interface {
	ContentEqual(a, b string, moveAware bool) (bool, error)
}

// Indexer hashes every admitted file under a set of roots.
// *hashcache.Cache satisfies it.
type Indexer interface {
	IndexTree(ctx context.Context, dirs []string, f *filter.Chain, moveAware bool) ([]hashcache.Indexed, error)
}

// Config describes a comparison. Left is the source tree, Right the
// target.
type Config struct {
	Left      string
	Right     string
	Filter    *filter.Chain
	Content   ContentComparer // required unless AttrsOnly
	AttrsOnly bool            // compare size and mtime only
	NoLeft    bool            // suppress entries missing on the left
	NoRight   bool            // suppress entries missing on the right
	MoveAware bool
	Tolerance time.Duration // mtime slack; zero selects DefaultTolerance
	Sink      event.Sink
}

// Result counts the reported discrepancies of one run.
type Result struct {
	LeftMissing  int
	RightMissing int
	Different    int
	Errors       int // unreadable directories and files that could not be compared
}

// Total is the number of reported discrepancies.
func (r Result) Total() int {
	return r.LeftMissing + r.RightMissing + r.Different
}

func (r Result) String() string {
	return fmt.Sprintf("missing left: %d, missing right: %d, different: %d",
		r.LeftMissing, r.RightMissing, r.Different)
}

type kind int

const (
	kindOther kind = iota
	kindFile
	kindDir
)

func kindOf(d fs.DirEntry) kind {
	switch {
	case d.IsDir():
		return kindDir
	case d.Type().IsRegular():
		return kindFile
	default:
		return kindOther
	}
}

type pair struct {
	left, right, rel string
}

type differ struct {
	cfg    Config
	result Result
}

// Run walks both trees in lockstep. Exclusion is checked before an entry
// is reported or descended, so an excluded directory hides everything
// beneath it. A directory that cannot be listed is logged and skipped.
func Run(ctx context.Context, cfg Config) (Result, error) {
	left, right, err := roots(cfg.Left, cfg.Right)
	if err != nil {
		return Result{}, err
	}
	if !cfg.AttrsOnly && cfg.Content == nil {
		return Result{}, errs.Invalid("content comparison needs a hash cache")
	}
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}

	d := &differ{cfg: cfg}
	stack := []pair{{left: left, right: right}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return d.result, err
		}
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		subdirs := d.compareDir(p)
		slices.Reverse(subdirs)
		stack = append(stack, subdirs...)
	}
	return d.result, nil
}

func roots(l, r string) (string, string, error) {
	var out [2]string
	for i, p := range []string{l, r} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", "", errs.IO("resolve", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", "", errs.IO("stat", abs, err)
		}
		if !info.IsDir() {
			return "", "", errs.Invalid("%s is not a directory", abs)
		}
		out[i] = abs
	}
	return out[0], out[1], nil
}

func (d *differ) readDir(dir string) (map[string]fs.DirEntry, []fs.DirEntry, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		slog.Warn("skipping unreadable directory", "path", dir, "error", err)
		d.result.Errors++
		return nil, nil, false
	}
	byName := make(map[string]fs.DirEntry, len(entries))
	for _, e := range entries {
		byName[e.Name()] = e
	}
	return byName, entries, true
}

func (d *differ) excluded(rel string, k kind) bool {
	if k == kindDir {
		return d.cfg.Filter.ShouldExclude(rel + "/")
	}
	return d.cfg.Filter.ShouldExclude(rel)
}

// compareDir compares one directory level and returns the subdirectory
// pairs still to visit.
func (d *differ) compareDir(p pair) []pair {
	_, leftEntries, ok := d.readDir(p.left)
	if !ok {
		return nil
	}
	rightByName, rightEntries, ok := d.readDir(p.right)
	if !ok {
		return nil
	}

	var subdirs []pair
	for _, le := range leftEntries {
		name := le.Name()
		rel := filepath.Join(p.rel, name)
		lk := kindOf(le)
		if d.excluded(rel, lk) {
			continue
		}
		lp := filepath.Join(p.left, name)
		rp := filepath.Join(p.right, name)

		re, ok := rightByName[name]
		if !ok {
			d.missing(lp, event.Right)
			continue
		}
		delete(rightByName, name)

		rk := kindOf(re)
		switch {
		case lk == kindOther && rk == kindOther:
		case lk != rk:
			d.different(lp, rp, ReasonType)
		case lk == kindDir:
			subdirs = append(subdirs, pair{left: lp, right: rp, rel: rel})
		default:
			d.compareFiles(lp, rp, le, re)
		}
	}

	for _, re := range rightEntries {
		if _, ok := rightByName[re.Name()]; !ok {
			continue
		}
		rel := filepath.Join(p.rel, re.Name())
		if d.excluded(rel, kindOf(re)) {
			continue
		}
		d.missing(filepath.Join(p.right, re.Name()), event.Left)
	}
	return subdirs
}

func (d *differ) compareFiles(lp, rp string, le, re fs.DirEntry) {
	li, err := le.Info()
	if err != nil {
		d.fileError(lp, err)
		return
	}
	ri, err := re.Info()
	if err != nil {
		d.fileError(rp, err)
		return
	}

	reason, err := d.verdict(lp, rp, li, ri)
	if err != nil {
		d.fileError(lp, err)
		return
	}
	if reason != "" {
		d.different(lp, rp, reason)
	}
}

// verdict classifies two files. An empty reason means equal. Time beats
// size, and size beats content, so content is only hashed when the
// attributes already agree.
func (d *differ) verdict(lp, rp string, li, ri fs.FileInfo) (string, error) {
	delta := li.ModTime().Sub(ri.ModTime())
	if delta > d.cfg.Tolerance {
		return ReasonLeftNewer, nil
	}
	if -delta > d.cfg.Tolerance {
		return ReasonRightNewer, nil
	}
	if li.Size() > ri.Size() {
		return ReasonLeftLarger, nil
	}
	if li.Size() < ri.Size() {
		return ReasonRightLarger, nil
	}
	if d.cfg.AttrsOnly {
		return "", nil
	}

	same, err := d.cfg.Content.ContentEqual(lp, rp, d.cfg.MoveAware)
	if err != nil {
		return "", err
	}
	if !same {
		return ReasonContent, nil
	}
	return "", nil
}

func (d *differ) missing(path string, in event.Side) {
	if in == event.Right {
		if d.cfg.NoRight {
			return
		}
		d.result.RightMissing++
	} else {
		if d.cfg.NoLeft {
			return
		}
		d.result.LeftMissing++
	}
	event.Emit(d.cfg.Sink, event.Event{Type: event.Missing, Path: path, MissingIn: in})
}

func (d *differ) different(lp, rp, reason string) {
	d.result.Different++
	event.Emit(d.cfg.Sink, event.Event{Type: event.Different, Path: lp, Other: rp, Reason: reason})
}

func (d *differ) fileError(path string, err error) {
	slog.Warn("cannot compare file", "path", path, "error", err)
	d.result.Errors++
}
