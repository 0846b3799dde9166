// Package merge copies one directory tree into another without ever
// overwriting a file. Differing files at the destination are kept and the
// incoming copy is written under a "(Conflict N)" name.
package merge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/filter"
	"github.com/bamsammich/fwt/internal/naming"
	"github.com/bamsammich/fwt/internal/pathutil"
)

// Config describes a merge.
type Config struct {
	Source        string
	Target        string
	Filter        *filter.Chain
	DryRun        bool // report what would be copied, write nothing
	PreserveTimes bool // give copies the source modification time
	Sink          event.Sink
}

// Result holds the counts of one merge.
type Result struct {
	Copied    int
	Skipped   int
	Conflicts int
	Failed    int
	Bytes     int64
}

func (r Result) String() string {
	return fmt.Sprintf("copied: %d skipped: %d conflicts: %d", r.Copied, r.Skipped, r.Conflicts)
}

type merger struct {
	cfg    Config
	result Result
}

type dirPair struct {
	src, dst string
}

// Run merges cfg.Source into cfg.Target. Per-file failures are reported
// through the sink and counted; the merge carries on with the remaining
// files. Cancelling ctx stops the merge between files.
func Run(ctx context.Context, cfg Config) (Result, error) {
	src, err := pathutil.Abs(cfg.Source)
	if err != nil {
		return Result{}, errs.IO("resolve", cfg.Source, err)
	}
	dst, err := pathutil.Abs(cfg.Target)
	if err != nil {
		return Result{}, errs.IO("resolve", cfg.Target, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return Result{}, errs.IO("stat", src, err)
	}
	if !info.IsDir() {
		return Result{}, errs.Invalid("source %s is not a directory", src)
	}
	if pathutil.Contains(src, dst) {
		return Result{}, errs.Invalid("target %s lies inside source %s", dst, src)
	}

	m := &merger{cfg: cfg}
	m.cfg.Source, m.cfg.Target = src, dst

	stack := []dirPair{{src: src, dst: dst}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return m.result, err
		}
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		subdirs, err := m.mergeDir(ctx, d)
		if err != nil {
			return m.result, err
		}
		// Reverse so subdirectories pop in name order.
		slices.Reverse(subdirs)
		stack = append(stack, subdirs...)
	}
	return m.result, nil
}

// mergeDir ensures the target directory exists, merges the files of one
// source directory and returns its subdirectories.
func (m *merger) mergeDir(ctx context.Context, d dirPair) ([]dirPair, error) {
	if !m.ensureDir(d) {
		return nil, nil
	}

	entries, err := os.ReadDir(d.src)
	if err != nil {
		m.fail(d.src, d.dst, errs.IO("readdir", d.src, err))
		return nil, nil
	}

	var subdirs []dirPair
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		srcPath := filepath.Join(d.src, e.Name())
		dstPath := filepath.Join(d.dst, e.Name())
		rel, _ := filepath.Rel(m.cfg.Source, srcPath)

		switch {
		case e.IsDir():
			if m.cfg.Filter.ShouldExclude(rel + "/") {
				continue
			}
			subdirs = append(subdirs, dirPair{src: srcPath, dst: dstPath})
		case e.Type().IsRegular():
			info, err := e.Info()
			if err != nil {
				m.fail(srcPath, dstPath, errs.IO("stat", srcPath, err))
				continue
			}
			if !m.cfg.Filter.Match(rel, false, info.Size()) {
				continue
			}
			m.mergeFile(srcPath, dstPath)
		default:
			slog.Debug("skipping non-regular file", "path", srcPath, "type", e.Type().String())
		}
	}
	return subdirs, nil
}

// ensureDir creates the target directory when missing. It reports false
// when the subtree cannot be merged.
func (m *merger) ensureDir(d dirPair) bool {
	info, err := os.Stat(d.dst)
	switch {
	case err == nil && info.IsDir():
		return true
	case err == nil:
		m.fail(d.src, d.dst, errs.Invalid("%s exists and is not a directory", d.dst))
		return false
	case !errors.Is(err, fs.ErrNotExist):
		m.fail(d.src, d.dst, errs.IO("stat", d.dst, err))
		return false
	}

	if !m.cfg.DryRun {
		if err := os.MkdirAll(d.dst, 0o755); err != nil {
			m.fail(d.src, d.dst, errs.IO("mkdir", d.dst, err))
			return false
		}
	}
	event.Emit(m.cfg.Sink, event.Event{Type: event.DirCreated, Path: d.dst})
	return true
}

// mergeFile places src at dst, or at the first free conflict name when dst
// holds different content.
func (m *merger) mergeFile(src, dst string) {
	exists, err := m.settle(src, dst, false)
	if err != nil || !exists {
		return
	}

	dir := filepath.Dir(dst)
	candidate := filepath.Join(dir, naming.Conflict(filepath.Base(dst)))
	for {
		exists, err := m.settle(src, candidate, true)
		if err != nil || !exists {
			return
		}
		candidate = naming.IncrementPath(candidate)
	}
}

// settle tries to resolve src against one destination name. It returns
// exists=true when that name holds a different file and the caller must
// try the next candidate.
func (m *merger) settle(src, dst string, conflict bool) (bool, error) {
	_, err := os.Lstat(dst)
	switch {
	case err == nil:
		same, err := identical(src, dst)
		if err != nil {
			m.fail(src, dst, errs.IO("compare", dst, err))
			return false, err
		}
		if same {
			m.result.Skipped++
			event.Emit(m.cfg.Sink, event.Event{Type: event.FileIdentical, Path: src, Other: dst})
			return false, nil
		}
		return true, nil
	case !errors.Is(err, fs.ErrNotExist):
		err = errs.IO("stat", dst, err)
		m.fail(src, dst, err)
		return false, err
	}

	var n int64
	if m.cfg.DryRun {
		if info, err := os.Stat(src); err == nil {
			n = info.Size()
		}
	} else {
		n, err = copyFile(src, dst, m.cfg.PreserveTimes)
		if errors.Is(err, fs.ErrExist) {
			// Someone else took the name; treat it like any existing file.
			return m.settle(src, dst, conflict)
		}
		if err != nil {
			err = errs.IO("copy", src, err)
			m.fail(src, dst, err)
			return false, err
		}
	}

	m.result.Copied++
	m.result.Bytes += n
	typ := event.FileCopied
	if conflict {
		m.result.Conflicts++
		typ = event.FileConflict
	}
	event.Emit(m.cfg.Sink, event.Event{Type: typ, Path: src, Other: dst, Size: n})
	return false, nil
}

func (m *merger) fail(src, dst string, err error) {
	m.result.Failed++
	slog.Warn("merge failed", "source", src, "target", dst, "error", err)
	event.Emit(m.cfg.Sink, event.Event{Type: event.FileFailed, Path: src, Other: dst, Error: err})
}
