// Package renum renames a list of files into a numbered sequence. The
// rename runs in two phases through a staging suffix so that no file is
// ever overwritten, even when new names overlap old ones.
package renum

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/event"
	"github.com/bamsammich/fwt/internal/filter"
	"github.com/bamsammich/fwt/internal/platform"
)

// StagingSuffix is appended to every new name during the first phase.
const StagingSuffix = ".renum"

// Move renames Old to New.
type Move struct {
	Old string
	New string
}

// Plan is a validated set of moves.
type Plan struct {
	Moves []Move
}

// Target is a parsed target name such as "img001+.jpg": numbering starts
// at 1 and is padded to three digits.
type Target struct {
	prefix string
	suffix string
	start  uint64
	width  int
}

// ParseTarget parses a target name. It must contain a run of digits
// followed by "+" and no wildcard characters.
func ParseTarget(s string) (Target, error) {
	if strings.ContainsAny(s, "*?") {
		return Target{}, errs.Invalid("the target filename can't contain wildcard characters")
	}
	plus := strings.IndexByte(s, '+')
	if plus < 0 {
		return Target{}, errs.Invalid("target filename must contain a number followed by a '+' suffix")
	}
	start := plus
	for start > 0 && isDigit(s[start-1]) {
		start--
	}
	if start == plus {
		return Target{}, errs.Invalid("target filename must contain a number followed by a '+' suffix")
	}
	n, err := strconv.ParseUint(s[start:plus], 10, 64)
	if err != nil {
		return Target{}, errs.Invalid("target number %s: %v", s[start:plus], err)
	}
	return Target{
		prefix: s[:start],
		suffix: s[plus+1:],
		start:  n,
		width:  plus - start,
	}, nil
}

// Name returns the i'th name of the sequence, counting from zero.
func (t Target) Name(i int) string {
	return fmt.Sprintf("%s%0*d%s", t.prefix, t.width, t.start+uint64(i), t.suffix) //nolint:gosec // i is a slice index
}

// Build expands the source patterns in args[:len(args)-1], numbers them
// with the target args[len(args)-1] and validates the result. New names
// are placed in the directory of each source.
func Build(args []string, icase bool) (Plan, error) {
	if len(args) < 2 {
		return Plan{}, errs.Invalid("not enough arguments")
	}
	target, err := ParseTarget(args[len(args)-1])
	if err != nil {
		return Plan{}, err
	}

	var sources []string
	seen := make(map[string]bool)
	for _, pattern := range args[:len(args)-1] {
		files, err := Expand(pattern, icase)
		if err != nil {
			return Plan{}, err
		}
		for _, f := range files {
			key := cleanAbs(f)
			if seen[key] {
				return Plan{}, errs.Invalid("source file list contains duplicate files: %s", f)
			}
			seen[key] = true
			sources = append(sources, f)
		}
	}

	var plan Plan
	for i, src := range sources {
		m := Move{Old: src, New: filepath.Join(filepath.Dir(src), target.Name(i))}
		if cleanAbs(m.Old) == cleanAbs(m.New) {
			continue
		}
		plan.Moves = append(plan.Moves, m)
	}
	if err := plan.checkClashes(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// checkClashes rejects new names that already exist and are not
// themselves being renamed away, and leftover staging names.
func (p Plan) checkClashes() error {
	leaving := make(map[string]bool, len(p.Moves))
	for _, m := range p.Moves {
		leaving[cleanAbs(m.Old)] = true
	}

	var clashes []string
	for _, m := range p.Moves {
		if exists(m.New) && !leaving[cleanAbs(m.New)] {
			clashes = append(clashes, m.New)
		}
		if exists(m.New + StagingSuffix) {
			clashes = append(clashes, m.New+StagingSuffix)
		}
	}
	if len(clashes) > 0 {
		return errs.Invalid("one or more target file names already exist: %s", strings.Join(clashes, ", "))
	}
	return nil
}

// Stage runs the first phase: every source is renamed to its new name plus
// StagingSuffix. If a rename fails the files already staged are moved
// back.
func (p Plan) Stage() error {
	for i, m := range p.Moves {
		if err := platform.RenameNoReplace(m.Old, m.New+StagingSuffix); err != nil {
			for j := i - 1; j >= 0; j-- {
				back := p.Moves[j]
				_ = platform.RenameNoReplace(back.New+StagingSuffix, back.Old)
			}
			return errs.IO("rename", m.Old, err)
		}
	}
	return nil
}

// Commit runs the second phase, dropping the staging suffix. A failure
// leaves the remaining files under their staging names.
func (p Plan) Commit() error {
	for _, m := range p.Moves {
		if err := platform.RenameNoReplace(m.New+StagingSuffix, m.New); err != nil {
			return errs.IO("rename", m.New+StagingSuffix, err)
		}
	}
	return nil
}

// Apply stages and commits the plan, then reports every move to sink.
func (p Plan) Apply(sink event.Sink) error {
	if err := p.Stage(); err != nil {
		return err
	}
	if err := p.Commit(); err != nil {
		return err
	}
	p.Report(sink)
	return nil
}

// Report emits a Renamed event per move without touching the filesystem.
func (p Plan) Report(sink event.Sink) {
	for _, m := range p.Moves {
		event.Emit(sink, event.Event{Type: event.Renamed, Path: m.Old, Other: m.New})
	}
}

// Expand returns the regular files matching pattern, in natural order of
// their base names. Wildcards ("*", "?", "[...]") are allowed in the last
// path element only. Hidden files match only when the pattern itself
// starts with a dot. A pattern without wildcards names a single file.
func Expand(pattern string, icase bool) ([]string, error) {
	dir, base := filepath.Split(pattern)
	if !hasMeta(base) {
		info, err := os.Stat(pattern)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, errs.IO("stat", pattern, err)
		}
		if !info.Mode().IsRegular() {
			return nil, nil
		}
		return []string{pattern}, nil
	}
	if hasMeta(dir) {
		return nil, errs.Invalid("wildcards are only supported in the file name: %s", pattern)
	}

	m, err := filter.Compile(base, icase)
	if err != nil {
		return nil, errs.Invalid("pattern %q: %v", pattern, err)
	}

	listDir := dir
	if listDir == "" {
		listDir = "."
	}
	entries, err := os.ReadDir(listDir)
	if err != nil {
		return nil, errs.IO("readdir", listDir, err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}
		if m.Match(name, false) {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return naturalLess(filepath.Base(out[i]), filepath.Base(out[j]))
	})
	return out, nil
}

func hasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

func cleanAbs(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}
