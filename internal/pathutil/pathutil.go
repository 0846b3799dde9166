// Package pathutil holds the path arithmetic shared by the cache and the
// tree algorithms: absolute normalisation, component-wise containment and
// prefix ranges for ordered lookups.
package pathutil

import (
	"path/filepath"
	"sort"
	"strings"
)

const sep = string(filepath.Separator)

// Abs returns the absolute, cleaned form of p.
func Abs(p string) (string, error) {
	return filepath.Abs(p)
}

// Contains reports whether p is dir itself or lies somewhere beneath it.
// The test is done on path components, so "/a/bc" is not inside "/a/b".
func Contains(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+sep)
}

// TopLevel sorts paths and drops every path that is a descendant of
// another path in the set. The input slice is not modified.
func TopLevel(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	// Byte order can put "/a b" between "/a" and "/a/b", so each path is
	// checked against every kept ancestor rather than its predecessor.
	kept := make(map[string]bool, len(sorted))
	out := make([]string, 0, len(sorted))
	for _, p := range sorted {
		p = filepath.Clean(p)
		if kept[p] || hasKeptAncestor(kept, p) {
			continue
		}
		kept[p] = true
		out = append(out, p)
	}
	return out
}

func hasKeptAncestor(kept map[string]bool, p string) bool {
	for d := filepath.Dir(p); ; d = filepath.Dir(d) {
		if kept[d] {
			return true
		}
		if next := filepath.Dir(d); next == d {
			return false
		}
	}
}

// PrefixRange returns the half-open byte range [lo, hi) covering every
// path strictly beneath dir. Byte-wise ordering places all of them after
// dir+sep and before dir followed by the next byte after the separator.
func PrefixRange(dir string) (lo, hi string) {
	dir = strings.TrimSuffix(dir, sep)
	return dir + sep, dir + string(rune(filepath.Separator+1))
}

// Rebase replaces the from prefix of p with to. ok is false when p is not
// from or a descendant of it.
func Rebase(p, from, to string) (string, bool) {
	if !Contains(from, p) {
		return "", false
	}
	rel, err := filepath.Rel(from, p)
	if err != nil {
		return "", false
	}
	if rel == "." {
		return filepath.Clean(to), true
	}
	return filepath.Join(to, rel), true
}
