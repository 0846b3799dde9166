package filter

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Pattern is a compiled glob pattern that can match relative paths.
type Pattern struct {
	re       *regexp.Regexp
	original string
	anchored bool // pattern starts with / or contains one
	dirOnly  bool // pattern ends with /
}

// Compile converts an rsync-style glob pattern into a matcher. Patterns
// without a slash match the basename or any path suffix; patterns with a
// slash are anchored to the walk root; a trailing slash restricts the
// pattern to directories.
func Compile(pattern string, icase bool) (*Pattern, error) {
	p := &Pattern{original: pattern}
	pattern = normalize(pattern)

	if strings.HasSuffix(pattern, "/") {
		p.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}

	if strings.HasPrefix(pattern, "/") {
		p.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	} else if strings.Contains(pattern, "/") {
		p.anchored = true
	}

	reStr := globToRegex(pattern)
	if p.anchored {
		reStr = "^" + reStr + "$"
	} else {
		reStr = "(^|/)" + reStr + "$"
	}
	if icase {
		reStr = "(?i)" + reStr
	}

	re, err := regexp.Compile(reStr)
	if err != nil {
		return nil, err
	}
	p.re = re
	return p, nil
}

// Match tests whether a slash-separated relative path matches the pattern.
func (p *Pattern) Match(relPath string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	return p.re.MatchString(relPath)
}

func (p *Pattern) String() string { return p.original }

// normalize rewrites OS separators into the canonical forward slash.
func normalize(s string) string {
	return filepath.ToSlash(s)
}

// globToRegex converts a glob pattern to a regex string.
//
//nolint:gocyclo,revive // cognitive-complexity: character-by-character glob parser
func globToRegex(pattern string) string {
	var b strings.Builder
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString("(.*/)?")
					i += 3
				} else {
					b.WriteString(".*")
					i += 2
				}
			} else {
				b.WriteString("[^/]*")
				i++
			}
		case '?':
			b.WriteString("[^/]")
			i++
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				// Unterminated class is a literal bracket.
				b.WriteString(regexp.QuoteMeta("["))
				i++
				continue
			}
			cls := pattern[i+1 : j]
			if rest, ok := strings.CutPrefix(cls, "!"); ok {
				cls = "^" + rest
			}
			b.WriteString("[" + strings.ReplaceAll(cls, `\`, `\\`) + "]")
			i = j + 1
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
			i++
		}
	}
	return b.String()
}
