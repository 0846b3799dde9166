// Package naming derives alternative file names: conflict copies during a
// merge and the next free name in a numbered sequence.
package naming

import (
	"os"
	"path/filepath"
	"strings"
)

// ConflictMarker is inserted before the extension of the first conflict
// candidate.
const ConflictMarker = " (Conflict 1)"

// Name is a file name split around its last run of decimal digits.
// "Photo 03.jpg" splits into Prefix "Photo ", Digits "03", Tail "" and
// Ext ".jpg".
type Name struct {
	Prefix string
	Digits string
	Tail   string
	Ext    string
}

// Parse splits a base name. Digits is empty when the stem has none, in
// which case Prefix holds the whole stem.
func Parse(name string) Name {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext == name {
		// Dotfiles like ".profile" have no extension.
		stem, ext = name, ""
	}

	end := len(stem)
	for end > 0 && !isDigit(stem[end-1]) {
		end--
	}
	if end == 0 {
		return Name{Prefix: stem, Ext: ext}
	}
	start := end
	for start > 0 && isDigit(stem[start-1]) {
		start--
	}
	return Name{
		Prefix: stem[:start],
		Digits: stem[start:end],
		Tail:   stem[end:],
		Ext:    ext,
	}
}

// String reassembles the name.
func (n Name) String() string {
	return n.Prefix + n.Digits + n.Tail + n.Ext
}

// Increment returns the name with its numeral increased by one, padded to
// at least the original width. A name without digits gets "(2)" appended
// to its stem.
func (n Name) Increment() Name {
	if n.Digits == "" {
		n.Prefix += "(2)"
		return n
	}
	n.Digits = incrementDigits(n.Digits)
	return n
}

// Increment applies Name.Increment to a base name.
func Increment(name string) string {
	return Parse(name).Increment().String()
}

// IncrementPath increments the base name of p and keeps its directory.
func IncrementPath(p string) string {
	dir, base := filepath.Split(p)
	return dir + Increment(base)
}

// Conflict returns the first conflict candidate for name:
// "img.jpg" becomes "img (Conflict 1).jpg".
func Conflict(name string) string {
	n := Parse(name)
	stem := n.Prefix + n.Digits + n.Tail
	return stem + ConflictMarker + n.Ext
}

// Next returns the first path in the increment sequence starting at p for
// which exists reports false. A nil exists checks the filesystem.
func Next(p string, exists func(string) bool) string {
	if exists == nil {
		exists = pathExists
	}
	for exists(p) {
		p = IncrementPath(p)
	}
	return p
}

func pathExists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

// incrementDigits adds one to a decimal string without converting it, so
// runs longer than an int64 still increment. Carry out of the top digit
// widens the result.
func incrementDigits(d string) string {
	b := []byte(d)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
