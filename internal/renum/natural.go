package renum

import "strings"

// naturalLess orders strings so that embedded numbers compare by value:
// "img2" sorts before "img10". Equal numbers with different zero padding
// put the shorter run first.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, restA := splitDigits(a)
			nb, restB := splitDigits(b)
			if c := compareNumbers(na, nb); c != 0 {
				return c < 0
			}
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			a, b = restA, restB
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

// compareNumbers compares two digit runs by numeric value without
// converting them, so arbitrarily long runs are safe.
func compareNumbers(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
