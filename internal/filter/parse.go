package filter

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadFile reads filter rules from a file and appends them to the chain.
// Format:
//
//	- pattern   exclude
//	+ pattern   include
//	!pattern    include
//	# comment   skipped
//	pattern     exclude
func (c *Chain) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open filter file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var addErr error
		switch {
		case strings.HasPrefix(line, "+ "):
			addErr = c.AddInclude(strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "- "):
			addErr = c.AddExclude(strings.TrimSpace(line[2:]))
		default:
			addErr = c.Add(line)
		}
		if addErr != nil {
			return fmt.Errorf("filter file %s line %d: %w", path, lineNum, addErr)
		}
	}

	return scanner.Err()
}
