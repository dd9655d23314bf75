// Package tle downloads, caches, and parses Two-Line Element orbital data.
package tle

import (
	"fmt"
	"strings"
)

// TLE is one satellite's two-line element set plus its catalog name.
type TLE struct {
	Name  string
	Line1 string
	Line2 string
}

func (t TLE) String() string {
	return fmt.Sprintf("%s\n%s\n%s", t.Name, t.Line1, t.Line2)
}

// Parse extracts 3-line TLE groups (name, line 1, line 2) from raw text.
// Blank lines and #-comments are skipped; groups whose data lines do not
// carry the expected prefixes or a valid mod-10 checksum are dropped.
func Parse(content string) map[string]TLE {
	out := make(map[string]TLE)
	lines := strings.Split(strings.TrimSpace(content), "\n")
	for i := 0; i < len(lines); i++ {
		name := strings.TrimSpace(lines[i])
		if name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		if strings.HasPrefix(name, "1 ") || strings.HasPrefix(name, "2 ") {
			continue
		}
		if i+2 >= len(lines) {
			break
		}
		line1 := strings.TrimSpace(lines[i+1])
		line2 := strings.TrimSpace(lines[i+2])
		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			continue
		}
		if !ValidChecksum(line1) || !ValidChecksum(line2) {
			i += 2
			continue
		}
		out[name] = TLE{Name: name, Line1: line1, Line2: line2}
		i += 2
	}
	return out
}

// ValidChecksum reports whether a TLE data line carries a correct mod-10
// checksum in its final column. Digits count their value, minus signs count
// one, everything else counts zero.
func ValidChecksum(line string) bool {
	if len(line) < 69 {
		return false
	}
	sum := 0
	for _, c := range line[:68] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum%10 == int(line[68]-'0')
}
