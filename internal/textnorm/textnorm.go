// Package textnorm cleans up text returned by OCR engines before it is
// stored in a table or printed.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	zeroWidthChars = regexp.MustCompile("[\u200B-\u200D\uFEFF\u00AD\u2060]")
	horizontalRuns = regexp.MustCompile(`[ \t\f\v]+`)
)

// Line normalizes a single recognized line: NFC composition, invisible
// characters removed, runs of blanks collapsed and the ends trimmed.
// Line breaks inside the text are folded to single spaces.
func Line(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = zeroWidthChars.ReplaceAllString(s, "")
	s = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
	s = horizontalRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Lines splits multi-line engine output and returns the non-empty lines,
// each normalized with Line.
func Lines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var out []string
	for _, raw := range strings.Split(s, "\n") {
		if line := Line(raw); line != "" {
			out = append(out, line)
		}
	}
	return out
}
