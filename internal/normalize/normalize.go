// Package normalize canonicalizes source text before similarity scoring.
// Comment stripping is a heuristic pass over the raw text, not a lexer:
// anything shaped like a comment or a triple-quoted block is removed, even
// when a real parser would have kept it.
package normalize

import (
	"regexp"
	"strings"
)

var (
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	tripleDouble = regexp.MustCompile(`(?s)""".*?"""`)
	tripleSingle = regexp.MustCompile(`(?s)'''.*?'''`)
	lineComment  = regexp.MustCompile(`//[^\n]*`)
	hashComment  = regexp.MustCompile(`#[^\n]*`)
)

// StripComments removes line comments (// and #), block comments (/* */)
// and triple-quoted blocks. Line structure outside comments is preserved.
func StripComments(text string) string {
	if text == "" {
		return ""
	}
	text = blockComment.ReplaceAllString(text, "")
	text = tripleDouble.ReplaceAllString(text, "")
	text = tripleSingle.ReplaceAllString(text, "")
	text = lineComment.ReplaceAllString(text, "")
	text = hashComment.ReplaceAllString(text, "")
	return text
}

// Normalize strips comments, collapses every whitespace run (newlines
// included) into a single space and trims the ends. Empty input yields an
// empty string; the function never fails.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	stripped := StripComments(text)

	var b strings.Builder
	b.Grow(len(stripped))
	prevSpace := false
	for _, r := range stripped {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !prevSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			prevSpace = true
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}

	return strings.TrimRight(b.String(), " ")
}

// Lines returns the comment-stripped, trimmed, non-blank lines of text in
// order. Whitespace inside a line is left alone; only the line boundaries
// of the raw text survive comment stripping.
func Lines(text string) []string {
	if text == "" {
		return nil
	}

	lines := make([]string, 0)
	for _, line := range strings.Split(StripComments(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
