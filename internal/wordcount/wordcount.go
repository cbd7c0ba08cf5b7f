// Package wordcount turns normalized text into a Unicode-aware word count.
package wordcount

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// A word is a run of letters, combining marks and digits, optionally joined
// by interior apostrophes or hyphens ("don't", "well-known").
var wordRe = regexp.MustCompile(`[\p{L}\p{M}\p{N}]+(?:['’\-][\p{L}\p{M}\p{N}]+)*`)

// Count returns the number of words in text.
func Count(text string) int {
	return len(Words(text))
}

// Words returns the words of text in order.
func Words(text string) []string {
	if text == "" {
		return nil
	}
	return wordRe.FindAllString(norm.NFC.String(text), -1)
}

// Normalize collapses whitespace runs to single spaces and keeps line breaks
// as single newlines. It never changes Count.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		f := strings.FieldsFunc(line, unicode.IsSpace)
		if len(f) == 0 {
			continue
		}
		out = append(out, strings.Join(f, " "))
	}
	return strings.Join(out, "\n")
}
