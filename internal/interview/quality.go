package interview

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// minInputRunes is the minimum length of a usable utterance.
	minInputRunes = 3

	// maxSymbolRatio is the highest tolerated fraction of characters that are
	// neither letters nor whitespace. Transcripts above it are treated as
	// recognition garbage rather than answers.
	maxSymbolRatio = 0.25
)

// symbolOnlyRe matches text consisting entirely of two or more characters
// outside the ASCII alphanumeric range ("ʕʕʔ" style STT noise). The class is
// deliberately ASCII: exotic codepoints that pass unicode.IsLetter are still
// recognition garbage for an English interview.
var symbolOnlyRe = regexp.MustCompile(`^[^A-Za-z0-9\s]{2,}$`)

// IsLowQuality reports whether an utterance is unusable: empty or
// whitespace-only, shorter than three characters, dominated by non-letter
// symbols, or composed solely of symbol characters. Pure and total over all
// strings, Unicode-aware.
func IsLowQuality(text string) bool {
	trimmed := strings.TrimSpace(text)
	runes := []rune(trimmed)
	if len(runes) < minInputRunes {
		return true
	}

	nonAlpha := 0
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			nonAlpha++
		}
	}
	if float64(nonAlpha)/float64(len(runes)) > maxSymbolRatio {
		return true
	}

	return symbolOnlyRe.MatchString(trimmed)
}
