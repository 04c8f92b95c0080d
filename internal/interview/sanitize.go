package interview

import (
	"regexp"
	"strings"
)

// Preamble and leakage patterns stripped from raw model output before any
// further processing. Models routinely prefix acknowledgements ("Sure, here
// is...") or echo chat-role labels; both are noise to the candidate.
var (
	preambleRe       = regexp.MustCompile(`(?i)^(Sure[,.:]?\s*|Here (is|are)( the question)?[,:]?\s*|The question[:]?\s*|AI:|Assistant:|Question[:\-]+\s*)\s*`)
	trailingLeakRe   = regexp.MustCompile(`(?i)\s*(Please respond.*)$`)
	questionSubstrRe = regexp.MustCompile(`([^?]{5,250}\?)`)
	lineSplitRe      = regexp.MustCompile(`[\r\n]+`)
)

// Sanitize post-processes raw model output into a clean single utterance.
// It strips leading conversational preambles and trailing instruction
// leakage. When requireQuestion is set it extracts the first line containing
// a question mark (preferring the shortest question-like substring of 5-250
// characters) or, if none exists, converts the first available sentence into
// a question by replacing its trailing period with a question mark.
//
// The result may be empty; callers must then substitute a deterministic
// fallback utterance — silence is never returned to the candidate.
func Sanitize(raw string, requireQuestion bool) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	// Preambles stack ("Sure, here is the question: ..."), so strip until
	// the text stops shrinking.
	for {
		next := strings.TrimSpace(preambleRe.ReplaceAllString(s, ""))
		if next == s {
			break
		}
		s = next
	}
	s = trailingLeakRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if !requireQuestion {
		return s
	}
	return extractFirstQuestion(s)
}

// extractFirstQuestion finds the first line that contains a '?' and returns
// its shortest question-like substring. When no line contains a question
// mark the first non-empty line is converted into a question.
func extractFirstQuestion(text string) string {
	var lines []string
	for _, ln := range lineSplitRe.Split(text, -1) {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}

	for _, ln := range lines {
		if !strings.Contains(ln, "?") {
			continue
		}
		if m := questionSubstrRe.FindStringSubmatch(ln); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ln
	}

	first := text
	if len(lines) > 0 {
		first = lines[0]
	}
	first = strings.TrimSpace(first)
	if first == "" {
		return ""
	}
	if !strings.HasSuffix(first, "?") {
		first = strings.TrimRight(first, ".") + "?"
	}
	return first
}
