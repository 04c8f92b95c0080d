// Package phonetic matches mis-heard words against a known vocabulary using
// Double Metaphone codes ranked by Jaro-Winkler similarity.
//
// The matcher runs two passes:
//
//  1. Phonetic candidates: Double Metaphone codes are computed for every
//     token of the input and of each vocabulary entry. Entries sharing at
//     least one code with the input become candidates.
//  2. Ranking: candidates are scored with Jaro-Winkler on the original
//     strings (case-insensitive); the best one wins when it clears the
//     phonetic threshold. When no entry aligns phonetically, a stricter
//     pure-similarity pass runs over the whole vocabulary as a fallback.
//
// Multi-word entries ("human resources") are handled by comparing full
// strings, space-stripped concatenations, and the best token pair.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score a phonetic
// candidate must reach to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for the fallback
// pass used when nothing matches phonetically. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher aligns words with vocabulary entries by pronunciation similarity.
// It is read-only after construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match finds the vocabulary entry most phonetically similar to word, which
// may be a single token or a space-separated phrase.
//
// When matched is false, corrected equals word unchanged and confidence is 0.
func (m *Matcher) Match(word string, entities []string) (corrected string, confidence float64, matched bool) {
	if len(entities) == 0 || strings.TrimSpace(word) == "" {
		return word, 0, false
	}

	wordLower := strings.ToLower(strings.TrimSpace(word))
	wordTokens := strings.Fields(wordLower)
	wordCodes := metaphoneCodes(wordTokens)

	var (
		bestEntity   string
		bestScore    float64
		bestPhonetic bool
	)

	for _, entity := range entities {
		entityLower := strings.ToLower(strings.TrimSpace(entity))
		if entityLower == "" {
			continue
		}
		entityTokens := strings.Fields(entityLower)

		phonetic := codesOverlap(wordCodes, metaphoneCodes(entityTokens))
		score := similarity(wordTokens, entityTokens, wordLower, entityLower)

		switch {
		case phonetic && score >= m.phoneticThreshold:
			if !bestPhonetic || score > bestScore {
				bestEntity, bestScore, bestPhonetic = entity, score, true
			}
		case !phonetic && !bestPhonetic && score >= m.fuzzyThreshold && score > bestScore:
			bestEntity, bestScore = entity, score
		}
	}

	if bestEntity == "" {
		return word, 0, false
	}
	return bestEntity, bestScore, true
}

// metaphoneCodes returns the union of primary and secondary Double Metaphone
// codes for the tokens. Empty codes are excluded.
func metaphoneCodes(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		primary, secondary := matchr.DoubleMetaphone(t)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity is the highest Jaro-Winkler score between the input and the
// entity across three comparisons: the full strings, the space-stripped
// concatenations, and the best single token pair. The token-pair comparison
// lets one spoken word line up with one word of a multi-word entry.
func similarity(inputTokens, entityTokens []string, inputFull, entityFull string) float64 {
	score := matchr.JaroWinkler(inputFull, entityFull, false)

	if len(inputTokens) > 1 || len(entityTokens) > 1 {
		if s := matchr.JaroWinkler(strings.Join(inputTokens, ""), strings.Join(entityTokens, ""), false); s > score {
			score = s
		}
	}

	for _, it := range inputTokens {
		for _, et := range entityTokens {
			if s := matchr.JaroWinkler(it, et, false); s > score {
				score = s
			}
		}
	}
	return score
}
