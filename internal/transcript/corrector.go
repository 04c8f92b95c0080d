// Package transcript repairs mis-heard role vocabulary in speech-to-text
// output before the dialogue controller classifies it.
//
// Role utterances are short, so a single recognition slip ("sails" for
// "sales", "soft wear" for "software") routes the whole interview to the
// wrong question bank. The [Corrector] slides n-gram windows over the
// transcript and replaces windows that phonetically align with a known
// vocabulary entry; everything else passes through untouched.
package transcript

import (
	"strings"
	"unicode"

	"github.com/mockingbird-ai/mockingbird/internal/interview"
	"github.com/mockingbird-ai/mockingbird/internal/transcript/phonetic"
)

// minTokenRunes is the shortest single token eligible for correction.
// Anything shorter carries too little signal to correct safely.
const minTokenRunes = 3

// defaultVocabulary holds the role keywords the interview classifier keys
// on, plus their common spoken variants.
var defaultVocabulary = []string{
	"software", "developer", "development", "engineer", "engineering",
	"backend", "frontend", "programmer",
	"data", "analyst", "analytics",
	"retail",
	"sales",
	"product", "manager",
	"hr", "human resources",
	"support", "customer",
	"marketing",
}

// stopwords are never corrected, alone or inside a window. The list covers
// function words plus the framing vocabulary of a role request ("I want to
// practice for the X role"); correcting those would mangle the utterance
// without improving classification. "custom" is protected so that requests
// for a custom role are not pulled toward "customer".
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "i": {}, "to": {}, "for": {}, "of": {},
	"in": {}, "on": {}, "at": {}, "as": {}, "and": {}, "or": {}, "my": {},
	"me": {}, "we": {}, "be": {}, "do": {}, "would": {}, "want": {},
	"like": {}, "love": {}, "please": {}, "role": {}, "roles": {},
	"job": {}, "position": {}, "practice": {}, "practicing": {},
	"interview": {}, "custom": {},
}

// DefaultVocabulary returns a copy of the built-in role vocabulary.
func DefaultVocabulary() []string {
	return append([]string(nil), defaultVocabulary...)
}

// Matcher resolves a word or phrase to a vocabulary entry by pronunciation
// similarity. When matched is false, corrected must equal word unchanged.
// Implementations must be safe for concurrent use.
type Matcher interface {
	Match(word string, entities []string) (corrected string, confidence float64, matched bool)
}

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithMatcher replaces the default phonetic matcher.
func WithMatcher(m Matcher) Option {
	return func(c *Corrector) {
		c.matcher = m
	}
}

// WithVocabulary replaces the default role vocabulary.
func WithVocabulary(words []string) Option {
	return func(c *Corrector) {
		c.vocab = words
	}
}

// Corrector rewrites mis-heard role vocabulary in a transcript. It is
// read-only after construction and safe for concurrent use.
type Corrector struct {
	matcher  Matcher
	vocab    []string
	vocabSet map[string]struct{}
	maxWords int
}

var _ interview.RoleCorrector = (*Corrector)(nil)

// New returns a [Corrector] using Double Metaphone matching over the
// default role vocabulary unless overridden by options.
func New(opts ...Option) *Corrector {
	c := &Corrector{
		matcher: phonetic.New(),
		vocab:   defaultVocabulary,
	}
	for _, o := range opts {
		o(c)
	}

	c.vocabSet = make(map[string]struct{}, len(c.vocab))
	c.maxWords = 1
	for _, v := range c.vocab {
		c.vocabSet[strings.ToLower(v)] = struct{}{}
		if n := len(strings.Fields(v)); n > c.maxWords {
			c.maxWords = n
		}
	}
	return c
}

// Correct returns text with mis-heard role vocabulary replaced. At each
// token position the longest matching window wins, so multi-word entries
// take precedence over their parts. Text with nothing to correct is
// returned unchanged.
func (c *Corrector) Correct(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 || len(c.vocab) == 0 {
		return text
	}

	var out []string
	i := 0
	for i < len(tokens) {
		maxN := c.maxWords
		if i+maxN > len(tokens) {
			maxN = len(tokens) - i
		}

		consumed := 0
		for n := maxN; n >= 1; n-- {
			window := tokens[i : i+n]
			stripped, lead, trail := stripWindow(window)
			key := strings.ToLower(strings.Join(stripped, " "))

			if _, exact := c.vocabSet[key]; exact {
				// Already canonical; keep the speaker's tokens as spoken.
				out = append(out, window...)
				consumed = n
				break
			}
			if !c.eligible(key, n) {
				continue
			}

			// Multi-token windows are compared space-stripped so that a
			// window only matches as a whole, never because one of its
			// tokens happens to resemble an entry.
			probe := key
			if n > 1 {
				probe = strings.Join(strings.Fields(key), "")
			}
			entity, _, ok := c.matcher.Match(probe, c.vocab)
			if !ok {
				continue
			}

			replacement := strings.Fields(strings.ToLower(entity))
			replacement[0] = lead + replacement[0]
			replacement[len(replacement)-1] += trail
			out = append(out, replacement...)
			consumed = n
			break
		}

		if consumed == 0 {
			out = append(out, tokens[i])
			consumed = 1
		}
		i += consumed
	}

	return strings.Join(out, " ")
}

// eligible reports whether a window key may be matched against the
// vocabulary. Stopwords and very short single tokens are never corrected,
// and a multi-token window must not swallow a token that is already exact
// vocabulary.
func (c *Corrector) eligible(key string, n int) bool {
	tokens := strings.Fields(key)
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if _, stop := stopwords[t]; stop {
			return false
		}
		if n > 1 {
			if _, exact := c.vocabSet[t]; exact {
				return false
			}
		}
	}
	if n == 1 && len([]rune(key)) < minTokenRunes {
		return false
	}
	return true
}

// stripWindow removes edge punctuation from each token for matching and
// returns the leading and trailing punctuation of the window so it can be
// re-attached to a replacement.
func stripWindow(window []string) (stripped []string, lead, trail string) {
	stripped = make([]string, len(window))
	for i, t := range window {
		stripped[i] = strings.TrimFunc(t, isEdgePunct)
	}
	first := window[0]
	last := window[len(window)-1]
	lead = first[:len(first)-len(strings.TrimLeftFunc(first, isEdgePunct))]
	trail = last[len(strings.TrimRightFunc(last, isEdgePunct)):]
	return stripped, lead, trail
}

func isEdgePunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}
