package interview

import (
	"regexp"
	"strings"
)

// Role is one member of the fixed closed taxonomy that questions are
// organised by.
type Role string

const (
	RoleSoftware  Role = "software"
	RoleAnalytics Role = "analytics"
	RoleRetail    Role = "retail"
	RoleSales     Role = "sales"
	RoleProduct   Role = "product"
	RoleHR        Role = "hr"
	RoleSupport   Role = "support"
	RoleMarketing Role = "marketing"

	// RoleCustom is the catch-all for descriptions that match no keyword.
	RoleCustom Role = "custom"
)

// roleRule associates a role with its trigger keywords. Classify evaluates
// the rules in slice order and the first match wins, so the ordering below is
// part of the contract: overlapping keywords ("customer" vs "support",
// "data" appearing in many phrases) are resolved purely by position.
type roleRule struct {
	role     Role
	keywords []string
}

var roleRules = []roleRule{
	{RoleSoftware, []string{"soft", "dev", "engineer", "backend", "frontend", "programmer"}},
	{RoleAnalytics, []string{"data", "analyst", "analytics"}},
	{RoleRetail, []string{"retail"}},
	{RoleSales, []string{"sales", "bd "}},
	{RoleProduct, []string{"product", "pm"}},
	{RoleHR, []string{"hr"}},
	{RoleSupport, []string{"support", "customer"}},
	{RoleMarketing, []string{"marketing"}},
}

// Classify maps a free-text role description to a Role. Matching is
// case-insensitive substring containment, evaluated in declaration order;
// when nothing matches the catch-all RoleCustom is returned. The function is
// pure and total, including for the empty string.
func Classify(text string) Role {
	t := strings.ToLower(text)
	for _, rule := range roleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.role
			}
		}
	}
	return RoleCustom
}

// rolePhrasePatterns pull the role phrase out of full sentences like
// "I want to practice for the backend engineer role". Tried in order; the
// first capturing match wins.
var rolePhrasePatterns = []*regexp.Regexp{
	regexp.MustCompile(`role of (.+)`),
	regexp.MustCompile(`role as (.+)`),
	regexp.MustCompile(`for the (.+) role`),
	regexp.MustCompile(`i want to practice (?:for|as)\s*(.+?)[.?!]*$`),
	regexp.MustCompile(`for (?:a |an |the )?\s*(.+?)\s*(?:role|position)?[.?!]*$`),
}

var rolePhraseNoise = regexp.MustCompile(`\b(role|position|job|please)\b`)

var wordRe = regexp.MustCompile(`[a-zA-Z0-9]+`)

// ExtractRolePhrase returns a short human-readable role phrase from a spoken
// role sentence, for use in the confirmation utterance ("We'll practice for
// the backend engineer role"). It is best-effort: when no pattern matches it
// falls back to the trailing words of the sentence, and for empty input it
// returns a generic default.
func ExtractRolePhrase(sentence string) string {
	s := strings.ToLower(strings.TrimSpace(sentence))

	for _, p := range rolePhrasePatterns {
		m := p.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		candidate := rolePhraseNoise.ReplaceAllString(m[1], "")
		words := strings.Fields(candidate)
		if len(words) == 0 {
			continue
		}
		if len(words) > 6 {
			words = words[:6]
		}
		return strings.Join(words, " ")
	}

	words := wordRe.FindAllString(s, -1)
	switch {
	case len(words) == 0:
		return "software developer"
	case len(words) <= 3:
		return strings.Join(words, " ")
	default:
		return strings.Join(words[len(words)-3:], " ")
	}
}
