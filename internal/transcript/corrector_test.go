package transcript_test

import (
	"testing"

	"github.com/mockingbird-ai/mockingbird/internal/transcript"
)

func TestCorrect_FixesMisheardRoleWords(t *testing.T) {
	c := transcript.New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"single misheard word",
			"I want to practice for the sails role",
			"I want to practice for the sales role",
		},
		{
			"split compound",
			"soft wear please",
			"software please",
		},
		{
			"misheard with punctuation",
			"sails, I think",
			"sales, I think",
		},
		{
			"garbled marketing",
			"markating manager",
			"marketing manager",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Correct(tt.in); got != tt.want {
				t.Errorf("Correct(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCorrect_LeavesCleanTextAlone(t *testing.T) {
	c := transcript.New()

	for _, in := range []string{
		"",
		"software developer",
		"I want to practice for the sales role",
		"human resources",
		"backend engineering",
		"a custom role about beekeeping",
	} {
		if got := c.Correct(in); got != in {
			t.Errorf("Correct(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestCorrect_StopwordsNeverCorrected(t *testing.T) {
	c := transcript.New()
	// "custom" is protected so it is not pulled toward "customer".
	in := "custom please"
	if got := c.Correct(in); got != in {
		t.Errorf("Correct(%q) = %q, want unchanged", in, got)
	}
}

func TestCorrect_CustomVocabulary(t *testing.T) {
	c := transcript.New(transcript.WithVocabulary([]string{"kubernetes"}))
	got := c.Correct("I deploy on koobernetties daily")
	want := "I deploy on kubernetes daily"
	if got != want {
		t.Errorf("Correct = %q, want %q", got, want)
	}
}

// stubMatcher always resolves eligible windows to a fixed entity.
type stubMatcher struct{ entity string }

func (s stubMatcher) Match(word string, entities []string) (string, float64, bool) {
	return s.entity, 0.9, true
}

func TestCorrect_UsesInjectedMatcher(t *testing.T) {
	c := transcript.New(
		transcript.WithMatcher(stubMatcher{entity: "sales"}),
		transcript.WithVocabulary([]string{"sales"}),
	)
	got := c.Correct("the blorp role")
	if got != "the sales role" {
		t.Errorf("Correct = %q, want %q", got, "the sales role")
	}
}

func TestDefaultVocabulary_ReturnsCopy(t *testing.T) {
	a := transcript.DefaultVocabulary()
	a[0] = "mutated"
	b := transcript.DefaultVocabulary()
	if b[0] == "mutated" {
		t.Error("DefaultVocabulary exposes internal state")
	}
}
