package phonetic_test

import (
	"testing"

	"github.com/mockingbird-ai/mockingbird/internal/transcript/phonetic"
)

var roleVocab = []string{"software", "sales", "marketing", "analytics", "retail", "human resources"}

func TestMatch_PhoneticHit(t *testing.T) {
	m := phonetic.New()

	tests := []struct {
		word string
		want string
	}{
		{"sails", "sales"},
		{"markating", "marketing"},
		{"retale", "retail"},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got, conf, ok := m.Match(tt.word, roleVocab)
			if !ok {
				t.Fatalf("Match(%q) did not match, want %q", tt.word, tt.want)
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.word, got, tt.want)
			}
			if conf <= 0 || conf > 1 {
				t.Errorf("confidence = %v, want in (0, 1]", conf)
			}
		})
	}
}

func TestMatch_ExactWord(t *testing.T) {
	m := phonetic.New()
	got, conf, ok := m.Match("sales", roleVocab)
	if !ok || got != "sales" {
		t.Fatalf("Match(sales) = %q, %v, want exact hit", got, ok)
	}
	if conf != 1.0 {
		t.Errorf("confidence = %v, want 1.0", conf)
	}
}

func TestMatch_NoMatch_ReturnsInputUnchanged(t *testing.T) {
	m := phonetic.New()
	for _, word := range []string{"xylophone", "zqzqzq", "bridge"} {
		got, conf, ok := m.Match(word, roleVocab)
		if ok {
			t.Errorf("Match(%q) matched %q, want no match", word, got)
			continue
		}
		if got != word || conf != 0 {
			t.Errorf("Match(%q) = (%q, %v), want input unchanged with zero confidence", word, got, conf)
		}
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := phonetic.New()
	if _, _, ok := m.Match("sails", nil); ok {
		t.Error("Match with empty vocabulary reported a match")
	}
	if _, _, ok := m.Match("   ", roleVocab); ok {
		t.Error("Match with blank word reported a match")
	}
}

func TestMatch_ThresholdOptions(t *testing.T) {
	// An impossible threshold suppresses an otherwise solid phonetic match.
	strict := phonetic.New(phonetic.WithPhoneticThreshold(1.01), phonetic.WithFuzzyThreshold(1.01))
	if _, _, ok := strict.Match("sails", roleVocab); ok {
		t.Error("Match succeeded despite impossible thresholds")
	}
}
