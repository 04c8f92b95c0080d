package report

import (
	"testing"
)

const sampleFeedback = "Communication (0-10): 7\n" +
	"Role Knowledge (0-10): 6\n" +
	"Problem Solving (0-10): 10\n" +
	"Conciseness (0-10): 8\n" +
	"3 Improvements:\n- be specific\n- name metrics\n- give examples\n" +
	"Improved example answer (one paragraph):\nA hash table stores key-value pairs."

func TestParseScores_FullBlock(t *testing.T) {
	t.Parallel()

	got := ParseScores(sampleFeedback)
	want := Scores{Communication: 7, RoleKnowledge: 6, ProblemSolving: 10, Conciseness: 8}
	if got != want {
		t.Errorf("ParseScores() = %+v, want %+v", got, want)
	}
}

func TestParseScores_PartialBlock(t *testing.T) {
	t.Parallel()

	got := ParseScores("Communication (0-10): 5\nSome prose without the other lines.")
	if got.Communication != 5 {
		t.Errorf("Communication = %d, want 5", got.Communication)
	}
	for name, score := range map[string]int{
		"RoleKnowledge":  got.RoleKnowledge,
		"ProblemSolving": got.ProblemSolving,
		"Conciseness":    got.Conciseness,
	} {
		if score != -1 {
			t.Errorf("%s = %d, want -1 for missing line", name, score)
		}
	}
}

func TestParseScores_NoScores(t *testing.T) {
	t.Parallel()

	got := ParseScores("The model ignored the requested format entirely.")
	want := Scores{Communication: -1, RoleKnowledge: -1, ProblemSolving: -1, Conciseness: -1}
	if got != want {
		t.Errorf("ParseScores() = %+v, want %+v", got, want)
	}
}

func TestParseScores_OutOfRangeRejected(t *testing.T) {
	t.Parallel()

	got := ParseScores("Communication (0-10): 11\nConciseness (0-10): 0")
	if got.Communication != -1 {
		t.Errorf("Communication = %d, want -1 for out-of-range value", got.Communication)
	}
	if got.Conciseness != 0 {
		t.Errorf("Conciseness = %d, want 0", got.Conciseness)
	}
}

func TestParseScores_CaseInsensitive(t *testing.T) {
	t.Parallel()

	got := ParseScores("communication (0-10): 4\nROLE KNOWLEDGE (0-10): 3")
	if got.Communication != 4 {
		t.Errorf("Communication = %d, want 4", got.Communication)
	}
	if got.RoleKnowledge != 3 {
		t.Errorf("RoleKnowledge = %d, want 3", got.RoleKnowledge)
	}
}

func TestParseScores_MidLineNumbersIgnored(t *testing.T) {
	t.Parallel()

	// The pattern is anchored to line starts; prose mentioning a score line
	// inline must not match.
	got := ParseScores("I'd rate your Communication (0-10): 9 overall.\nConciseness (0-10): 6")
	if got.Communication != -1 {
		t.Errorf("Communication = %d, want -1 for mid-line mention", got.Communication)
	}
	if got.Conciseness != 6 {
		t.Errorf("Conciseness = %d, want 6", got.Conciseness)
	}
}
