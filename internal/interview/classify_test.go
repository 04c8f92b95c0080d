package interview_test

import (
	"strings"
	"testing"

	"github.com/mockingbird-ai/mockingbird/internal/interview"
)

func userTurns(msgs ...string) []interview.Turn {
	history := make([]interview.Turn, 0, len(msgs)*2)
	for _, msg := range msgs {
		history = append(history,
			interview.Turn{Speaker: interview.SpeakerAssistant, Text: "And your answer?"},
			interview.Turn{Speaker: interview.SpeakerUser, Text: msg},
		)
	}
	return history
}

func TestClassifyCandidate(t *testing.T) {
	longAnswer := strings.Repeat("word ", 45)

	tests := []struct {
		name    string
		history []interview.Turn
		want    interview.Label
	}{
		{
			"edge-case one-word answer",
			userTurns("ok", "I used a binary search over the sorted input", "Index the lookup table"),
			interview.LabelEdgeCase,
		},
		{
			"edge-case symbol flood",
			userTurns("it works like this !!!???!!! trust me honestly", "another normal answer here"),
			interview.LabelEdgeCase,
		},
		{
			"confused uncertainty phrase",
			userTurns("honestly no idea about that one sorry", "I would try caching the result somewhere"),
			interview.LabelConfused,
		},
		{
			"confused single utterance",
			userTurns("I would shard the database across regions"),
			interview.LabelConfused,
		},
		{
			"chatty long answer",
			userTurns(longAnswer, "a shorter but still normal answer"),
			interview.LabelChatty,
		},
		{
			"efficient short answers",
			userTurns("I would use a hash map here", "Batch the writes and flush once"),
			interview.LabelEfficient,
		},
		{
			"general default",
			userTurns(
				"I would use a hash map here because lookups dominate the workload profile",
				"Batch the writes and flush once per interval to amortize the cost of the fsync",
			),
			interview.LabelGeneral,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interview.ClassifyCandidate(tt.history); got != tt.want {
				t.Errorf("ClassifyCandidate = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyCandidate_PriorityOrder(t *testing.T) {
	// "no idea" is both terse (2 words → edge-case) and uncertain (confused).
	// Edge-case is checked first and must win.
	history := userTurns("no idea", "a second normal answer to avoid the single-utterance rule")
	if got := interview.ClassifyCandidate(history); got != interview.LabelEdgeCase {
		t.Errorf("ClassifyCandidate = %q, want %q", got, interview.LabelEdgeCase)
	}
}

func TestLabelReason_CoversEveryLabel(t *testing.T) {
	labels := []interview.Label{
		interview.LabelEdgeCase,
		interview.LabelConfused,
		interview.LabelChatty,
		interview.LabelEfficient,
		interview.LabelGeneral,
	}
	for _, label := range labels {
		if interview.LabelReason(label) == "" {
			t.Errorf("LabelReason(%q) is empty", label)
		}
	}
}
