package interview

import (
	"fmt"
	"strings"
)

// systemPersona is the interviewer persona sent with every generation
// request. It front-loads the output-shape constraints so even weak models
// tend to produce a single usable utterance.
const systemPersona = "You are a concise, professional interviewer for junior candidates. " +
	"Always produce ONE short output only. If asking a question, produce exactly one question sentence and nothing else. " +
	"Do NOT include meta commentary, greetings, or numbered lists. Keep language simple and direct."

// Fixed assistant utterances. These are contract text: transports and tests
// rely on them verbatim.
const (
	// Greeting opens every session and re-opens it after a defensive reset.
	Greeting = "Hello, I am your interview partner. Which role would you like to practice?"

	// Clarification is re-emitted, without any state change, whenever the
	// quality gate rejects an utterance.
	Clarification = "I didn't catch that — could you please repeat briefly?"
)

// fallbackFollowup is used when follow-up generation yields nothing usable
// and the role has no dedicated fallback.
const fallbackFollowup = "Can you provide one concrete example or a metric for that?"

// roleFallbackFollowups are deterministic per-role follow-ups for when the
// model produces no usable question.
var roleFallbackFollowups = map[Role]string{
	RoleSoftware:  "Can you give the time and space complexity of your approach?",
	RoleAnalytics: "Which metric would you track to verify this change worked?",
	RoleCustom:    "Can you clarify which detail I should probe?",
}

// FollowupFallback returns the canned follow-up question for a role.
func FollowupFallback(role Role) string {
	if fu, ok := roleFallbackFollowups[role]; ok {
		return fu
	}
	return fallbackFollowup
}

// ComposeQuestion builds the instruction for rephrasing a base bank prompt
// into one crisp interview question. base and roleName are interpolated
// verbatim.
func ComposeQuestion(base, roleName string) string {
	return fmt.Sprintf(
		"Turn into one crisp interview question for a fresher.\nBase: %s\nRole: %s\nRespond with ONLY one clear question sentence.",
		base, roleName,
	)
}

// ComposeFollowup builds the instruction for generating exactly one focused
// follow-up that requests a single missing, measurable detail from the
// candidate's answer.
func ComposeFollowup(answer, roleName string) string {
	return fmt.Sprintf(
		"Candidate answer: %s\nRole: %s\n"+
			"You are an interviewer. Generate exactly one concise follow-up question "+
			"that requests a single missing specific detail (example: metric, complexity, time, version, example). "+
			"Do NOT repeat the user's words; ask precisely and concisely.",
		answer, roleName,
	)
}

// ComposeFeedback builds the instruction for the final scored feedback block.
// The format line is contract: four named 0-10 scores, three improvement
// bullets, one improved example paragraph.
func ComposeFeedback(transcript string) string {
	return "You are an experienced interviewer. Given the transcript below, produce structured feedback. " +
		"Return EXACTLY this format (no extra lines):\n" +
		"Communication (0-10): <score>\n" +
		"Role Knowledge (0-10): <score>\n" +
		"Problem Solving (0-10): <score>\n" +
		"Conciseness (0-10): <score>\n" +
		"3 Improvements:\n- x\n- y\n- z\n" +
		"Improved example answer (one paragraph):\n\n" +
		"Transcript:\n" + transcript
}

// Transcript renders history as "speaker: text" lines, the form all
// transcript-level prompts and heuristics consume.
func Transcript(history []Turn) string {
	lines := make([]string, len(history))
	for i, turn := range history {
		lines[i] = string(turn.Speaker) + ": " + turn.Text
	}
	return strings.Join(lines, "\n")
}
