package interview

// Phase is the dialogue state machine's position in its fixed transition
// graph.
type Phase string

const (
	// PhaseAwaitRole is the initial phase: the next utterance is treated as
	// the candidate's role description.
	PhaseAwaitRole Phase = "await_role"

	// PhaseAwaitAnswer means a question has been asked and the next
	// utterance is the candidate's answer to it.
	PhaseAwaitAnswer Phase = "await_answer"

	// PhaseAwaitFollowup means a follow-up has been asked and the next
	// utterance answers it, after which the cursor advances.
	PhaseAwaitFollowup Phase = "await_followup"

	// PhaseDone is terminal: feedback has been delivered.
	PhaseDone Phase = "done"
)

// Speaker identifies the author of a transcript turn.
type Speaker string

const (
	SpeakerAssistant Speaker = "assistant"
	SpeakerUser      Speaker = "user"
)

// Turn is one utterance in the session transcript.
type Turn struct {
	Speaker Speaker
	Text    string
}

// Session is the mutable state of one interview run. It is mutated only by
// the Machine; callers must serialise access per session (the session
// manager's per-entry lock provides this).
//
// Invariants: Cursor never exceeds len(Questions); Role, RolePhrase, and
// Questions are set exactly once, before the first question is asked;
// History only grows and is never reordered.
type Session struct {
	Phase Phase

	// Role is the classified role category. Set once during role
	// resolution.
	Role Role

	// RolePhrase is the short spoken role description extracted from the
	// candidate's role sentence, used in the confirmation utterance.
	RolePhrase string

	// Questions is the per-session sampled asking order. Fixed at role
	// resolution.
	Questions []string

	// Cursor indexes the question currently in play, in [0, len(Questions)].
	// Reaching len(Questions) triggers feedback.
	Cursor int

	// History is the append-only transcript.
	History []Turn
}

// NewSession returns a fresh session in the initial phase.
func NewSession() *Session {
	return &Session{Phase: PhaseAwaitRole}
}

// reset returns the session to its initial state. Used both for the
// defensive unknown-phase recovery and for the restart-after-done policy.
func (s *Session) reset() {
	*s = Session{Phase: PhaseAwaitRole}
}

// append records one turn. Call only after the turn's text has passed
// sanitization (or is a deterministic fallback), so a failed turn never
// leaves a partial entry behind.
func (s *Session) append(speaker Speaker, text string) {
	s.History = append(s.History, Turn{Speaker: speaker, Text: text})
}
