// Package interview implements the conversation orchestration core of the
// mock-interview service: role classification, input quality gating, the
// question bank, prompt composition, response sanitization, the dialogue
// state machine, and the end-of-session transcript classification.
//
// The package consumes speech recognition, speech synthesis, and language
// model inference purely through the provider interfaces in pkg/provider;
// it owns no I/O beyond those calls.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/mockingbird-ai/mockingbird/internal/resilience"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/llm"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/tts"
)

// Generation token budgets per purpose.
const (
	questionMaxTokens = 60
	followupMaxTokens = 60
	feedbackMaxTokens = 240
)

// defaultQuestionCount is the number of main questions per session.
const defaultQuestionCount = 3

// feedbackUnavailable is delivered when feedback generation yields nothing
// usable; the behavioural classification is still appended.
const feedbackUnavailable = "I could not produce detailed scores for this session."

// RoleCorrector fixes mis-heard role vocabulary in a transcript before
// classification ("sails" → "sales"). Implementations are best-effort and
// must return the input unchanged when nothing matches.
type RoleCorrector interface {
	Correct(text string) string
}

// Reply is one assistant turn returned to the transport.
type Reply struct {
	// Text is the assistant utterance. Never empty.
	Text string

	// Audio is the synthesized speech for Text. Nil when no TTS provider is
	// configured or synthesis failed (synthesis failure never fails a turn).
	Audio []byte

	// Done reports that this reply is the terminal feedback; the session
	// expects no further input. The transport's continuation flag is !Done.
	Done bool

	// Clarification reports that this reply is a re-prompt for low-quality
	// input rather than dialogue progress; the session state is unchanged.
	Clarification bool
}

// Machine drives interview sessions. One Machine serves all sessions; all
// per-interview state lives in the Session values passed in. Callers must
// serialise calls per session but may run different sessions concurrently.
type Machine struct {
	llm       llm.Provider
	tts       tts.Provider
	voice     tts.VoiceProfile
	corrector RoleCorrector
	log       *slog.Logger

	questionCount int

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// MachineOption is a functional option for configuring a Machine.
type MachineOption func(*Machine)

// WithTTS attaches a speech synthesis provider and the voice to use.
// Without it replies carry text only.
func WithTTS(p tts.Provider, voice tts.VoiceProfile) MachineOption {
	return func(m *Machine) {
		m.tts = p
		m.voice = voice
	}
}

// WithRoleCorrector attaches a phonetic corrector applied to role utterances
// before classification.
func WithRoleCorrector(c RoleCorrector) MachineOption {
	return func(m *Machine) {
		m.corrector = c
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) MachineOption {
	return func(m *Machine) {
		m.log = log
	}
}

// WithQuestionCount sets how many main questions each session asks.
// Values below 1 are ignored. Defaults to 3.
func WithQuestionCount(n int) MachineOption {
	return func(m *Machine) {
		if n >= 1 {
			m.questionCount = n
		}
	}
}

// WithRand injects the randomness source used for question sampling, so
// tests can seed it. Defaults to a time-seeded source.
func WithRand(rng *rand.Rand) MachineOption {
	return func(m *Machine) {
		m.rng = rng
	}
}

// NewMachine creates a Machine backed by the given LLM provider.
func NewMachine(provider llm.Provider, opts ...MachineOption) (*Machine, error) {
	if provider == nil {
		return nil, errors.New("interview: llm provider must not be nil")
	}
	m := &Machine{
		llm:           provider,
		log:           slog.Default(),
		questionCount: defaultQuestionCount,
		rng:           rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Start begins (or defensively restarts) a session and returns the greeting.
func (m *Machine) Start(ctx context.Context, s *Session) (*Reply, error) {
	s.reset()
	return &Reply{Text: Greeting, Audio: m.speak(ctx, Greeting)}, nil
}

// HandleUtterance processes one candidate utterance and returns the next
// assistant reply. Low-quality input produces a clarification re-prompt with
// no state change. An utterance after the terminal phase restarts the
// session with a fresh greeting.
//
// Errors are returned only for unrecoverable generation failure (all LLM
// backends down); every other failure mode degrades to a deterministic
// fallback utterance. A returned error never leaves a session half-mutated:
// role and answer turns commit nothing before generation succeeds, and the
// final follow-up turn commits the answer first so that feedback generation
// sees the complete transcript and is reached again on the next utterance.
func (m *Machine) HandleUtterance(ctx context.Context, s *Session, text string) (*Reply, error) {
	text = strings.TrimSpace(text)

	if s.Phase == PhaseDone {
		// Restart-after-done policy: a fresh session begins with the greeting.
		s.reset()
		return &Reply{Text: Greeting, Audio: m.speak(ctx, Greeting)}, nil
	}

	if IsLowQuality(text) {
		return &Reply{Text: Clarification, Audio: m.speak(ctx, Clarification), Clarification: true}, nil
	}

	switch s.Phase {
	case PhaseAwaitRole:
		return m.resolveRole(ctx, s, text)

	case PhaseAwaitAnswer:
		return m.handleAnswer(ctx, s, text)

	case PhaseAwaitFollowup:
		return m.handleFollowupAnswer(ctx, s, text)

	default:
		// Corrupt phase value: recover by resetting, never surface an error
		// to the candidate.
		m.log.Warn("unknown session phase, resetting", "phase", s.Phase)
		s.reset()
		return &Reply{Text: Greeting, Audio: m.speak(ctx, Greeting)}, nil
	}
}

// resolveRole classifies the role utterance, fixes the question plan, and
// asks the first question.
func (m *Machine) resolveRole(ctx context.Context, s *Session, text string) (*Reply, error) {
	corrected := text
	if m.corrector != nil {
		corrected = m.corrector.Correct(text)
	}

	role := Classify(corrected)
	phrase := ExtractRolePhrase(corrected)

	m.mu.Lock()
	questions := Sample(m.rng, Questions(role), m.questionCount)
	m.mu.Unlock()

	q, err := m.phraseQuestion(ctx, questions[0], phrase)
	if err != nil {
		return nil, err
	}

	// The role plan is committed together with the first question, so a hard
	// generation failure above leaves the session untouched.
	s.Role = role
	s.RolePhrase = phrase
	s.Questions = questions
	s.Cursor = 0
	s.append(SpeakerAssistant, q)
	s.Phase = PhaseAwaitAnswer

	utterance := fmt.Sprintf("Great. We'll practice for the %s role. %s", phrase, q)
	return &Reply{Text: utterance, Audio: m.speak(ctx, utterance)}, nil
}

// askNextQuestion emits the question at the cursor, or the terminal
// feedback when the plan is exhausted.
func (m *Machine) askNextQuestion(ctx context.Context, s *Session) (*Reply, error) {
	if s.Cursor >= len(s.Questions) {
		return m.finalFeedback(ctx, s)
	}

	q, err := m.phraseQuestion(ctx, s.Questions[s.Cursor], s.RolePhrase)
	if err != nil {
		return nil, err
	}

	s.append(SpeakerAssistant, q)
	s.Phase = PhaseAwaitAnswer

	return &Reply{Text: q, Audio: m.speak(ctx, q)}, nil
}

// phraseQuestion rephrases a base bank prompt through the LLM, falling back
// to the base prompt itself (forced into question form) when generation
// yields nothing usable.
func (m *Machine) phraseQuestion(ctx context.Context, base, phrase string) (string, error) {
	q, err := m.complete(ctx, ComposeQuestion(base, phrase), questionMaxTokens, true)
	if err != nil {
		return "", err
	}
	if q == "" {
		q = base
		if !strings.HasSuffix(q, "?") {
			q = strings.TrimRight(q, ".") + "?"
		}
	}
	return q, nil
}

// handleAnswer records the answer and probes it with exactly one follow-up.
func (m *Machine) handleAnswer(ctx context.Context, s *Session, text string) (*Reply, error) {
	fu, err := m.complete(ctx, ComposeFollowup(text, s.RolePhrase), followupMaxTokens, true)
	if err != nil {
		return nil, err
	}
	if fu == "" {
		fu = FollowupFallback(s.Role)
	}

	s.append(SpeakerUser, text)
	s.append(SpeakerAssistant, fu)
	s.Phase = PhaseAwaitFollowup

	return &Reply{Text: fu, Audio: m.speak(ctx, fu)}, nil
}

// handleFollowupAnswer records the follow-up answer and either advances to
// the next question or produces the terminal feedback.
func (m *Machine) handleFollowupAnswer(ctx context.Context, s *Session, text string) (*Reply, error) {
	// Feedback generation sees the complete transcript, so the final answer
	// is committed before generation runs. A hard generation failure after
	// this point still leaves a consistent session.
	s.append(SpeakerUser, text)
	s.Cursor++
	return m.askNextQuestion(ctx, s)
}

// finalFeedback classifies the candidate, generates the scored feedback
// block, and terminates the session.
func (m *Machine) finalFeedback(ctx context.Context, s *Session) (*Reply, error) {
	label := ClassifyCandidate(s.History)

	fb, err := m.complete(ctx, ComposeFeedback(Transcript(s.History)), feedbackMaxTokens, false)
	if err != nil {
		return nil, err
	}
	if fb == "" {
		fb = feedbackUnavailable
	}
	fb += fmt.Sprintf("\n\nUser Type: %s\nReason: %s", label, LabelReason(label))

	s.append(SpeakerAssistant, fb)
	s.Phase = PhaseDone

	spoken := "Here is your final feedback. " + fb
	return &Reply{Text: fb, Audio: m.speak(ctx, spoken), Done: true}, nil
}

// complete runs one generation call and sanitizes the result. Transient
// provider failures and empty output both collapse to "" so the caller can
// substitute its deterministic fallback; only unrecoverable failures
// (context cancelled, all backends down) surface as errors.
func (m *Machine) complete(ctx context.Context, prompt string, maxTokens int, requireQuestion bool) (string, error) {
	resp, err := m.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPersona,
		Messages:     []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens:    maxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("interview: generation cancelled: %w", ctx.Err())
		}
		if errors.Is(err, resilience.ErrAllFailed) || errors.Is(err, resilience.ErrCircuitOpen) {
			return "", fmt.Errorf("interview: generation unavailable: %w", err)
		}
		m.log.Warn("generation failed, using fallback", "error", err)
		return "", nil
	}
	return Sanitize(resp.Content, requireQuestion), nil
}

// speak synthesizes text best-effort. Failure is logged and swallowed; the
// textual reply is always delivered.
func (m *Machine) speak(ctx context.Context, text string) []byte {
	if m.tts == nil {
		return nil
	}
	audio, err := m.tts.Synthesize(ctx, text, m.voice)
	if err != nil {
		m.log.Warn("speech synthesis failed, returning text only", "error", err)
		return nil
	}
	return audio
}
