package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mockingbird-ai/mockingbird/internal/interview"
	"github.com/mockingbird-ai/mockingbird/internal/observe"
	"github.com/mockingbird-ai/mockingbird/internal/report"
)

// Session lifetime housekeeping defaults.
const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = 1 * time.Minute
	archiveTimeout       = 5 * time.Second
)

// ErrSessionNotFound is returned for operations on unknown or expired
// session IDs.
var ErrSessionNotFound = errors.New("app: session not found")

// managedSession pairs one interview session with its own lock so the
// machine sees strictly serialised utterances per session.
type managedSession struct {
	mu    sync.Mutex
	state *interview.Session

	startedAt time.Time
	lastSeen  time.Time // guarded by the manager's mutex
}

// SessionInfo holds metadata about an active session.
type SessionInfo struct {
	SessionID string
	StartedAt time.Time
	LastSeen  time.Time
	Phase     interview.Phase
}

// SessionManagerConfig holds the dependencies for a [SessionManager].
// Machine is required; everything else is optional.
type SessionManagerConfig struct {
	Machine *interview.Machine

	// Reports receives one archived report per completed interview.
	Reports report.Store

	// Metrics instruments session lifecycle events.
	Metrics *observe.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// IdleTimeout evicts sessions with no utterances for this long.
	// Defaults to 30 minutes.
	IdleTimeout time.Duration
}

// SessionManager owns the registry of live interview sessions. Different
// sessions run concurrently; utterances within one session are serialised.
// All exported methods are safe for concurrent use.
type SessionManager struct {
	machine *interview.Machine
	reports report.Store
	metrics *observe.Metrics
	log     *slog.Logger

	idleTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*managedSession
}

// NewSessionManager creates a SessionManager with the given dependencies.
func NewSessionManager(cfg SessionManagerConfig) (*SessionManager, error) {
	if cfg.Machine == nil {
		return nil, errors.New("app: session manager requires a machine")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &SessionManager{
		machine:     cfg.Machine,
		reports:     cfg.Reports,
		metrics:     cfg.Metrics,
		log:         log,
		idleTimeout: idle,
		sessions:    make(map[string]*managedSession),
	}, nil
}

// Start creates a new session and returns its ID along with the greeting.
func (sm *SessionManager) Start(ctx context.Context) (string, *interview.Reply, error) {
	state := interview.NewSession()
	reply, err := sm.machine.Start(ctx, state)
	if err != nil {
		return "", nil, err
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	sm.mu.Lock()
	sm.sessions[id] = &managedSession{
		state:     state,
		startedAt: now,
		lastSeen:  now,
	}
	sm.mu.Unlock()

	if sm.metrics != nil {
		sm.metrics.SessionsStarted.Add(ctx, 1)
		sm.metrics.ActiveSessions.Add(ctx, 1)
	}
	sm.log.Info("session started", "session_id", id)

	return id, reply, nil
}

// Handle processes one candidate utterance for the given session. Completed
// interviews are archived to the report store before the terminal reply is
// returned; archival failure is logged, never surfaced to the candidate.
func (sm *SessionManager) Handle(ctx context.Context, id, text string) (*interview.Reply, error) {
	ms := sm.lookup(id)
	if ms == nil {
		return nil, ErrSessionNotFound
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	reply, err := sm.machine.HandleUtterance(ctx, ms.state, text)
	if err != nil {
		return nil, err
	}

	sm.touch(id)
	if sm.metrics != nil {
		sm.metrics.RecordTurn(ctx, string(ms.state.Phase))
		if reply.Clarification {
			sm.metrics.RecordClarification(ctx)
		}
	}

	if reply.Done {
		sm.archive(ctx, id, ms.state, reply.Text)
	}
	return reply, nil
}

// End removes a session. Ending an unknown session returns
// [ErrSessionNotFound].
func (sm *SessionManager) End(ctx context.Context, id string) error {
	sm.mu.Lock()
	_, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	if sm.metrics != nil {
		sm.metrics.ActiveSessions.Add(ctx, -1)
	}
	sm.log.Info("session ended", "session_id", id)
	return nil
}

// Info returns metadata for a session, or false for unknown IDs.
func (sm *SessionManager) Info(id string) (SessionInfo, bool) {
	sm.mu.Lock()
	ms, ok := sm.sessions[id]
	if !ok {
		sm.mu.Unlock()
		return SessionInfo{}, false
	}
	info := SessionInfo{
		SessionID: id,
		StartedAt: ms.startedAt,
		LastSeen:  ms.lastSeen,
	}
	sm.mu.Unlock()

	ms.mu.Lock()
	info.Phase = ms.state.Phase
	ms.mu.Unlock()
	return info, true
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// Run sweeps idle sessions until ctx is cancelled. Intended to run as one
// task of the application's errgroup.
func (sm *SessionManager) Run(ctx context.Context) error {
	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			sm.sweep(ctx)
		}
	}
}

// sweep evicts sessions idle longer than the configured timeout.
func (sm *SessionManager) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-sm.idleTimeout)

	sm.mu.Lock()
	var expired []string
	for id, ms := range sm.sessions {
		if ms.lastSeen.Before(cutoff) {
			expired = append(expired, id)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, id := range expired {
		if sm.metrics != nil {
			sm.metrics.ActiveSessions.Add(ctx, -1)
		}
		sm.log.Info("session expired", "session_id", id, "idle_timeout", sm.idleTimeout)
	}
}

func (sm *SessionManager) lookup(id string) *managedSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sessions[id]
}

func (sm *SessionManager) touch(id string) {
	sm.mu.Lock()
	if ms, ok := sm.sessions[id]; ok {
		ms.lastSeen = time.Now().UTC()
	}
	sm.mu.Unlock()
}

// archive persists a completed interview. Called with the session lock held,
// so the transcript cannot change underneath it. The archival context is
// detached from request cancellation: a client that hangs up right after the
// final reply must not lose the report.
func (sm *SessionManager) archive(ctx context.Context, id string, s *interview.Session, feedback string) {
	label := interview.ClassifyCandidate(s.History)

	if sm.metrics != nil {
		sm.metrics.RecordSessionCompleted(ctx, string(label))
	}

	if sm.reports == nil {
		return
	}

	transcript := make([]report.Turn, 0, len(s.History))
	for _, t := range s.History {
		transcript = append(transcript, report.Turn{
			Speaker: string(t.Speaker),
			Text:    t.Text,
		})
	}

	r := &report.Report{
		SessionID:  id,
		Role:       string(s.Role),
		RolePhrase: s.RolePhrase,
		Label:      string(label),
		Reason:     interview.LabelReason(label),
		Scores:     report.ParseScores(feedback),
		Feedback:   feedback,
		Transcript: transcript,
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	if err := sm.reports.Save(saveCtx, r); err != nil {
		sm.log.Error("report archival failed", "session_id", id, "error", err)
		return
	}
	sm.log.Info("session archived",
		"session_id", id,
		"role", r.Role,
		"label", r.Label)
}
