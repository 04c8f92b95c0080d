// Package httpapi exposes the interview dialogue over HTTP and WebSocket.
//
// Routes:
//
//	POST   /api/session/start          — create a session, returns the greeting
//	POST   /api/session/{id}/utterance — one text utterance in, one reply out
//	POST   /api/session/{id}/audio     — one recorded utterance in, one reply out
//	DELETE /api/session/{id}           — discard a session
//	GET    /api/session/live           — WebSocket carrying the same turn protocol
//
// Replies carry the assistant text, optional synthesized speech (base64 in
// JSON), and a done flag; after done the same session accepts further input
// and restarts with a fresh greeting.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/mockingbird-ai/mockingbird/internal/app"
	"github.com/mockingbird-ai/mockingbird/internal/interview"
	"github.com/mockingbird-ai/mockingbird/internal/observe"
	"github.com/mockingbird-ai/mockingbird/internal/resilience"
	"github.com/mockingbird-ai/mockingbird/pkg/provider/stt"
)

// maxAudioBytes bounds one uploaded utterance (~5 minutes of 16 kHz mono WAV).
const maxAudioBytes = 10 << 20

// SessionService is the dialogue surface the transport needs. Implemented by
// [app.SessionManager].
type SessionService interface {
	Start(ctx context.Context) (string, *interview.Reply, error)
	Handle(ctx context.Context, id, text string) (*interview.Reply, error)
	End(ctx context.Context, id string) error
}

// Server handles the interview HTTP API. Construct with [NewServer] and mount
// via [Server.Register].
type Server struct {
	sessions SessionService
	stt      stt.Provider
	sttCfg   stt.TranscribeConfig
	log      *slog.Logger
}

// ServerOption is a functional option for [NewServer].
type ServerOption func(*Server)

// WithSTT attaches a speech recognition provider for the audio endpoints.
// Without it, audio uploads are rejected with 501.
func WithSTT(p stt.Provider, cfg stt.TranscribeConfig) ServerOption {
	return func(s *Server) {
		s.stt = p
		s.sttCfg = cfg
	}
}

// WithServerLogger sets the structured logger. Defaults to slog.Default().
func WithServerLogger(log *slog.Logger) ServerOption {
	return func(s *Server) { s.log = log }
}

// NewServer creates a Server over the given session service.
func NewServer(sessions SessionService, opts ...ServerOption) (*Server, error) {
	if sessions == nil {
		return nil, errors.New("httpapi: session service must not be nil")
	}
	s := &Server{
		sessions: sessions,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Register mounts all API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/session/start", s.handleStart)
	mux.HandleFunc("POST /api/session/{id}/utterance", s.handleUtterance)
	mux.HandleFunc("POST /api/session/{id}/audio", s.handleAudio)
	mux.HandleFunc("DELETE /api/session/{id}", s.handleEnd)
	mux.HandleFunc("GET /api/session/live", s.handleLive)
}

// turnResponse is the JSON body of every successful dialogue reply. Audio is
// base64-encoded by encoding/json.
type turnResponse struct {
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text,omitempty"`
	Text      string `json:"text"`
	Audio     []byte `json:"audio,omitempty"`
	Done      bool   `json:"done"`
}

type utteranceRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id, reply, err := s.sessions.Start(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, turnResponse{
		SessionID: id,
		Text:      reply.Text,
		Audio:     reply.Audio,
		Done:      reply.Done,
	})
}

func (s *Server) handleUtterance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req utteranceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	reply, err := s.sessions.Handle(r.Context(), id, req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{
		SessionID: id,
		UserText:  req.Text,
		Text:      reply.Text,
		Audio:     reply.Audio,
		Done:      reply.Done,
	})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if s.stt == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "speech recognition is not configured"})
		return
	}

	audio, err := readAudio(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	text, err := s.stt.Transcribe(r.Context(), audio, s.sttCfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	reply, err := s.sessions.Handle(r.Context(), id, text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turnResponse{
		SessionID: id,
		UserText:  text,
		Text:      reply.Text,
		Audio:     reply.Audio,
		Done:      reply.Done,
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.End(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readAudio extracts the utterance bytes from either a multipart form (field
// "audio") or a raw request body.
func readAudio(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
			return nil, errors.New("invalid multipart form")
		}
		f, _, err := r.FormFile("audio")
		if err != nil {
			return nil, errors.New(`multipart form is missing the "audio" file`)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxAudioBytes+1))
		if err != nil {
			return nil, errors.New("read audio upload")
		}
		if len(data) > maxAudioBytes {
			return nil, errors.New("audio upload too large")
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes+1))
	if err != nil {
		return nil, errors.New("read audio upload")
	}
	if len(data) == 0 {
		return nil, errors.New("empty audio body")
	}
	if len(data) > maxAudioBytes {
		return nil, errors.New("audio upload too large")
	}
	return data, nil
}

// writeError maps service errors onto HTTP statuses: unknown sessions are
// 404, exhausted or circuit-broken providers are 503, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := observe.Logger(r.Context())

	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, resilience.ErrAllFailed), errors.Is(err, resilience.ErrCircuitOpen):
		log.Error("dialogue backends unavailable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service temporarily unavailable"})
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
	default:
		log.Error("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", "error", err)
	}
}
