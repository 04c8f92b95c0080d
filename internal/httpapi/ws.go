package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/mockingbird-ai/mockingbird/internal/resilience"
)

// wsTurnTimeout bounds one full dialogue turn (STT + LLM + TTS) over the
// live socket.
const wsTurnTimeout = 60 * time.Second

// wsRequest is one client frame on the live socket.
type wsRequest struct {
	// Type is "start", "utterance", "audio", or "end".
	Type string `json:"type"`

	// Text carries the utterance for type "utterance".
	Text string `json:"text,omitempty"`

	// Audio carries one recorded utterance (base64 in JSON) for type "audio".
	Audio []byte `json:"audio,omitempty"`
}

// wsResponse is one server frame on the live socket.
type wsResponse struct {
	// Type is "reply" or "error".
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	UserText  string `json:"user_text,omitempty"`
	Text      string `json:"text,omitempty"`
	Audio     []byte `json:"audio,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleLive runs the dialogue over a WebSocket. One socket carries one
// session: the first "start" frame creates it, and closing the socket
// discards it.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	var sessionID string
	defer func() {
		if sessionID != "" {
			_ = s.sessions.End(context.WithoutCancel(ctx), sessionID)
		}
	}()

	for {
		var req wsRequest
		if err := readWS(ctx, conn, &req); err != nil {
			return
		}

		switch req.Type {
		case "start":
			if sessionID != "" {
				_ = s.sessions.End(ctx, sessionID)
				sessionID = ""
			}
			id, reply, err := s.sessions.Start(ctx)
			if err != nil {
				if !s.writeWSError(ctx, conn, err) {
					return
				}
				continue
			}
			sessionID = id
			if err := writeWS(ctx, conn, wsResponse{
				Type:      "reply",
				SessionID: id,
				Text:      reply.Text,
				Audio:     reply.Audio,
			}); err != nil {
				return
			}

		case "utterance", "audio":
			if sessionID == "" {
				if err := writeWS(ctx, conn, wsResponse{Type: "error", Error: "no session: send start first"}); err != nil {
					return
				}
				continue
			}
			if !s.handleWSTurn(ctx, conn, sessionID, req) {
				return
			}

		case "end":
			if sessionID != "" {
				_ = s.sessions.End(ctx, sessionID)
				sessionID = ""
			}
			conn.Close(websocket.StatusNormalClosure, "session ended")
			return

		default:
			if err := writeWS(ctx, conn, wsResponse{Type: "error", Error: "unknown message type"}); err != nil {
				return
			}
		}
	}
}

// handleWSTurn runs one utterance through STT (for audio frames) and the
// dialogue machine. Returns false when the socket is no longer usable.
func (s *Server) handleWSTurn(ctx context.Context, conn *websocket.Conn, sessionID string, req wsRequest) bool {
	turnCtx, cancel := context.WithTimeout(ctx, wsTurnTimeout)
	defer cancel()

	text := req.Text
	if req.Type == "audio" {
		if s.stt == nil {
			return writeWS(ctx, conn, wsResponse{Type: "error", Error: "speech recognition is not configured"}) == nil
		}
		if len(req.Audio) == 0 || len(req.Audio) > maxAudioBytes {
			return writeWS(ctx, conn, wsResponse{Type: "error", Error: "audio frame empty or too large"}) == nil
		}
		var err error
		text, err = s.stt.Transcribe(turnCtx, req.Audio, s.sttCfg)
		if err != nil {
			return s.writeWSError(ctx, conn, err)
		}
	}

	reply, err := s.sessions.Handle(turnCtx, sessionID, text)
	if err != nil {
		return s.writeWSError(ctx, conn, err)
	}

	return writeWS(ctx, conn, wsResponse{
		Type:      "reply",
		SessionID: sessionID,
		UserText:  text,
		Text:      reply.Text,
		Audio:     reply.Audio,
		Done:      reply.Done,
	}) == nil
}

// writeWSError reports a turn failure to the client. Provider exhaustion is
// recoverable from the client's perspective (retry later), so the socket
// stays open; true means keep serving the connection.
func (s *Server) writeWSError(ctx context.Context, conn *websocket.Conn, err error) bool {
	msg := "internal error"
	if errors.Is(err, resilience.ErrAllFailed) || errors.Is(err, resilience.ErrCircuitOpen) {
		msg = "service temporarily unavailable"
	}
	s.log.Error("live turn failed", "error", err)
	return writeWS(ctx, conn, wsResponse{Type: "error", Error: msg}) == nil
}

func readWS(ctx context.Context, conn *websocket.Conn, v any) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeWS(ctx context.Context, conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
