package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/peakchat/internal/agent"
	"github.com/ashureev/peakchat/internal/domain"
	"github.com/ashureev/peakchat/internal/identity"
	"github.com/ashureev/peakchat/internal/session"
)

// Client frame types.
const (
	frameSend = "send"
	frameEnd  = "end"
	framePing = "ping"
)

// Server frame types.
const (
	frameMessage = "message"
	frameBusy    = "busy"
	frameIdle    = "idle"
	frameCapped  = "capped"
	frameEnded   = "ended"
	frameError   = "error"
	framePong    = "pong"
)

type clientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

type serverFrame struct {
	Type     string            `json:"type"`
	Message  *domain.Message   `json:"message,omitempty"`
	Segments []domain.Segment  `json:"segments,omitempty"`
	Session  *session.Snapshot `json:"session,omitempty"`
	Notice   string            `json:"notice,omitempty"`
	Error    string            `json:"error,omitempty"`
	Status   int               `json:"status,omitempty"`
}

// ChatWS handles GET /ws/chat. Frames are processed one at a time, so a
// socket never has two sends in flight; a second socket for the same
// device still gets a busy error from the session.
func (h *Handler) ChatWS(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	reqID := chiMiddleware.GetReqID(r.Context())

	opts := &websocket.AcceptOptions{}
	if h.cfg == nil || h.cfg.IsDevelopment() {
		opts.OriginPatterns = []string{"*"}
	} else {
		opts.OriginPatterns = originHosts(h.cfg.AllowedOrigins())
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat closed"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	connID := h.conns.Register(userID, ws)
	defer h.conns.Unregister(userID, connID)
	slog.Info("Chat socket connected", "user_id", userID, "conn_id", connID, "ip", identity.IPFromRequest(r))

	ctx := r.Context()
	if m, err := h.sessions.Get(userID); err == nil {
		snap := m.Snapshot()
		h.writeFrame(ctx, ws, serverFrame{Type: frameIdle, Session: &snap})
	}

	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, ws, &frame); err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("Chat socket closed by client", "user_id", userID)
			} else {
				slog.Warn("Chat socket read error", "error", err, "user_id", userID)
			}
			return
		}

		switch frame.Type {
		case frameSend:
			h.handleSendFrame(ctx, ws, userID, frame.Content, reqID)
		case frameEnd:
			snap, err := h.end(ctx, userID, agent.ChannelWebSocket, reqID)
			if err != nil {
				h.writeError(ctx, ws, err)
				continue
			}
			h.writeFrame(ctx, ws, serverFrame{Type: frameEnded, Session: &snap})
		case framePing:
			h.writeFrame(ctx, ws, serverFrame{Type: framePong})
		default:
			h.writeFrame(ctx, ws, serverFrame{Type: frameError, Error: "unknown frame type", Status: http.StatusBadRequest})
		}
	}
}

func (h *Handler) handleSendFrame(ctx context.Context, ws *websocket.Conn, userID, content, reqID string) {
	h.writeFrame(ctx, ws, serverFrame{Type: frameBusy})

	res, err := h.send(ctx, userID, agent.ChannelWebSocket, content, reqID)
	if err != nil && !errors.Is(err, session.ErrPersistFailed) {
		h.writeError(ctx, ws, err)
		h.writeIdle(ctx, ws, userID)
		return
	}

	h.writeMessage(ctx, ws, res.UserMessage)
	if res.Reply != nil {
		h.writeMessage(ctx, ws, *res.Reply)
	}
	if res.Capped {
		snap := res.Snapshot
		h.writeFrame(ctx, ws, serverFrame{Type: frameCapped, Session: &snap, Notice: res.Notice})
		if err != nil {
			h.writeError(ctx, ws, err)
		}
		return
	}
	snap := res.Snapshot
	h.writeFrame(ctx, ws, serverFrame{Type: frameIdle, Session: &snap})
}

func (h *Handler) writeMessage(ctx context.Context, ws *websocket.Conn, msg domain.Message) {
	h.writeFrame(ctx, ws, serverFrame{Type: frameMessage, Message: &msg, Segments: msg.Segments()})
}

func (h *Handler) writeIdle(ctx context.Context, ws *websocket.Conn, userID string) {
	m, err := h.sessions.Get(userID)
	if err != nil {
		return
	}
	snap := m.Snapshot()
	h.writeFrame(ctx, ws, serverFrame{Type: frameIdle, Session: &snap})
}

func (h *Handler) writeError(ctx context.Context, ws *websocket.Conn, err error) {
	status := sessionStatus(err)
	msg := err.Error()
	if status == http.StatusBadGateway {
		msg = session.ErrSendFailed.Error()
	}
	h.writeFrame(ctx, ws, serverFrame{Type: frameError, Error: msg, Status: status})
}

func (h *Handler) writeFrame(ctx context.Context, ws *websocket.Conn, frame serverFrame) {
	if err := wsjson.Write(ctx, ws, frame); err != nil {
		slog.Debug("Failed to write chat frame", "type", frame.Type, "error", err)
	}
}

// originHosts strips the scheme from each origin, as AcceptOptions matches
// on host patterns.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if rest, ok := strings.CutPrefix(o, "https://"); ok {
			o = rest
		} else if rest, ok := strings.CutPrefix(o, "http://"); ok {
			o = rest
		}
		hosts = append(hosts, o)
	}
	return hosts
}
