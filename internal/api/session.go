package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/peakchat/internal/agent"
	"github.com/ashureev/peakchat/internal/domain"
	"github.com/ashureev/peakchat/internal/identity"
	"github.com/ashureev/peakchat/internal/session"
)

var errRateLimited = errors.New("rate limit exceeded")

// SendRequest is the body of POST /api/session/messages.
type SendRequest struct {
	Message string `json:"message"`
}

// StartSession handles POST /api/session.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	m, err := h.start(r.Context(), userID, agent.ChannelHTTP, chiMiddleware.GetReqID(r.Context()))
	if err != nil {
		sessionError(w, err)
		return
	}
	JSON(w, http.StatusCreated, m.Snapshot())
}

// GetSession handles GET /api/session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	m, err := h.sessions.Get(identity.UserIDFromContext(r.Context()))
	if err != nil {
		sessionError(w, err)
		return
	}
	JSON(w, http.StatusOK, m.Snapshot())
}

// SendMessage handles POST /api/session/messages.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.send(r.Context(), userID, agent.ChannelHTTP, req.Message, chiMiddleware.GetReqID(r.Context()))
	if err != nil {
		sessionError(w, err)
		return
	}
	JSON(w, http.StatusOK, res)
}

// EndSession handles POST /api/session/end.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.end(r.Context(), identity.UserIDFromContext(r.Context()), agent.ChannelHTTP, chiMiddleware.GetReqID(r.Context()))
	if err != nil {
		sessionError(w, err)
		return
	}
	JSON(w, http.StatusOK, snap)
}

// start replaces the device's session and logs the seed exchange.
func (h *Handler) start(ctx context.Context, userID, channel, reqID string) (*session.Manager, error) {
	m, err := h.sessions.Start(ctx, userID)
	if err != nil {
		return nil, err
	}

	snap := m.Snapshot()
	slog.Info("Chat session started", "user_id", userID, "session_id", snap.ID, "channel", channel)
	meta := map[string]any{"request_id": reqID}
	for _, msg := range snap.Messages {
		eventType, direction := agent.EventSeedMessage, agent.DirectionOutbound
		if msg.Sender == domain.SenderAI {
			eventType, direction = agent.EventAssistantMessage, agent.DirectionInbound
		}
		h.log.Log(agent.NewConversationEvent(userID, snap.ID, channel, direction, eventType, msg.Content, meta))
	}
	return m, nil
}

// send applies the per-device rate limit, forwards text to the live
// session and logs both sides of the exchange.
func (h *Handler) send(ctx context.Context, userID, channel, text, reqID string) (session.SendResult, error) {
	m, err := h.sessions.Get(userID)
	if err != nil {
		return session.SendResult{}, err
	}
	if h.limiter != nil && !h.limiter.Allow(userID) {
		return session.SendResult{}, errRateLimited
	}

	meta := map[string]any{"request_id": reqID}
	res, err := m.Send(ctx, text)
	if err != nil && !errors.Is(err, session.ErrPersistFailed) {
		if errors.Is(err, session.ErrSendFailed) {
			slog.Error("Chat send failed", "user_id", userID, "session_id", m.ID(), "error", err)
		}
		return session.SendResult{}, err
	}

	h.log.Log(agent.NewConversationEvent(userID, m.ID(), channel, agent.DirectionOutbound, agent.EventUserMessage, text, meta))
	if res.Reply != nil {
		h.log.Log(agent.NewConversationEvent(userID, m.ID(), channel, agent.DirectionInbound, agent.EventAssistantMessage, res.Reply.Content, meta))
	}
	if res.Capped {
		h.logEnded(userID, res.Snapshot, channel, reqID)
	}
	if err != nil {
		slog.Error("Failed to persist capped session", "user_id", userID, "session_id", m.ID(), "error", err)
		return res, err
	}
	return res, nil
}

// end finalizes the device's session at the counselor's request.
func (h *Handler) end(ctx context.Context, userID, channel, reqID string) (session.Snapshot, error) {
	m, err := h.sessions.Get(userID)
	if err != nil {
		return session.Snapshot{}, err
	}
	snap, err := m.End(ctx)
	if err != nil {
		if errors.Is(err, session.ErrPersistFailed) {
			slog.Error("Failed to persist ended session", "user_id", userID, "session_id", m.ID(), "error", err)
		}
		return snap, err
	}
	h.logEnded(userID, snap, channel, reqID)
	return snap, nil
}

func (h *Handler) logEnded(userID string, snap session.Snapshot, channel, reqID string) {
	slog.Info("Chat session ended", "user_id", userID, "session_id", snap.ID, "outcome", snap.Outcome, "responses", snap.ResponseCount)
	h.log.Log(agent.NewConversationEvent(userID, snap.ID, channel, agent.DirectionInbound, agent.EventSessionEnded, "", map[string]any{
		"request_id":     reqID,
		"outcome":        snap.Outcome,
		"response_count": snap.ResponseCount,
	}))
}
