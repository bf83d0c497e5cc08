// Package api provides HTTP handlers for the PeakChat API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/peakchat/internal/agent"
	"github.com/ashureev/peakchat/internal/config"
	"github.com/ashureev/peakchat/internal/feedback"
	"github.com/ashureev/peakchat/internal/session"
	"github.com/ashureev/peakchat/internal/store"
)

const maxRequestBodySize = 64 << 10

// Handler serves the session, feedback and chat endpoints.
type Handler struct {
	repo     store.Repository
	sessions *session.Registry
	feedback *feedback.Service
	limiter  *RateLimiter
	conns    *ConnRegistry
	log      agent.ConversationLogger
	cfg      *config.Config
}

// Option customises a Handler.
type Option func(*Handler)

// WithConversationLogger records chat traffic to l.
func WithConversationLogger(l agent.ConversationLogger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithRateLimiter replaces the limiter derived from cfg.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(h *Handler) { h.limiter = rl }
}

// WithConnRegistry shares conns with the session sweeper.
func WithConnRegistry(conns *ConnRegistry) Option {
	return func(h *Handler) {
		if conns != nil {
			h.conns = conns
		}
	}
}

// NewHandler creates a Handler with its dependencies.
func NewHandler(repo store.Repository, sessions *session.Registry, fb *feedback.Service, cfg *config.Config, opts ...Option) *Handler {
	h := &Handler{
		repo:     repo,
		sessions: sessions,
		feedback: fb,
		conns:    NewConnRegistry(),
		log:      agent.NoopConversationLogger(),
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.limiter == nil && cfg != nil && cfg.RateLimit.Requests > 0 {
		h.limiter = NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	return h
}

// Close stops background work owned by the handler.
func (h *Handler) Close() {
	if h.limiter != nil {
		h.limiter.Stop()
	}
}

// RegisterRoutes registers the API and WebSocket routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/config", h.GetConfig)
		r.Route("/session", func(r chi.Router) {
			r.Post("/", h.StartSession)
			r.Get("/", h.GetSession)
			r.Post("/messages", h.SendMessage)
			r.Post("/end", h.EndSession)
			r.Get("/feedback", h.GetFeedback)
		})
	})
	r.Get("/ws/chat", h.ChatWS)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// sessionStatus maps session errors onto HTTP status codes.
func sessionStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrBlankInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrStartInProgress),
		errors.Is(err, session.ErrAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, session.ErrNotActive):
		return http.StatusGone
	case errors.Is(err, session.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSendFailed):
		return http.StatusBadGateway
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// sessionError writes err with its mapped status and returns that status.
func sessionError(w http.ResponseWriter, err error) int {
	status := sessionStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError && !errors.Is(err, session.ErrPersistFailed) {
		msg = "internal error"
	}
	if status == http.StatusBadGateway {
		msg = session.ErrSendFailed.Error()
	}
	Error(w, status, msg)
	return status
}
