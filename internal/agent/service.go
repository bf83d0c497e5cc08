package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashureev/peakchat/internal/domain"
	"github.com/ashureev/peakchat/internal/llm"
)

// Service produces the client's replies using a chat-completions backend.
type Service struct {
	completer llm.Completer
	retrier   llm.Retrier
	model     string
}

// NewService creates a new agent service.
func NewService(completer llm.Completer, cfg Config) (*Service, error) {
	if completer == nil {
		return nil, fmt.Errorf("agent: completer is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("agent: model is required")
	}
	return &Service{
		completer: completer,
		retrier:   llm.FixedBackoff{MaxRetries: cfg.MaxRetries, Delay: cfg.RetryDelay},
		model:     cfg.Model,
	}, nil
}

// WithRetrier replaces the retry policy.
func (s *Service) WithRetrier(r llm.Retrier) *Service {
	s.retrier = r
	return s
}

// SendMessage returns the client's reply to userText given the prior history.
// history must not already contain userText. When every attempt fails the
// in-character FallbackReply is returned with a nil error; the only error
// is cancellation of ctx.
func (s *Service) SendMessage(ctx context.Context, userText string, history []domain.ChatTurn) (string, error) {
	req := llm.Request{
		Model:    s.model,
		Messages: buildMessages(userText, history),
	}

	var reply string
	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		resp, err := s.completer.Complete(ctx, req)
		if err != nil {
			return err
		}
		text, err := resp.Text()
		if err != nil {
			return err
		}
		reply = text
		return nil
	})
	if err == nil {
		return reply, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}

	slog.Error("completion attempts exhausted, replying with fallback",
		"model", s.model,
		"history_len", len(history),
		"error", err,
	)
	return FallbackReply, nil
}
