package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/peakchat/internal/domain"
	"github.com/ashureev/peakchat/internal/llm"
)

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultGeneratorConfig returns the sampling parameters used for scoring.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{Temperature: 0.1, MaxTokens: 2000}
}

// Generator scores a session with a single completion call.
type Generator struct {
	completer llm.Completer
	cfg       GeneratorConfig
}

var errNoContent = errors.New("response has no message content")

// NewGenerator creates a Generator.
func NewGenerator(completer llm.Completer, cfg GeneratorConfig) (*Generator, error) {
	if completer == nil {
		return nil, fmt.Errorf("feedback: completer is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("feedback: model is required")
	}
	return &Generator{completer: completer, cfg: cfg}, nil
}

// Generate returns the feedback for s, or Default() when the call, the
// decode, or validation fails. It never retries and never returns an error.
func (g *Generator) Generate(ctx context.Context, s *domain.Session) domain.FeedbackResult {
	start := time.Now()
	result, err := g.generate(ctx, s)
	if err != nil {
		slog.Warn("feedback generation failed, using default",
			"session_id", s.ID,
			"model", g.cfg.Model,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return Default()
	}
	slog.Info("feedback generated",
		"session_id", s.ID,
		"model", g.cfg.Model,
		"rubric_items", len(result.Rubric),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result
}

func (g *Generator) generate(ctx context.Context, s *domain.Session) (domain.FeedbackResult, error) {
	temperature := g.cfg.Temperature
	resp, err := g.completer.Complete(ctx, llm.Request{
		Model: g.cfg.Model,
		Messages: []domain.ChatTurn{
			{Role: domain.RoleSystem, Content: SystemMessage},
			{Role: domain.RoleUser, Content: BuildPrompt(s)},
		},
		Temperature: &temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return domain.FeedbackResult{}, err
	}

	content, ok := resp.MessageContent()
	if !ok {
		return domain.FeedbackResult{}, &ParseError{Err: errNoContent}
	}
	return Decode(content)
}
