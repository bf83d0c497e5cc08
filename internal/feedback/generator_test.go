package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/peakchat/internal/domain"
	"github.com/ashureev/peakchat/internal/llm"
)

func newTestGenerator(t *testing.T, h http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client, err := llm.NewClient(llm.ClientConfig{BaseURL: srv.URL, APIKey: "k"})
	require.NoError(t, err)

	cfg := DefaultGeneratorConfig()
	cfg.Model = "feedback-model"
	gen, err := NewGenerator(client, cfg)
	require.NoError(t, err)
	return gen
}

func contentResponse(w http.ResponseWriter, content any) {
	raw, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	_, _ = w.Write(raw)
}

func TestGenerateSendsSingleScoringRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req llm.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "feedback-model", req.Model)
		require.NotNil(t, req.Temperature)
		assert.InDelta(t, 0.1, *req.Temperature, 1e-9)
		assert.Equal(t, 2000, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, domain.ChatTurn{Role: domain.RoleSystem, Content: SystemMessage}, req.Messages[0])
		assert.Equal(t, BuildPrompt(sampleSession()), req.Messages[1].Content)

		contentResponse(w, "```json\n"+validFeedbackJSON+"\n```")
	})

	got := gen.Generate(context.Background(), sampleSession())
	assert.Equal(t, Parse(validFeedbackJSON), got)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGenerateAcceptsObjectContent(t *testing.T) {
	t.Parallel()

	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		contentResponse(w, json.RawMessage(validFeedbackJSON))
	})

	assert.Equal(t, Parse(validFeedbackJSON), gen.Generate(context.Background(), sampleSession()))
}

func TestGenerateFallsBackToDefault(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "non-2xx", handler: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}},
		{name: "malformed body", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}},
		{name: "missing content", handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"text":"hi"}]}`))
		}},
		{name: "malformed json content", handler: func(w http.ResponseWriter, r *http.Request) {
			contentResponse(w, `{"summary": `)
		}},
		{name: "missing detailedFeedback", handler: func(w http.ResponseWriter, r *http.Request) {
			contentResponse(w, `{"summary": {"strengths": [], "improvements": []}, "rubric": [], "sentenceAnalysis": {}}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			})

			assert.Equal(t, Default(), gen.Generate(context.Background(), sampleSession()))
			assert.EqualValues(t, 1, calls.Load(), "feedback must not retry")
		})
	}
}

func TestGenerateNetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := llm.NewClient(llm.ClientConfig{BaseURL: url, APIKey: "k"})
	require.NoError(t, err)
	gen, err := NewGenerator(client, GeneratorConfig{Model: "m"})
	require.NoError(t, err)

	assert.Equal(t, Default(), gen.Generate(context.Background(), sampleSession()))
}

func TestNewGeneratorValidates(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator(nil, GeneratorConfig{Model: "m"})
	assert.Error(t, err)
}
