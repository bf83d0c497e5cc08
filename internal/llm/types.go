// Package llm talks to an OpenAI-compatible chat-completions endpoint.
package llm

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/ashureev/peakchat/internal/domain"
)

// Request is the chat-completions request body.
type Request struct {
	Model       string            `json:"model"`
	Messages    []domain.ChatTurn `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

// Response is the chat-completions response body. Providers disagree on
// where the reply lives, so every known location is kept raw.
type Response struct {
	Choices []Choice `json:"choices"`
}

// Choice is one completion candidate.
type Choice struct {
	Message *ChoiceMessage  `json:"message,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Text    json.RawMessage `json:"text,omitempty"`
}

// ChoiceMessage is the OpenAI-style message object inside a choice.
type ChoiceMessage struct {
	Role    string          `json:"role,omitempty"`
	Content json.RawMessage `json:"content"`
}

var (
	errNoChoices = errors.New("response has no choices")
	errNoContent = errors.New("response content could not be located")
)

// Text extracts the reply text, trying choices[0].message.content, then
// choices[0].content, then choices[0].text. The first non-empty string wins.
func (r *Response) Text() (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", &ParseError{Err: errNoChoices}
	}
	c := r.Choices[0]
	candidates := []json.RawMessage{c.Content, c.Text}
	if c.Message != nil {
		candidates = append([]json.RawMessage{c.Message.Content}, candidates...)
	}
	for _, raw := range candidates {
		if s, ok := rawString(raw); ok && s != "" {
			return s, nil
		}
	}
	return "", &ParseError{Err: errNoContent}
}

// MessageContent returns choices[0].message.content untouched. The value is
// usually a JSON string but some providers return an object.
func (r *Response) MessageContent() (json.RawMessage, bool) {
	if r == nil || len(r.Choices) == 0 || r.Choices[0].Message == nil {
		return nil, false
	}
	raw := bytes.TrimSpace(r.Choices[0].Message.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte(`""`)) {
		return nil, false
	}
	return raw, true
}

func rawString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
