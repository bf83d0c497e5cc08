package domain

import (
	"regexp"
	"strings"
)

// Role tags a turn sent to or received from the completion model.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Sender identifies who authored a rendered message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// ChatTurn is one history unit sent to the model.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Message is one rendered chat bubble. Immutable once appended.
type Message struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Sender  Sender `json:"sender"`
}

// Segment is a piece of message content, either spoken text or a
// parenthesised non-verbal cue such as "(sighs)".
type Segment struct {
	Text      string `json:"text"`
	NonVerbal bool   `json:"non_verbal"`
}

var nonVerbalPattern = regexp.MustCompile(`\([^)]+\)`)

// Segments splits the content into spoken text and non-verbal cues in order.
// Whitespace-only fragments between cues are dropped.
func (m Message) Segments() []Segment {
	var out []Segment
	rest := m.Content
	for _, loc := range nonVerbalPattern.FindAllStringIndex(m.Content, -1) {
		offset := len(m.Content) - len(rest)
		if text := strings.TrimSpace(rest[:loc[0]-offset]); text != "" {
			out = append(out, Segment{Text: text})
		}
		out = append(out, Segment{Text: m.Content[loc[0]:loc[1]], NonVerbal: true})
		rest = m.Content[loc[1]:]
	}
	if text := strings.TrimSpace(rest); text != "" {
		out = append(out, Segment{Text: text})
	}
	return out
}
