// Package agent implements the role-played counseling client.
package agent

import (
	"time"
)

// Config holds agent configuration.
type Config struct {
	Model      string
	MaxRetries int
	RetryDelay time.Duration
}

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// ConversationLogEvent is one line in a conversation log.
type ConversationLogEvent struct {
	Timestamp  string         `json:"ts"`
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	Channel    string         `json:"channel"`
	Direction  string         `json:"direction"`
	EventType  string         `json:"event_type"`
	ContentRaw string         `json:"content_raw"`
	Content    string         `json:"content"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// Conversation log event types.
const (
	EventSeedMessage      = "chat_seed_message"
	EventUserMessage      = "chat_user_message"
	EventAssistantMessage = "chat_assistant_message"
	EventSessionEnded     = "chat_session_ended"
)

// Conversation log channels and directions.
const (
	ChannelHTTP      = "chat_http"
	ChannelWebSocket = "chat_ws"

	DirectionOutbound = "outbound"
	DirectionInbound  = "inbound"
)

// NewConversationEvent stamps an event with the current time and a
// readability-cleaned copy of content.
func NewConversationEvent(userID, sessionID, channel, direction, eventType, content string, meta map[string]any) ConversationLogEvent {
	return ConversationLogEvent{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		UserID:     userID,
		SessionID:  sessionID,
		Channel:    channel,
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Content:    cleanForReadability(content),
		Meta:       meta,
	}
}
