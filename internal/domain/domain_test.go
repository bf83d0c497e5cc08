package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageSegmentsSplitsNonVerbalCues(t *testing.T) {
	t.Parallel()

	msg := Message{Content: "(손을 만지작거리며) 음... 그게요. (한숨) 너무 떨려요"}

	got := msg.Segments()

	assert.Equal(t, []Segment{
		{Text: "(손을 만지작거리며)", NonVerbal: true},
		{Text: "음... 그게요."},
		{Text: "(한숨)", NonVerbal: true},
		{Text: "너무 떨려요"},
	}, got)
}

func TestMessageSegmentsPlainText(t *testing.T) {
	t.Parallel()

	got := Message{Content: "안녕하세요"}.Segments()
	assert.Equal(t, []Segment{{Text: "안녕하세요"}}, got)
	assert.Empty(t, Message{}.Segments())
}

func TestSessionTranscriptSkipsSystemTurns(t *testing.T) {
	t.Parallel()

	s := &Session{Turns: []ChatTurn{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
	}}

	assert.Equal(t, []ChatTurn{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
	}, s.Transcript())
	assert.Equal(t, 1, s.CountRole(RoleUser))
	assert.Equal(t, 1, s.CountRole(RoleSystem))
}

func TestSessionDuration(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := &Session{Metrics: SessionMetrics{StartTime: start}}
	assert.False(t, s.Finalized())
	assert.Zero(t, s.Duration())

	end := start.Add(12 * time.Minute)
	s.Metrics.EndTime = &end
	assert.True(t, s.Finalized())
	assert.Equal(t, 12*time.Minute, s.Duration())
}

func TestUserIdleFor(t *testing.T) {
	t.Parallel()

	now := time.Now()
	u := &User{LastSeenAt: now.Add(-5 * time.Minute)}
	assert.Equal(t, 5*time.Minute, u.IdleFor(now))

	u.LastSeenAt = now.Add(time.Minute)
	assert.Zero(t, u.IdleFor(now))
}
