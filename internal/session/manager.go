// Package session runs the counseling practice conversation state machine.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/peakchat/internal/domain"
)

// SeedMessage opens every session on the counselor's behalf.
const SeedMessage = "안녕하세요, 상담사님. 저는 발표할 때마다 너무 긴장돼서 상담을 받고 싶어요."

// DefaultCap is the default number of exchanges per session.
const DefaultCap = 10

// NoticeSessionEnding accompanies the send that reaches the cap.
const NoticeSessionEnding = "session ending"

// Responder produces the assistant reply for userText given the prior history.
type Responder interface {
	SendMessage(ctx context.Context, userText string, history []domain.ChatTurn) (string, error)
}

// Store persists the finalized session handoff.
type Store interface {
	Save(ctx context.Context, s *domain.Session) error
	Load(ctx context.Context) (*domain.Session, error)
	// Clear empties the slot and returns the ID of the session it held,
	// or "" when it was already empty.
	Clear(ctx context.Context) (string, error)
}

// State is a Manager lifecycle state.
type State string

const (
	StateInitializing State = "initializing"
	StateActive       State = "active"
	StateBusy         State = "busy"
	StateCapped       State = "capped"
	StateEndedByUser  State = "ended_by_user"
	StateFinalized    State = "finalized"
)

// Outcome records how a session ended.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeCapped      Outcome = "capped"
	OutcomeEndedByUser Outcome = "ended_by_user"
)

// Config configures a Manager.
type Config struct {
	Cap  int
	Seed string
	Now  func() time.Time

	// OnReplace is called with the ID of a previous session whose slot was
	// cleared because the device started a new one.
	OnReplace func(userID, previousSessionID string)
}

func (c Config) withDefaults() Config {
	if c.Cap <= 0 {
		c.Cap = DefaultCap
	}
	if c.Seed == "" {
		c.Seed = SeedMessage
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Snapshot is a point-in-time copy of a Manager's state.
type Snapshot struct {
	ID            string            `json:"id"`
	State         State             `json:"state"`
	Outcome       Outcome           `json:"outcome,omitempty"`
	Messages      []domain.Message  `json:"messages"`
	ResponseCount int               `json:"response_count"`
	Cap           int               `json:"cap"`
	Remaining     int               `json:"remaining"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	Turns         []domain.ChatTurn `json:"-"`
}

// SendResult describes one accepted send.
type SendResult struct {
	UserMessage domain.Message  `json:"user_message"`
	Reply       *domain.Message `json:"reply,omitempty"`
	Capped      bool            `json:"capped"`
	Notice      string          `json:"notice,omitempty"`
	Snapshot    Snapshot        `json:"session"`
}

// Manager owns one conversation. State transitions happen under mu; the
// completion call runs unlocked while the state is StateBusy.
type Manager struct {
	id        string
	responder Responder
	store     Store
	cfg       Config

	mu            sync.Mutex
	state         State
	outcome       Outcome
	messages      []domain.Message
	turns         []domain.ChatTurn
	responseCount int
	startTime     time.Time
	endTime       *time.Time
	lastActivity  time.Time
	lastMsgID     int64
}

// NewManager creates a Manager in StateInitializing.
func NewManager(id string, responder Responder, store Store, cfg Config) *Manager {
	cfg = cfg.withDefaults()
	now := cfg.Now()
	return &Manager{
		id:           id,
		responder:    responder,
		store:        store,
		cfg:          cfg,
		state:        StateInitializing,
		startTime:    now,
		lastActivity: now,
	}
}

// ID returns the session ID.
func (m *Manager) ID() string { return m.id }

// Start sends the seed message with empty history and moves to StateActive.
// A failed seed still leaves the session usable with empty lists.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateInitializing {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	seed := m.cfg.Seed
	m.mu.Unlock()

	reply, err := m.responder.SendMessage(context.WithoutCancel(ctx), seed, nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateActive
	m.responseCount = 0
	m.touch()
	if err != nil {
		slog.Warn("seed message failed, starting with empty session", "session_id", m.id, "error", err)
		return nil
	}
	m.appendLocked(domain.RoleUser, seed)
	m.appendLocked(domain.RoleAssistant, reply)
	return nil
}

// Send submits one counselor message. Blank input and sends while a reply is
// pending are rejected, never queued. The send that reaches the cap records
// only the user turn, finalizes the session, and skips the completion call.
func (m *Manager) Send(ctx context.Context, text string) (SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return SendResult{}, ErrBlankInput
	}

	m.mu.Lock()
	switch m.state {
	case StateActive:
	case StateBusy:
		m.mu.Unlock()
		return SendResult{}, ErrBusy
	default:
		m.mu.Unlock()
		return SendResult{}, ErrNotActive
	}
	m.touch()

	if m.responseCount >= m.cfg.Cap-1 {
		defer m.mu.Unlock()
		userMsg := m.appendLocked(domain.RoleUser, text)
		m.responseCount++
		m.markEndedLocked(StateCapped, OutcomeCapped)
		res := SendResult{UserMessage: userMsg, Capped: true, Notice: NoticeSessionEnding}
		err := m.persistLocked(ctx)
		res.Snapshot = m.snapshotLocked()
		return res, err
	}

	history := make([]domain.ChatTurn, len(m.turns))
	copy(history, m.turns)
	m.responseCount++
	userMsg := m.appendLocked(domain.RoleUser, text)
	m.state = StateBusy
	m.mu.Unlock()

	reply, err := m.responder.SendMessage(context.WithoutCancel(ctx), text, history)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateActive
	m.touch()
	if err != nil {
		m.messages = m.messages[:len(m.messages)-1]
		m.turns = m.turns[:len(m.turns)-1]
		m.responseCount--
		slog.Warn("send failed, rolled back", "session_id", m.id, "error", err)
		return SendResult{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	replyMsg := m.appendLocked(domain.RoleAssistant, reply)
	return SendResult{
		UserMessage: userMsg,
		Reply:       &replyMsg,
		Snapshot:    m.snapshotLocked(),
	}, nil
}

// End finalizes the session at the counselor's request. It also retries the
// persist of a session whose earlier finalization failed to save.
func (m *Manager) End(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateActive:
		m.markEndedLocked(StateEndedByUser, OutcomeEndedByUser)
	case StateCapped, StateEndedByUser:
	case StateBusy:
		return Snapshot{}, ErrBusy
	default:
		return Snapshot{}, ErrNotActive
	}
	m.touch()
	err := m.persistLocked(ctx)
	return m.snapshotLocked(), err
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Session returns the conversation in its persisted shape.
func (m *Manager) Session() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionLocked()
}

// LastActivity returns the time of the last accepted operation.
func (m *Manager) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

func (m *Manager) touch() {
	m.lastActivity = m.cfg.Now()
}

func (m *Manager) appendLocked(role domain.Role, content string) domain.Message {
	sender := domain.SenderUser
	if role == domain.RoleAssistant {
		sender = domain.SenderAI
	}
	msg := domain.Message{ID: m.nextMessageIDLocked(), Content: content, Sender: sender}
	m.messages = append(m.messages, msg)
	m.turns = append(m.turns, domain.ChatTurn{Role: role, Content: content})
	return msg
}

// nextMessageIDLocked returns a millisecond timestamp, bumped past the last
// issued ID so IDs stay strictly increasing.
func (m *Manager) nextMessageIDLocked() int64 {
	id := m.cfg.Now().UnixMilli()
	if id <= m.lastMsgID {
		id = m.lastMsgID + 1
	}
	m.lastMsgID = id
	return id
}

func (m *Manager) markEndedLocked(state State, outcome Outcome) {
	end := m.cfg.Now()
	m.endTime = &end
	m.state = state
	m.outcome = outcome
}

func (m *Manager) persistLocked(ctx context.Context) error {
	if err := m.store.Save(ctx, m.sessionLocked()); err != nil {
		slog.Error("failed to persist session", "session_id", m.id, "outcome", m.outcome, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	m.state = StateFinalized
	slog.Info("session finalized",
		"session_id", m.id,
		"outcome", m.outcome,
		"response_count", m.responseCount,
	)
	return nil
}

func (m *Manager) sessionLocked() *domain.Session {
	turns := make([]domain.ChatTurn, len(m.turns))
	copy(turns, m.turns)
	s := &domain.Session{
		ID:    m.id,
		Turns: turns,
		Metrics: domain.SessionMetrics{
			ResponseCount: m.responseCount,
			StartTime:     m.startTime,
		},
	}
	if m.endTime != nil {
		end := *m.endTime
		s.Metrics.EndTime = &end
	}
	return s
}

func (m *Manager) snapshotLocked() Snapshot {
	msgs := make([]domain.Message, len(m.messages))
	copy(msgs, m.messages)
	turns := make([]domain.ChatTurn, len(m.turns))
	copy(turns, m.turns)
	snap := Snapshot{
		ID:            m.id,
		State:         m.state,
		Outcome:       m.outcome,
		Messages:      msgs,
		Turns:         turns,
		ResponseCount: m.responseCount,
		Cap:           m.cfg.Cap,
		Remaining:     max(m.cfg.Cap-m.responseCount, 0),
		StartTime:     m.startTime,
	}
	if m.endTime != nil {
		end := *m.endTime
		snap.EndTime = &end
	}
	return snap
}
