package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ashureev/peakchat/internal/domain"
)

// Slot is the named handoff slot holding one serialized session.
type Slot struct {
	repo Repository
	key  string
}

// NewSlot binds key to the repository.
func NewSlot(repo Repository, key string) *Slot {
	return &Slot{repo: repo, key: key}
}

// Save serializes s into the slot.
func (sl *Slot) Save(ctx context.Context, s *domain.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return sl.repo.SaveSession(ctx, &domain.SessionSlot{
		Key:         sl.key,
		SessionID:   s.ID,
		PayloadJSON: string(payload),
	})
}

// Load returns the session in the slot, or nil when the slot is empty.
func (sl *Slot) Load(ctx context.Context) (*domain.Session, error) {
	slot, err := sl.repo.LoadSession(ctx, sl.key)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, nil
	}
	var s domain.Session
	if err := json.Unmarshal([]byte(slot.PayloadJSON), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session slot %s: %w", sl.key, err)
	}
	return &s, nil
}

// Clear deletes the slot and returns the ID of the session it held.
func (sl *Slot) Clear(ctx context.Context) (string, error) {
	slot, err := sl.repo.LoadSession(ctx, sl.key)
	if err != nil {
		return "", err
	}
	if slot == nil {
		return "", nil
	}
	if err := sl.repo.DeleteSession(ctx, sl.key); err != nil {
		return "", err
	}
	return slot.SessionID, nil
}
