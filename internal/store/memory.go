package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ashureev/peakchat/internal/domain"
)

const (
	userKeyPrefix = "user:"
	slotKeyPrefix = "slot:"
)

// MemoryStore implements Repository in process memory. Contents are lost
// on restart.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, 10*time.Minute)}
}

// GetUser retrieves a user by their user ID.
func (m *MemoryStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	x, ok := m.cache.Get(userKeyPrefix + userID)
	if !ok {
		return nil, nil
	}
	user := *x.(*domain.User)
	return &user, nil
}

// UpsertUser creates or updates a user record, keeping the original
// created_at.
func (m *MemoryStore) UpsertUser(_ context.Context, user *domain.User) error {
	stored := *user
	if x, ok := m.cache.Get(userKeyPrefix + user.UserID); ok {
		stored.CreatedAt = x.(*domain.User).CreatedAt
	}
	m.cache.Set(userKeyPrefix+user.UserID, &stored, cache.NoExpiration)
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (m *MemoryStore) UpdateLastSeen(_ context.Context, userID string, lastSeen time.Time) error {
	x, ok := m.cache.Get(userKeyPrefix + userID)
	if !ok {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
		return nil
	}
	user := *x.(*domain.User)
	user.LastSeenAt = lastSeen
	user.UpdatedAt = time.Now()
	m.cache.Set(userKeyPrefix+userID, &user, cache.NoExpiration)
	return nil
}

// SaveSession writes the handoff slot for slot.Key.
func (m *MemoryStore) SaveSession(_ context.Context, slot *domain.SessionSlot) error {
	stored := *slot
	now := time.Now()
	if x, ok := m.cache.Get(slotKeyPrefix + slot.Key); ok {
		if prev := x.(*domain.SessionSlot); prev.SessionID == slot.SessionID {
			stored.CreatedAt = prev.CreatedAt
		}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.cache.Set(slotKeyPrefix+slot.Key, &stored, cache.NoExpiration)
	return nil
}

// LoadSession reads the handoff slot for key.
func (m *MemoryStore) LoadSession(_ context.Context, key string) (*domain.SessionSlot, error) {
	x, ok := m.cache.Get(slotKeyPrefix + key)
	if !ok {
		return nil, nil
	}
	slot := *x.(*domain.SessionSlot)
	return &slot, nil
}

// DeleteSession removes the handoff slot for key.
func (m *MemoryStore) DeleteSession(_ context.Context, key string) error {
	m.cache.Delete(slotKeyPrefix + key)
	return nil
}

// CleanupExpiredSessions removes slots not updated within ttl.
func (m *MemoryStore) CleanupExpiredSessions(_ context.Context, ttl time.Duration) (int64, error) {
	threshold := time.Now().Add(-ttl)
	var n int64
	for key, item := range m.cache.Items() {
		slot, ok := item.Object.(*domain.SessionSlot)
		if !ok || !slot.UpdatedAt.Before(threshold) {
			continue
		}
		m.cache.Delete(key)
		n++
	}
	return n, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close empties the store.
func (m *MemoryStore) Close() error {
	m.cache.Flush()
	return nil
}
