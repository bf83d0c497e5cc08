// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/peakchat/internal/domain"
)

// Backend names accepted by New.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Repository defines the interface for persisting device records and
// session handoff slots.
type Repository interface {
	// GetUser retrieves a user by their user ID. It returns nil, nil when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// SaveSession writes the slot, replacing any previous payload for its key.
	SaveSession(ctx context.Context, slot *domain.SessionSlot) error

	// LoadSession reads the slot for key. It returns nil, nil when absent.
	LoadSession(ctx context.Context, key string) (*domain.SessionSlot, error)

	// DeleteSession removes the slot for key.
	DeleteSession(ctx context.Context, key string) error

	// CleanupExpiredSessions removes slots not updated within ttl.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}

// New opens the repository selected by backend.
func New(backend, dbPath string) (Repository, error) {
	switch backend {
	case "", BackendSQLite:
		return NewSQLite(dbPath)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
