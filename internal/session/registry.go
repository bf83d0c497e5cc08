package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoreFactory returns the handoff store for a device.
type StoreFactory func(userID string) Store

// Registry holds at most one live Manager per device.
type Registry struct {
	responder Responder
	stores    StoreFactory
	cfg       Config

	mu       sync.RWMutex
	managers map[string]*Manager
	starting map[string]*sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry(responder Responder, stores StoreFactory, cfg Config) *Registry {
	return &Registry{
		responder: responder,
		stores:    stores,
		cfg:       cfg.withDefaults(),
		managers:  make(map[string]*Manager),
		starting:  make(map[string]*sync.Mutex),
	}
}

// Cap returns the exchange cap applied to new sessions.
func (r *Registry) Cap() int { return r.cfg.Cap }

// Start creates and starts a fresh session for userID, replacing any
// previous one once the seed exchange completes. Concurrent starts for the
// same device fail with ErrStartInProgress.
func (r *Registry) Start(ctx context.Context, userID string) (*Manager, error) {
	lock := r.startLock(userID)
	if !lock.TryLock() {
		return nil, ErrStartInProgress
	}
	defer lock.Unlock()

	m := NewManager(uuid.NewString(), r.responder, r.stores(userID), r.cfg)
	if err := m.Start(ctx); err != nil {
		return nil, err
	}

	// One slot per device: drop the old handoff before the new session is
	// reachable.
	cleared, err := r.stores(userID).Clear(ctx)
	if err != nil {
		return nil, fmt.Errorf("clear previous session slot: %w", err)
	}

	r.mu.Lock()
	prev := r.managers[userID]
	r.managers[userID] = m
	r.mu.Unlock()

	if cleared != "" && r.cfg.OnReplace != nil {
		r.cfg.OnReplace(userID, cleared)
	}

	if prev != nil {
		slog.Info("replaced session", "user_id", userID, "previous_session_id", prev.ID(), "session_id", m.ID())
	} else {
		slog.Info("started session", "user_id", userID, "session_id", m.ID())
	}
	return m, nil
}

// Get returns the live session for userID.
func (r *Registry) Get(userID string) (*Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return m, nil
}

// Remove drops the session for userID.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, userID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.managers)
}

// EvictIdle removes sessions whose last activity is older than ttl and
// returns the affected user IDs. Busy sessions are kept.
func (r *Registry) EvictIdle(now time.Time, ttl time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for userID, m := range r.managers {
		if now.Sub(m.LastActivity()) < ttl {
			continue
		}
		if m.Snapshot().State == StateBusy {
			continue
		}
		delete(r.managers, userID)
		if lock, ok := r.starting[userID]; ok && lock.TryLock() {
			delete(r.starting, userID)
			lock.Unlock()
		}
		evicted = append(evicted, userID)
	}
	return evicted
}

func (r *Registry) startLock(userID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.starting[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.starting[userID] = lock
	}
	return lock
}
