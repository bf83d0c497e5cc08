package session

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepInterval = 5 * time.Minute

// SlotCleaner deletes persisted handoff slots older than a TTL.
type SlotCleaner interface {
	CleanupExpiredSessions(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupCallback is called for each device whose session was evicted.
type CleanupCallback func(userID string)

// StartSweeper runs a background goroutine that periodically evicts idle
// sessions and expired slots until ctx is done.
func StartSweeper(ctx context.Context, reg *Registry, slots SlotCleaner, ttl, interval time.Duration, onCleanup CleanupCallback) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("session sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				Sweep(ctx, reg, slots, ttl, time.Now(), onCleanup)
			case <-ctx.Done():
				slog.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Sweep performs one eviction pass.
func Sweep(ctx context.Context, reg *Registry, slots SlotCleaner, ttl time.Duration, now time.Time, onCleanup CleanupCallback) {
	evicted := reg.EvictIdle(now, ttl)
	if len(evicted) > 0 {
		slog.Info("session sweeper evicted idle sessions", "count", len(evicted))
	}
	for _, userID := range evicted {
		if onCleanup != nil {
			onCleanup(userID)
		}
	}

	if slots == nil {
		return
	}
	n, err := slots.CleanupExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("session sweeper failed to delete expired slots", "error", err)
		return
	}
	if n > 0 {
		slog.Info("session sweeper deleted expired slots", "count", n)
	}
}
