package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/peakchat/internal/domain"
)

func backends(t *testing.T) map[string]Repository {
	t.Helper()

	sqlite, err := New(BackendSQLite, filepath.Join(t.TempDir(), "nested", "peakchat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	memory, err := New(BackendMemory, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = memory.Close() })

	return map[string]Repository{BackendSQLite: sqlite, BackendMemory: memory}
}

func TestNewUnknownBackend(t *testing.T) {
	t.Parallel()

	_, err := New("postgres", "")
	assert.Error(t, err)
}

func TestRepositoryUsers(t *testing.T) {
	t.Parallel()

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Ping(ctx))

			got, err := repo.GetUser(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, got)

			created := time.Unix(1_700_000_000, 0)
			require.NoError(t, repo.UpsertUser(ctx, &domain.User{
				UserID:     "u1",
				Username:   "anon-u1",
				LastSeenAt: created,
				CreatedAt:  created,
				UpdatedAt:  created,
			}))

			seen := created.Add(time.Hour)
			require.NoError(t, repo.UpdateLastSeen(ctx, "u1", seen))
			require.NoError(t, repo.UpdateLastSeen(ctx, "nobody", seen))

			got, err = repo.GetUser(ctx, "u1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "anon-u1", got.Username)
			assert.Equal(t, seen.Unix(), got.LastSeenAt.Unix())
			assert.Equal(t, created.Unix(), got.CreatedAt.Unix())
		})
	}
}

func TestRepositorySessionSlots(t *testing.T) {
	t.Parallel()

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := repo.LoadSession(ctx, "u1")
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, repo.SaveSession(ctx, &domain.SessionSlot{Key: "u1", SessionID: "s1", PayloadJSON: `{"id":"s1"}`}))
			require.NoError(t, repo.SaveSession(ctx, &domain.SessionSlot{Key: "u1", SessionID: "s2", PayloadJSON: `{"id":"s2"}`}))

			got, err = repo.LoadSession(ctx, "u1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "s2", got.SessionID)
			assert.Equal(t, `{"id":"s2"}`, got.PayloadJSON)
			assert.False(t, got.UpdatedAt.IsZero())

			n, err := repo.CleanupExpiredSessions(ctx, time.Hour)
			require.NoError(t, err)
			assert.Zero(t, n)

			require.NoError(t, repo.DeleteSession(ctx, "u1"))
			got, err = repo.LoadSession(ctx, "u1")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestRepositoryCleanupExpiredSessions(t *testing.T) {
	t.Parallel()

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.SaveSession(ctx, &domain.SessionSlot{Key: "a", SessionID: "s", PayloadJSON: "{}"}))
			require.NoError(t, repo.SaveSession(ctx, &domain.SessionSlot{Key: "b", SessionID: "s", PayloadJSON: "{}"}))

			// A negative ttl puts the threshold in the future.
			n, err := repo.CleanupExpiredSessions(ctx, -time.Hour)
			require.NoError(t, err)
			assert.EqualValues(t, 2, n)

			got, err := repo.LoadSession(ctx, "a")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestSlotRoundTrip(t *testing.T) {
	t.Parallel()

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			slot := NewSlot(repo, "device-1")

			empty, err := slot.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, empty)

			start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
			end := start.Add(15 * time.Minute)
			want := &domain.Session{
				ID: "sess-1",
				Turns: []domain.ChatTurn{
					{Role: domain.RoleUser, Content: "안녕하세요"},
					{Role: domain.RoleAssistant, Content: "(한숨) 네..."},
				},
				Metrics: domain.SessionMetrics{ResponseCount: 1, StartTime: start, EndTime: &end},
			}
			require.NoError(t, slot.Save(ctx, want))

			got, err := slot.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, want.Turns, got.Turns)
			assert.Equal(t, want.Metrics.ResponseCount, got.Metrics.ResponseCount)
			assert.True(t, want.Metrics.StartTime.Equal(got.Metrics.StartTime))
			require.NotNil(t, got.Metrics.EndTime)
			assert.True(t, end.Equal(*got.Metrics.EndTime))

			raw, err := repo.LoadSession(ctx, "device-1")
			require.NoError(t, err)
			assert.JSONEq(t, `{
				"id": "sess-1",
				"messages": [
					{"role": "user", "content": "안녕하세요"},
					{"role": "assistant", "content": "(한숨) 네..."}
				],
				"sessionMetrics": {
					"responseCount": 1,
					"startTime": "2024-05-01T10:00:00Z",
					"endTime": "2024-05-01T10:15:00Z"
				}
			}`, raw.PayloadJSON)
		})
	}
}

func TestSlotClear(t *testing.T) {
	t.Parallel()

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			slot := NewSlot(repo, "device-1")

			id, err := slot.Clear(ctx)
			require.NoError(t, err)
			assert.Empty(t, id)

			end := time.Now()
			require.NoError(t, slot.Save(ctx, &domain.Session{
				ID:      "sess-1",
				Metrics: domain.SessionMetrics{StartTime: end.Add(-time.Minute), EndTime: &end},
			}))

			id, err = slot.Clear(ctx)
			require.NoError(t, err)
			assert.Equal(t, "sess-1", id)

			got, err := slot.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}
