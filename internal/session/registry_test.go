package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(r Responder) (*Registry, map[string]*memStore) {
	var mu sync.Mutex
	stores := map[string]*memStore{}
	reg := NewRegistry(r, func(userID string) Store {
		mu.Lock()
		defer mu.Unlock()
		st, ok := stores[userID]
		if !ok {
			st = &memStore{}
			stores[userID] = st
		}
		return st
	}, Config{})
	return reg, stores
}

func TestRegistryStartReplacesSession(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(&fakeResponder{})

	_, err := reg.Get("u1")
	assert.ErrorIs(t, err, ErrNoSession)

	first, err := reg.Start(context.Background(), "u1")
	require.NoError(t, err)
	second, err := reg.Start(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())

	got, err := reg.Get("u1")
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, DefaultCap, reg.Cap())
}

func TestRegistryConcurrentStartRejected(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	r := &fakeResponder{reply: func(int, string) (string, error) {
		once.Do(func() { close(entered) })
		<-release
		return "ok", nil
	}}
	reg, _ := newTestRegistry(r)

	done := make(chan error, 1)
	go func() {
		_, err := reg.Start(context.Background(), "u1")
		done <- err
	}()
	<-entered

	_, err := reg.Start(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrStartInProgress)

	close(release)
	require.NoError(t, <-done)

	// Other devices are unaffected.
	_, err = reg.Start(context.Background(), "u2")
	require.NoError(t, err)
}

func TestRegistryStartClearsPreviousSlot(t *testing.T) {
	t.Parallel()

	st := &memStore{}
	var replaced []string
	reg := NewRegistry(&fakeResponder{}, func(string) Store { return st }, Config{
		OnReplace: func(userID, previousSessionID string) {
			assert.Equal(t, "u1", userID)
			replaced = append(replaced, previousSessionID)
		},
	})

	first, err := reg.Start(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, replaced)

	_, err = first.End(context.Background())
	require.NoError(t, err)
	saved, err := st.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)

	_, err = reg.Start(context.Background(), "u1")
	require.NoError(t, err)

	saved, err = st.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, saved)
	assert.Equal(t, []string{first.ID()}, replaced)
}

func TestRegistryEvictIdle(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(&fakeResponder{})
	_, err := reg.Start(context.Background(), "u1")
	require.NoError(t, err)

	assert.Empty(t, reg.EvictIdle(time.Now(), time.Hour))
	assert.Equal(t, []string{"u1"}, reg.EvictIdle(time.Now().Add(2*time.Hour), time.Hour))
	assert.Zero(t, reg.Len())
}

type fakeCleaner struct {
	called int
	ttl    time.Duration
}

func (f *fakeCleaner) CleanupExpiredSessions(_ context.Context, olderThan time.Duration) (int64, error) {
	f.called++
	f.ttl = olderThan
	return 2, nil
}

func TestSweepEvictsAndCleansSlots(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(&fakeResponder{})
	_, err := reg.Start(context.Background(), "u1")
	require.NoError(t, err)

	var cleaned []string
	cleaner := &fakeCleaner{}
	Sweep(context.Background(), reg, cleaner, time.Minute, time.Now().Add(time.Hour), func(userID string) {
		cleaned = append(cleaned, userID)
	})

	assert.Equal(t, []string{"u1"}, cleaned)
	assert.Equal(t, 1, cleaner.called)
	assert.Equal(t, time.Minute, cleaner.ttl)
	_, err = reg.Get("u1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStartSweeperStopsOnCancel(t *testing.T) {
	t.Parallel()

	reg, _ := newTestRegistry(&fakeResponder{})
	ctx, cancel := context.WithCancel(context.Background())
	StartSweeper(ctx, reg, nil, time.Minute, 10*time.Millisecond, nil)
	time.Sleep(30 * time.Millisecond)
	cancel()
}
