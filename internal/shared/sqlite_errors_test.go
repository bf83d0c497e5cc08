package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSQLiteConflictErrorByMessage(t *testing.T) {
	t.Parallel()

	assert.False(t, IsSQLiteConflictError(nil))
	assert.False(t, IsSQLiteConflictError(errors.New("no such table")))
	assert.True(t, IsSQLiteBusyError(fmt.Errorf("exec: %w", errors.New("SQLITE_BUSY"))))
	assert.True(t, IsSQLiteLockedError(errors.New("database is locked (5)")))
	assert.True(t, IsSQLiteConflictError(errors.New("database is locked")))
}

func TestRetryOnBusy(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RetryOnBusy(context.Background(), "test", func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("database is locked")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	t.Parallel()

	calls := 0
	boom := errors.New("constraint failed")
	err := RetryOnBusy(context.Background(), "test", func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRetryOnBusyGivesUp(t *testing.T) {
	t.Parallel()

	calls := 0
	err := RetryOnBusy(context.Background(), "test", func(context.Context) error {
		calls++
		return errors.New("SQLITE_BUSY")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}
