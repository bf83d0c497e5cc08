package domain

import (
	"time"
)

// SessionSlot is the persisted key-value record holding one serialized
// Session per device.
type SessionSlot struct {
	Key         string
	SessionID   string
	PayloadJSON string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
