package api

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// wsCloser is the part of *websocket.Conn the registry needs.
type wsCloser interface {
	Close(code websocket.StatusCode, reason string) error
}

// ConnRegistry tracks open chat sockets per device so they can be closed
// when the device's session is evicted.
type ConnRegistry struct {
	mu     sync.RWMutex
	nextID int64
	active map[string]map[int64]wsCloser
}

// NewConnRegistry creates an empty registry.
func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{active: make(map[string]map[int64]wsCloser)}
}

// Register adds conn for userID and returns its handle.
func (c *ConnRegistry) Register(userID string, conn wsCloser) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	if _, ok := c.active[userID]; !ok {
		c.active[userID] = make(map[int64]wsCloser)
	}
	c.active[userID][c.nextID] = conn
	return c.nextID
}

// Unregister removes the connection with handle id.
func (c *ConnRegistry) Unregister(userID string, id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if conns, ok := c.active[userID]; ok {
		delete(conns, id)
		if len(conns) == 0 {
			delete(c.active, userID)
		}
	}
}

// Count returns the number of open sockets for userID.
func (c *ConnRegistry) Count(userID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.active[userID])
}

// CloseUser closes every socket held by userID.
func (c *ConnRegistry) CloseUser(userID string) {
	c.mu.Lock()
	conns := c.active[userID]
	delete(c.active, userID)
	c.mu.Unlock()

	for id, conn := range conns {
		if err := conn.Close(websocket.StatusNormalClosure, "session expired"); err != nil {
			slog.Debug("failed to close chat socket", "user_id", userID, "conn_id", id, "error", err)
		}
	}
	if len(conns) > 0 {
		slog.Info("closed chat sockets", "user_id", userID, "count", len(conns))
	}
}
