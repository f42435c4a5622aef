package handlers

import (
	"sync"

	"social-backend/internal/utils"
)

// jsonWriter is the single write operation the presence manager needs from a
// websocket connection. Fiber's websocket Conn satisfies it.
type jsonWriter interface {
	WriteJSON(v interface{}) error
}

// Conn wraps a websocket connection with a write mutex. The underlying
// library supports at most one concurrent writer per connection, so every
// write must go through WriteJSON here.
type Conn struct {
	mu sync.Mutex
	ws jsonWriter
}

// WriteJSON sends a JSON payload over the connection, serializing concurrent
// callers.
func (c *Conn) WriteJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(payload)
}

// PresenceManager tracks which users currently hold websocket connections so
// notifications can be pushed to the ones that are online. A user may be
// connected from several devices at once.
type PresenceManager struct {
	mu sync.RWMutex
	// connID -> metadata (includes connection reference)
	connMeta map[string]ConnMeta
}

type ConnMeta struct {
	UserID string
	Conn   *Conn
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{connMeta: make(map[string]ConnMeta)}
}

var Presence = NewPresenceManager()

// Register stores metadata for a new websocket connection and returns the
// wrapped connection all writes to it must go through.
func (m *PresenceManager) Register(connID, userID string, ws jsonWriter) *Conn {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn := &Conn{ws: ws}
	m.connMeta[connID] = ConnMeta{UserID: userID, Conn: conn}
	return conn
}

// Unregister removes a connection.
func (m *PresenceManager) Unregister(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connMeta, connID)
}

// IsOnline checks if any active connection belongs to the given user
func (m *PresenceManager) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, meta := range m.connMeta {
		if meta.UserID == userID {
			return true
		}
	}
	return false
}

// SendToUser sends a message to all connections of a specific user. The
// registry lock only guards the map; each connection's own write mutex
// serializes the actual writes.
func (m *PresenceManager) SendToUser(userID string, message interface{}) {
	m.mu.RLock()
	conns := make([]*Conn, 0, 1)
	for _, meta := range m.connMeta {
		if meta.UserID == userID {
			conns = append(conns, meta.Conn)
		}
	}
	m.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(message); err != nil {
			utils.LogError(err, "SendToUser")
		}
	}
}

// SendToUsers sends a message to all connections of multiple users
func (m *PresenceManager) SendToUsers(userIDs []string, message interface{}) {
	for _, userID := range userIDs {
		m.SendToUser(userID, message)
	}
}
