package handlers

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// countingConn records writes and flags any two that overlap in time, which
// the real websocket connection forbids.
type countingConn struct {
	active  int32
	overlap int32
	writes  int32
}

func (c *countingConn) WriteJSON(interface{}) error {
	if atomic.AddInt32(&c.active, 1) > 1 {
		atomic.AddInt32(&c.overlap, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&c.active, -1)
	atomic.AddInt32(&c.writes, 1)
	return nil
}

func TestPresenceOnlineTransitions(t *testing.T) {
	m := NewPresenceManager()

	assert.False(t, m.IsOnline("u1"))

	m.Register("c1", "u1", &countingConn{})
	m.Register("c2", "u1", &countingConn{})
	assert.True(t, m.IsOnline("u1"))

	// still online while one device remains
	m.Unregister("c1")
	assert.True(t, m.IsOnline("u1"))
	m.Unregister("c2")
	assert.False(t, m.IsOnline("u1"))
}

func TestSendToUserSerializesConcurrentWrites(t *testing.T) {
	m := NewPresenceManager()
	conn := &countingConn{}
	m.Register("c1", "u1", conn)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.SendToUser("u1", WSEvent{Event: "post_added", UserID: "author"})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), atomic.LoadInt32(&conn.writes))
	assert.Zero(t, atomic.LoadInt32(&conn.overlap), "overlapping writes reached the connection")
}

func TestSendToUsersTargetsOnlyNamedUsers(t *testing.T) {
	m := NewPresenceManager()
	a := &countingConn{}
	b := &countingConn{}
	other := &countingConn{}
	m.Register("c1", "u1", a)
	m.Register("c2", "u2", b)
	m.Register("c3", "u3", other)

	m.SendToUsers([]string{"u1", "u2"}, WSEvent{Event: "post_added"})

	assert.Equal(t, int32(1), atomic.LoadInt32(&a.writes))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.writes))
	assert.Zero(t, atomic.LoadInt32(&other.writes))
}
