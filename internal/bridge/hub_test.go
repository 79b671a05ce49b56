package bridge

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []Message
	writeErr error
	closed   bool
	wrote    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{wrote: make(chan struct{}, 8)}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		select {
		case c.wrote <- struct{}{}:
		default:
		}
		return c.writeErr
	}
	c.messages = append(c.messages, v.(Message))
	c.wrote <- struct{}{}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) waitForWrite(t *testing.T) {
	t.Helper()
	select {
	case <-c.wrote:
	case <-time.After(2 * time.Second):
		t.Fatal("connection never received a write")
	}
}

func newHub() *Hub {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Start()
	return h
}

func TestDeliver_ReachesAllOfUsersConnections(t *testing.T) {
	h := newHub()
	c1, c2 := newFakeConn(), newFakeConn()
	h.Attach("u1", c1)
	h.Attach("u1", c2)

	msg := Message{Type: "event_created", Title: "New match", Body: "Saturday", Link: "/groups/g1"}
	h.Deliver("u1", msg)

	c1.waitForWrite(t)
	c2.waitForWrite(t)
	assert.Equal(t, []Message{msg}, c1.messages)
	assert.Equal(t, []Message{msg}, c2.messages)
}

func TestDeliver_OtherUsersConnectionsUntouched(t *testing.T) {
	h := newHub()
	mine, theirs := newFakeConn(), newFakeConn()
	h.Attach("u1", mine)
	h.Attach("u2", theirs)

	h.Deliver("u1", Message{Title: "hi"})
	mine.waitForWrite(t)

	theirs.mu.Lock()
	defer theirs.mu.Unlock()
	assert.Empty(t, theirs.messages)
}

func TestDeliver_FailedWriteDropsConnection(t *testing.T) {
	h := newHub()
	c := newFakeConn()
	c.writeErr = errors.New("broken pipe")
	h.Attach("u1", c)

	h.Deliver("u1", Message{Title: "hi"})
	c.waitForWrite(t)

	require.Eventually(t, func() bool { return !h.Connected("u1") },
		2*time.Second, 10*time.Millisecond)
	c.mu.Lock()
	defer c.mu.Unlock()
	assert.True(t, c.closed)
}

func TestStart_IsIdempotent(t *testing.T) {
	h := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Start()
	h.Start() // second call must not spawn a competing loop

	c := newFakeConn()
	h.Attach("u1", c)
	h.Deliver("u1", Message{Title: "once"})
	c.waitForWrite(t)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.messages, 1)
}

func TestDetach_RemovesConnection(t *testing.T) {
	h := newHub()
	c := newFakeConn()
	h.Attach("u1", c)
	require.True(t, h.Connected("u1"))

	h.Detach("u1", c)
	assert.False(t, h.Connected("u1"))
}
