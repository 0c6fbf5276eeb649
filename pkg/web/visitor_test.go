package web

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-museum/pkg/protocol"
)

// recycledConn stands in for a pooled websocket connection: once the handler
// has returned it is marked released, and any later use is counted.
type recycledConn struct {
	first    []byte
	closed   chan struct{}
	once     sync.Once
	writes   atomic.Int32
	released atomic.Bool
	late     atomic.Int32
}

func newRecycledConn(first []byte) *recycledConn {
	return &recycledConn{first: first, closed: make(chan struct{})}
}

func (c *recycledConn) touch() {
	if c.released.Load() {
		c.late.Add(1)
	}
}

func (c *recycledConn) SetReadLimit(int64)                { c.touch() }
func (c *recycledConn) SetPongHandler(func(string) error) { c.touch() }

func (c *recycledConn) SetReadDeadline(time.Time) error {
	c.touch()
	return nil
}

func (c *recycledConn) SetWriteDeadline(time.Time) error {
	c.touch()
	return nil
}

func (c *recycledConn) ReadMessage() (int, []byte, error) {
	c.touch()
	if b := c.first; b != nil {
		c.first = nil
		return 1, b, nil
	}
	<-c.closed
	return 0, nil, errors.New("connection reset")
}

func (c *recycledConn) WriteMessage(int, []byte) error {
	c.touch()
	c.writes.Add(1)
	time.Sleep(time.Millisecond)
	c.touch()
	return nil
}

func (c *recycledConn) Close() error {
	c.touch()
	c.once.Do(func() { close(c.closed) })
	return nil
}

func sceneFrame(t *testing.T) []byte {
	t.Helper()
	msg, err := protocol.NewMessage(protocol.TypeScene, protocol.PoseData{Position: [3]float64{0, 0, 3}})
	require.NoError(t, err)
	b, err := msg.Bytes()
	require.NoError(t, err)
	return b
}

func TestVisitorReleasesConnOnDisconnect(t *testing.T) {
	s := newTestServer(t, WithPoseRate(200))
	t.Cleanup(s.cancel)

	scene := sceneFrame(t)
	conns := make([]*recycledConn, 30)
	for i := range conns {
		conn := newRecycledConn(scene)
		conns[i] = conn
		done := make(chan struct{})
		go func() {
			s.serveVisitor(conn)
			conn.released.Store(true)
			close(done)
		}()

		require.Eventually(t, func() bool { return conn.writes.Load() > 0 }, 2*time.Second, time.Millisecond)
		conn.Close()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("visitor handler did not return after disconnect")
		}
	}

	time.Sleep(50 * time.Millisecond)
	for i, conn := range conns {
		assert.Zero(t, conn.late.Load(), "connection %d used after the handler returned", i)
	}
	assert.Equal(t, 0, s.SessionCount())
}

func TestVisitorReleasesConnOnShutdown(t *testing.T) {
	s := newTestServer(t)

	conn := newRecycledConn(sceneFrame(t))
	done := make(chan struct{})
	go func() {
		s.serveVisitor(conn)
		conn.released.Store(true)
		close(done)
	}()
	require.Eventually(t, func() bool { return s.SessionCount() == 1 }, 2*time.Second, time.Millisecond)

	s.cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("visitor handler did not return on shutdown")
	}
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, conn.late.Load())
}
