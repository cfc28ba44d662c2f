package client

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeConn is an in-memory Conn: inbound frames arrive through a channel,
// outbound frames accumulate in a slice. Close unblocks ReadMessage.
type fakeConn struct {
	inbound chan []byte

	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (f *fakeConn) ReadMessage() ([]byte, error) {
	data, ok := <-f.inbound
	if !ok {
		return nil, errors.New("fake conn closed")
	}
	return data, nil
}

func (f *fakeConn) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("write on closed fake conn")
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.inbound)
	}
	return nil
}

// deliver queues one inbound frame for the read loop.
func (f *fakeConn) deliver(frame string) {
	f.inbound <- []byte(frame)
}

func (f *fakeConn) frames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	for i, w := range f.writes {
		out[i] = string(w)
	}
	return out
}

// fakeTransport hands out fakeConns and can fail the first N dials or hold
// dials until released, to pin down the Connecting state.
type fakeTransport struct {
	mu       sync.Mutex
	failures int
	dials    int
	urls     []string
	conns    []*fakeConn

	gate chan struct{} // when set, Dial blocks until a value arrives
}

func (tr *fakeTransport) Dial(url string) (Conn, error) {
	tr.mu.Lock()
	gate := tr.gate
	tr.mu.Unlock()
	if gate != nil {
		<-gate
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.dials++
	tr.urls = append(tr.urls, url)
	if tr.failures > 0 {
		tr.failures--
		return nil, errors.New("dial refused")
	}
	fc := newFakeConn()
	tr.conns = append(tr.conns, fc)
	return fc, nil
}

func (tr *fakeTransport) dialCount() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.dials
}

func (tr *fakeTransport) lastConn(t *testing.T) *fakeConn {
	t.Helper()
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.conns) == 0 {
		t.Fatal("no connection was dialed")
	}
	return tr.conns[len(tr.conns)-1]
}

// newTestClient builds a client on the fake transport with intervals short
// enough for test timing. mut adjusts the config before construction.
func newTestClient(t *testing.T, tr *fakeTransport, mut func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig("ws://broker.test/ws", "secret")
	cfg.AutoConnect = false
	cfg.Transport = tr
	cfg.ReconnectInterval = 20 * time.Millisecond
	cfg.HeartbeatInterval = 25 * time.Millisecond
	if mut != nil {
		mut(&cfg)
	}
	return New(cfg)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func connectAndWait(t *testing.T, c *Client, tr *fakeTransport) *fakeConn {
	t.Helper()
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitFor(t, func() bool { return c.State() == StateConnected },
		"client never reached connected state")
	return tr.lastConn(t)
}
