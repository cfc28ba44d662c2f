package client

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
	readTimeout      = 60 * time.Second
)

// Transport opens duplex connections to the broker. The default
// implementation dials a WebSocket; tests inject a fake.
type Transport interface {
	Dial(url string) (Conn, error)
}

// Conn is one duplex connection carrying text frames. ReadMessage blocks
// until a frame arrives or the connection dies; WriteMessage is safe for
// concurrent use only through the Client, which serialises all writes.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

type wsTransport struct {
	dialer *websocket.Dialer
}

// NewWebSocketTransport returns the gorilla/websocket backed Transport used
// outside of tests.
func NewWebSocketTransport() Transport {
	return &wsTransport{
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

func (t *wsTransport) Dial(url string) (Conn, error) {
	conn, _, err := t.dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	// Any inbound traffic proves the connection is alive, including the
	// broker's application-level pong frames.
	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	return data, nil
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
