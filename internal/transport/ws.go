// Package transport adapts gorilla websocket connections to the
// player.Conn contract used by the match core.
package transport

import (
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/botduel/botduel/internal/player"
)

// Hard cap on a single frame. The protocol layer enforces its own,
// smaller bound with a friendly invalid_request reply; this one only
// protects the server from hostile frames.
const readLimit = 64 << 10

// WSConn wraps a websocket connection. A single pump goroutine owns
// all reads and feeds a channel, so Receive can time out without
// tearing the socket down; a late turn simply waits in the channel
// and gets rejected as stale by the protocol layer. Writes are
// serialized so the keepalive pinger and a session controller can
// share the socket.
type WSConn struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	msgs      chan []byte
	dead      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	errMu   sync.Mutex
	readErr error
}

// NewWSConn wraps an upgraded or dialed connection and starts its
// read pump.
func NewWSConn(conn *websocket.Conn) *WSConn {
	conn.SetReadLimit(readLimit)
	c := &WSConn{
		conn: conn,
		msgs: make(chan []byte, 8),
		dead: make(chan struct{}),
		done: make(chan struct{}),
	}
	go c.readPump()
	return c
}

// Dial connects to a botduel server's websocket endpoint.
func Dial(url string) (*WSConn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return NewWSConn(conn), nil
}

func (c *WSConn) readPump() {
	defer close(c.dead)
	defer close(c.msgs)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.errMu.Lock()
			c.readErr = err
			c.errMu.Unlock()
			return
		}
		select {
		case c.msgs <- data:
		case <-c.done:
			return
		}
	}
}

// Send writes v as a JSON message.
func (c *WSConn) Send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Receive returns the next message, waiting at most timeout. Expiry
// is reported as player.ErrTimeout and leaves the connection usable;
// any other error means the connection is gone.
func (c *WSConn) Receive(timeout time.Duration) ([]byte, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case data, ok := <-c.msgs:
		if !ok {
			return nil, c.err()
		}
		return data, nil
	case <-timer.C:
		return nil, player.ErrTimeout
	}
}

func (c *WSConn) err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.readErr != nil {
		return c.readErr
	}
	return net.ErrClosed
}

// Ping sends a control ping so dead connections surface between
// matches, when nothing else touches the socket.
func (c *WSConn) Ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// Dead is closed once the read side has failed or the connection was
// closed; the server uses it to unregister the player.
func (c *WSConn) Dead() <-chan struct{} { return c.dead }

// Close tears the connection down and stops the pump.
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.conn.Close()
}
