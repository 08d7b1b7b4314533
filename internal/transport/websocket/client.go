package websocket

import (
	"bytes"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	pingTimeout  = 10 * time.Second
	maxFrameSize = 64 * 1024
)

// wsConn carries one envelope per text frame so browser clients can speak the
// same line protocol as raw TCP clients.
type wsConn struct {
	conn *websocket.Conn

	stopOnce sync.Once
	stop     chan struct{}
}

func newWSConn(conn *websocket.Conn) *wsConn {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := &wsConn{conn: conn, stop: make(chan struct{})}
	go c.keepAlive()
	return c
}

// keepAlive pings until the connection is closed. WriteControl is safe to
// call alongside the regular writer.
func (c *wsConn) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(pingTimeout)); err != nil {
				return
			}
		}
	}
}

func (c *wsConn) ReadLine() ([]byte, error) {
	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if kind != websocket.TextMessage {
		// dropped by the decoder like any other malformed line
		return nil, nil
	}
	// a frame carrying several lines is cut at the first newline
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return data, nil
}

func (c *wsConn) WriteLine(line []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, line)
}

func (c *wsConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *wsConn) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
