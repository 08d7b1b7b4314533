package client

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/protocol"
	"github.com/kevbol04/JuegoMultijugador/pkg/uid"
)

// LineConn is a transport that carries one envelope per line (TCP) or per
// frame (WebSocket).
type LineConn interface {
	ReadLine() ([]byte, error)
	WriteLine(line []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
	RemoteAddr() string
}

// Connection is one connected client. It satisfies game.Peer.
type Connection struct {
	id           string
	conn         LineConn
	writeTimeout time.Duration
	log          *zap.Logger

	// writeMu ensures only one goroutine writes a line at a time
	writeMu sync.Mutex
	closed  atomic.Bool

	nameMu   sync.RWMutex
	username string
}

func NewConnection(conn LineConn, writeTimeout time.Duration, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uid.GenerateConnID()
	return &Connection{
		id:           id,
		conn:         conn,
		writeTimeout: writeTimeout,
		log:          logger.With(zap.String("conn", id), zap.String("remote", conn.RemoteAddr())),
	}
}

func (c *Connection) ID() string {
	return c.id
}

func (c *Connection) RemoteAddr() string {
	return c.conn.RemoteAddr()
}

func (c *Connection) Username() string {
	c.nameMu.RLock()
	defer c.nameMu.RUnlock()
	return c.username
}

// BindUsername sets the username once; later calls report false.
func (c *Connection) BindUsername(name string) bool {
	c.nameMu.Lock()
	defer c.nameMu.Unlock()

	if c.username != "" {
		return false
	}
	c.username = name
	return true
}

// Send encodes and writes one envelope. Nothing is written after Close, and
// a failed write closes the connection.
func (c *Connection) Send(t protocol.MessageType, payload any) {
	if c.closed.Load() {
		return
	}

	line, err := protocol.Encode(t, payload)
	if err != nil {
		c.log.Error("failed to encode message", zap.String("type", string(t)), zap.Error(err))
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return
	}
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteLine(line); err != nil {
		c.log.Debug("write failed, closing", zap.Error(err))
		_ = c.Close()
	}
}

func (c *Connection) ReadLine() ([]byte, error) {
	return c.conn.ReadLine()
}

// Close is idempotent.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}
