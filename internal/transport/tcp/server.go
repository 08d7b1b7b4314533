package tcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/transport/client"
)

// longest accepted line; anything longer is skipped up to its newline
const maxLineBytes = 64 * 1024

// lineConn frames a TCP socket as newline-terminated lines.
type lineConn struct {
	conn       net.Conn
	reader     *bufio.Reader
	discarding bool
}

func newLineConn(conn net.Conn) *lineConn {
	return &lineConn{conn: conn, reader: bufio.NewReaderSize(conn, maxLineBytes)}
}

// ReadLine returns the next line without its terminator. The slice is only
// valid until the next call. An oversized line is dropped like any other
// malformed input and the connection stays open.
func (c *lineConn) ReadLine() ([]byte, error) {
	for {
		line, err := c.reader.ReadSlice('\n')
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			c.discarding = true
		case err == nil && c.discarding:
			c.discarding = false
		case err == nil:
			return bytes.TrimSuffix(line, []byte("\n")), nil
		case len(line) > 0 && !c.discarding:
			// last line without a newline; the error comes back on the next call
			return line, nil
		default:
			return nil, err
		}
	}
}

func (c *lineConn) WriteLine(line []byte) error {
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	_, err := c.conn.Write(buf)
	return err
}

func (c *lineConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

func (c *lineConn) Close() error {
	return c.conn.Close()
}

func (c *lineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Server accepts raw TCP clients and hands each one to the connection handler.
type Server struct {
	Handler      *client.Handler
	Slots        *client.Slots
	WriteTimeout time.Duration

	log *zap.Logger
	wg  sync.WaitGroup

	mu sync.Mutex
	ln net.Listener
}

func NewServer(h *client.Handler, slots *client.Slots, writeTimeout time.Duration, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Handler: h, Slots: slots, WriteTimeout: writeTimeout, log: logger}
}

// ListenAndServe binds addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the accept loop on ln. When ctx is cancelled the listener is
// closed, every live connection is closed through the handler's context and
// Serve returns once all of them have been torn down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	s.log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Int("maxClients", s.Slots.Max()))

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}

		if !s.Slots.TryAcquire() {
			s.log.Info("server full, refusing client", zap.String("remote", conn.RemoteAddr().String()))
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.Slots.Release()

			c := client.NewConnection(newLineConn(conn), s.WriteTimeout, s.log)
			s.Handler.Serve(ctx, c)
		}()
	}
}

// Addr is the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}
