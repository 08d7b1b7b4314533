package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/transport/client"
)

// Gateway upgrades HTTP requests and feeds them to the same connection
// handler as the TCP listener. Connections count against the shared slots.
type Gateway struct {
	Handler      *client.Handler
	Slots        *client.Slots
	Upgrader     websocket.Upgrader
	WriteTimeout time.Duration

	ctx context.Context
	log *zap.Logger
	wg  sync.WaitGroup
}

// NewGateway ties every upgraded connection to ctx; cancelling it closes them
// all, since hijacked connections outlive http.Server.Shutdown.
func NewGateway(ctx context.Context, h *client.Handler, slots *client.Slots, writeTimeout time.Duration, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		Handler:      h,
		Slots:        slots,
		WriteTimeout: writeTimeout,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx: ctx,
		log: logger,
	}
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.Slots.TryAcquire() {
		g.log.Info("server full, refusing websocket client", zap.String("remote", r.RemoteAddr))
		http.Error(w, "server full", http.StatusServiceUnavailable)
		return
	}

	conn, err := g.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.Slots.Release()
		g.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer g.Slots.Release()

		c := client.NewConnection(newWSConn(conn), g.WriteTimeout, g.log)
		g.Handler.Serve(g.ctx, c)
	}()
}

// Wait blocks until every websocket connection has been torn down.
func (g *Gateway) Wait() {
	g.wg.Wait()
}
