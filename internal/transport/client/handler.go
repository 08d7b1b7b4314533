package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
	"github.com/kevbol04/JuegoMultijugador/internal/protocol"
	"github.com/kevbol04/JuegoMultijugador/internal/service/game"
	"github.com/kevbol04/JuegoMultijugador/internal/service/login"
	"github.com/kevbol04/JuegoMultijugador/internal/service/matchmaking"
	"github.com/kevbol04/JuegoMultijugador/internal/service/stats"
)

// upper bound for the stats read done at login
const statsTimeout = 5 * time.Second

// Handler runs the login handshake and the command loop for every
// connection, whatever transport it came in on.
type Handler struct {
	Registry       *login.Registry
	Matchmaking    *matchmaking.MatchmakingQueue
	SessionManager *game.SessionManager
	Stats          stats.Store

	RateLimit rate.Limit
	Burst     int

	log *zap.Logger
}

func NewHandler(reg *login.Registry, mq *matchmaking.MatchmakingQueue, sm *game.SessionManager, store stats.Store, limit rate.Limit, burst int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Handler{
		Registry:       reg,
		Matchmaking:    mq,
		SessionManager: sm,
		Stats:          store,
		RateLimit:      limit,
		Burst:          burst,
		log:            logger,
	}
}

// Serve blocks until the client goes away or ctx is cancelled, then tears
// down everything the connection owned. It never touches the statistics.
func (h *Handler) Serve(ctx context.Context, conn *Connection) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	defer h.cleanup(conn)

	log := h.log.With(zap.String("conn", conn.ID()), zap.String("remote", conn.RemoteAddr()))
	log.Info("client connected")

	limiter := rate.NewLimiter(h.RateLimit, h.Burst)

	for {
		line, err := conn.ReadLine()
		if err != nil {
			log.Debug("read loop ended", zap.Error(err))
			return
		}

		if !limiter.Allow() {
			log.Debug("rate limited, line dropped")
			continue
		}

		env, err := protocol.Decode(line)
		if err != nil {
			log.Debug("dropping line", zap.Error(err))
			continue
		}

		if conn.Username() == "" {
			h.handleLogin(conn, env)
			continue
		}
		h.dispatch(conn, env)
	}
}

// cleanup closes first: once the connection reports closed, a match made
// concurrently can no longer seat it, and a seat it already got is found by
// HandleDisconnect below.
func (h *Handler) cleanup(conn *Connection) {
	conn.Close()
	h.Matchmaking.RemoveIfWaiting(conn.ID())
	h.SessionManager.HandleDisconnect(conn)
	if name := conn.Username(); name != "" {
		h.Registry.Remove(name)
	}

	h.log.Info("client disconnected", zap.String("conn", conn.ID()), zap.String("user", conn.Username()))
}

func (h *Handler) handleLogin(conn *Connection, env protocol.Envelope) {
	if env.Type != protocol.Login {
		sendLoginError(conn, domain.ErrLoginRequired)
		return
	}

	name, ok := env.Fields().String("username")
	if !ok || !login.Validate(name) {
		sendLoginError(conn, domain.ErrInvalidUsername)
		return
	}

	username := login.Normalize(name)
	if !h.Registry.TryAdd(username) {
		sendLoginError(conn, domain.ErrUsernameTaken)
		return
	}
	conn.BindUsername(username)

	h.log.Info("user logged in", zap.String("conn", conn.ID()), zap.String("user", username))

	conn.Send(protocol.LoginOK, protocol.LoginOKPayload{Username: username})
	conn.Send(protocol.RecordsSync, h.snapshot())
}

func (h *Handler) dispatch(conn *Connection, env protocol.Envelope) {
	fields := env.Fields()

	switch env.Type {
	case protocol.JoinQueue:
		h.handleJoinQueue(conn, gameConfigFrom(fields))

	case protocol.StartPve:
		difficulty, _ := fields.String("difficulty")
		h.handleStartPve(conn, domain.ParseDifficulty(difficulty), gameConfigFrom(fields))

	case protocol.MakeMove:
		row, okRow := fields.Int("row")
		col, okCol := fields.Int("col")
		if !okRow || !okCol {
			sendError(conn, domain.ErrBadMoveFormat)
			return
		}
		if err := h.SessionManager.HandleMove(conn, row, col); err != nil {
			sendError(conn, err)
		}

	default:
		conn.Send(protocol.Error, protocol.MessagePayload{Message: "Tipo no soportado: " + string(env.Type)})
	}
}

func (h *Handler) handleJoinQueue(conn *Connection, cfg domain.GameConfig) {
	if h.SessionManager.InSession(conn) {
		sendError(conn, domain.ErrAlreadyInSession)
		return
	}

	conn.Send(protocol.QueueStatus, protocol.QueueStatusPayload{Status: protocol.StatusWaiting})

	first, second, matched := h.Matchmaking.TryEnqueue(matchmaking.Entry{Peer: conn, Config: cfg})
	if !matched {
		return
	}

	first.Peer.Send(protocol.QueueStatus, protocol.QueueStatusPayload{Status: protocol.StatusMatched})
	second.Peer.Send(protocol.QueueStatus, protocol.QueueStatusPayload{Status: protocol.StatusMatched})

	if _, err := h.SessionManager.StartPvp(first.Peer, second.Peer, first.Config); err != nil {
		h.log.Warn("could not start pvp session",
			zap.String("x", first.Peer.Username()),
			zap.String("o", second.Peer.Username()),
			zap.Error(err),
		)
		sendError(first.Peer, err)
		sendError(second.Peer, err)
	}
}

func (h *Handler) handleStartPve(conn *Connection, difficulty domain.Difficulty, cfg domain.GameConfig) {
	if h.SessionManager.InSession(conn) {
		sendError(conn, domain.ErrAlreadyInSession)
		return
	}

	h.Matchmaking.RemoveIfWaiting(conn.ID())

	if _, err := h.SessionManager.StartPve(conn, difficulty, cfg); err != nil {
		sendError(conn, err)
	}
}

func (h *Handler) snapshot() stats.Snapshot {
	if h.Stats == nil {
		return stats.EmptySnapshot()
	}
	ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
	defer cancel()

	snap, err := h.Stats.Snapshot(ctx)
	if err != nil {
		h.log.Error("failed to read stats snapshot", zap.Error(err))
		return stats.EmptySnapshot()
	}
	return snap
}

// gameConfigFrom reads the optional JOIN_QUEUE / START_PVE options; missing
// fields stay zero and are defaulted by GameConfig.Normalize.
func gameConfigFrom(f protocol.Fields) domain.GameConfig {
	var cfg domain.GameConfig
	cfg.BoardSize, _ = f.Int("boardSize")
	cfg.TotalRounds, _ = f.Int("rounds")
	cfg.TimeLimitSec, _ = f.Int("timeLimit")
	cfg.Turbo, _ = f.Bool("turbo")
	return cfg
}

func sendError(p game.Peer, err error) {
	var derr domain.Error
	if !errors.As(err, &derr) {
		derr = domain.Error(err.Error())
	}
	p.Send(protocol.Error, protocol.MessagePayload{Message: string(derr)})
}

func sendLoginError(p game.Peer, err domain.Error) {
	p.Send(protocol.LoginError, protocol.MessagePayload{Message: string(err)})
}
