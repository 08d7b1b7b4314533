package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
	"github.com/kevbol04/JuegoMultijugador/internal/protocol"
	"github.com/kevbol04/JuegoMultijugador/internal/service/bot"
	"github.com/kevbol04/JuegoMultijugador/internal/service/stats"
	"github.com/kevbol04/JuegoMultijugador/pkg/uid"
)

// upper bound for one statistics write or read done on behalf of a session
const statsTimeout = 5 * time.Second

// SessionManager owns every active session.
//
// Lock order: a session's mu may be held while taking SessionManager.mu,
// never the other way round.
type SessionManager struct {
	Session    map[string]*Session // gameID → Session
	PeerToGame map[string]string   // peerID → gameID (both seats of a PvP game)
	mu         sync.RWMutex

	stats stats.Store
	ai    bot.Strategy
	log   *zap.Logger
	now   func() time.Time
}

func NewSessionManager(store stats.Store, ai bot.Strategy, logger *zap.Logger) *SessionManager {
	if ai == nil {
		ai = bot.NewEngine()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		Session:    make(map[string]*Session),
		PeerToGame: make(map[string]string),
		stats:      store,
		ai:         ai,
		log:        logger,
		now:        time.Now,
	}
}

// StartPvp opens a series between two matched peers; a plays X. The config
// is normalized before use.
func (sm *SessionManager) StartPvp(a, b Peer, cfg domain.GameConfig) (*Session, error) {
	cfg = cfg.Normalize()
	session := newSession(uid.GenerateGameID(), domain.ModePVP, a, b, "", cfg, sm.now())
	return session, sm.start(session)
}

// StartPve opens a series between a human (X) and the AI (O).
func (sm *SessionManager) StartPve(human Peer, difficulty domain.Difficulty, cfg domain.GameConfig) (*Session, error) {
	cfg = cfg.Normalize()
	session := newSession(uid.GenerateGameID(), domain.ModePVE, human, nil, difficulty, cfg, sm.now())
	return session, sm.start(session)
}

func (sm *SessionManager) start(session *Session) error {
	// hold the session before it becomes reachable so nobody can move
	// ahead of GAME_START
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := sm.register(session); err != nil {
		return err
	}

	sm.log.Info("session created",
		zap.String("gameId", session.ID),
		zap.String("mode", string(session.Mode)),
		zap.String("x", session.usernameOf(domain.X)),
		zap.String("o", session.usernameOf(domain.O)),
		zap.Int("boardSize", session.Config.BoardSize),
		zap.Int("rounds", session.Config.TotalRounds),
		zap.Int("timeLimit", session.Config.TimeLimitSec),
	)

	sm.startRound(session)
	return nil
}

// register inserts the session and both seats under one lock; it refuses if
// a seat is already playing or already gone. A peer closed after this check
// finds the session through HandleDisconnect, so no seat outlives its
// connection.
func (sm *SessionManager) register(session *Session) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, p := range session.participants() {
		if p.IsClosed() {
			return domain.ErrOpponentLeft
		}
		if _, busy := sm.PeerToGame[p.ID()]; busy {
			return domain.ErrAlreadyInSession
		}
	}

	sm.Session[session.ID] = session
	for _, p := range session.participants() {
		sm.PeerToGame[p.ID()] = session.ID
	}
	return nil
}

func (sm *SessionManager) unregister(session *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.Session[session.ID]; !exists {
		return
	}
	for _, p := range session.participants() {
		if sm.PeerToGame[p.ID()] == session.ID {
			delete(sm.PeerToGame, p.ID())
		}
	}
	delete(sm.Session, session.ID)

	sm.log.Info("session removed", zap.String("gameId", session.ID))
}

func (sm *SessionManager) GetSessionByGameID(gameID string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.Session[gameID]
	return session, exists
}

func (sm *SessionManager) SessionFor(p Peer) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	gameID, exists := sm.PeerToGame[p.ID()]
	if !exists {
		return nil, false
	}
	session, exists := sm.Session[gameID]
	return session, exists
}

func (sm *SessionManager) InSession(p Peer) bool {
	_, ok := sm.SessionFor(p)
	return ok
}

// HandleMove validates and applies a move from p. The returned error is a
// domain.Error whose text goes back to the client.
func (sm *SessionManager) HandleMove(p Peer, row, col int) error {
	session, exists := sm.SessionFor(p)
	if !exists {
		return domain.ErrNotInSession
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.finished {
		return domain.ErrNotInSession
	}

	mark := session.markOf(p)
	if mark == domain.Empty {
		return domain.ErrNotInSession
	}
	if mark != session.next {
		return domain.ErrNotYourTurn
	}
	if err := session.board.Place(row, col, mark); err != nil {
		return err
	}

	sm.stopClock(session)
	session.lastActivity = sm.now()

	sm.afterMove(session)
	return nil
}

// HandleDisconnect ends the series p was playing, if any. The opponent is
// told and the statistics are left alone.
func (sm *SessionManager) HandleDisconnect(p Peer) {
	session, exists := sm.SessionFor(p)
	if !exists {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.finished {
		return
	}
	session.finished = true
	sm.stopClock(session)

	if opponent := session.opponentOf(p); opponent != nil {
		opponent.Send(protocol.Error, protocol.MessagePayload{Message: string(domain.ErrOpponentLeft)})
	}
	sm.unregister(session)

	sm.log.Info("session abandoned",
		zap.String("gameId", session.ID),
		zap.String("user", p.Username()),
	)
}

// ActiveSessions lists the live sessions ordered by creation time.
func (sm *SessionManager) ActiveSessions() []Summary {
	out := make([]Summary, 0)
	for _, session := range sm.sessions() {
		out = append(out, session.summary())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CleanupIdleSessions closes sessions that saw no accepted move or timeout
// for longer than maxIdle and reports how many were closed.
func (sm *SessionManager) CleanupIdleSessions(maxIdle time.Duration) int {
	count := 0
	now := sm.now()

	for _, session := range sm.sessions() {
		session.mu.Lock()
		if !session.finished && now.Sub(session.lastActivity) > maxIdle {
			session.finished = true
			sm.stopClock(session)
			sm.broadcast(session, protocol.Error, protocol.MessagePayload{Message: string(domain.ErrIdleClosed)})
			sm.unregister(session)
			count++
		}
		session.mu.Unlock()
	}

	if count > 0 {
		sm.log.Info("idle sessions closed", zap.Int("count", count))
	}
	return count
}

// Shutdown stops every turn clock; used when the server is going away.
func (sm *SessionManager) Shutdown() {
	for _, session := range sm.sessions() {
		session.mu.Lock()
		session.finished = true
		sm.stopClock(session)
		session.mu.Unlock()
		sm.unregister(session)
	}
}

// copy of the arena so callers can lock sessions without holding sm.mu
func (sm *SessionManager) sessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	out := make([]*Session, 0, len(sm.Session))
	for _, session := range sm.Session {
		out = append(out, session)
	}
	return out
}

func (sm *SessionManager) statsContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), statsTimeout)
}
