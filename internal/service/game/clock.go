package game

import (
	"time"

	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
	"github.com/kevbol04/JuegoMultijugador/internal/protocol"
)

// turnUnit is the length of one unit of GameConfig.TimeLimitSec.
var turnUnit = time.Second

// armClock starts the turn timer for the seat to move. It runs with
// session.mu held and replaces any timer still outstanding.
func (sm *SessionManager) armClock(session *Session) {
	sm.stopClock(session)

	if session.finished || session.Config.TimeLimitSec <= 0 || session.isAISeat(session.next) {
		return
	}

	gameID, expected, seq := session.ID, session.next, session.turnSeq
	limit := time.Duration(session.Config.TimeLimitSec) * turnUnit
	session.timer = time.AfterFunc(limit, func() {
		sm.expireTurn(gameID, expected, seq)
	})
}

// stopClock cancels the outstanding timer. Bumping turnSeq also invalidates
// a callback that already fired and is waiting for the lock.
func (sm *SessionManager) stopClock(session *Session) {
	if session.timer != nil {
		session.timer.Stop()
		session.timer = nil
	}
	session.turnSeq++
}

// expireTurn runs on the timer goroutine. A session that is gone, finished,
// or has moved on since the timer was armed is left untouched.
func (sm *SessionManager) expireTurn(gameID string, expected domain.Mark, seq uint64) {
	session, exists := sm.GetSessionByGameID(gameID)
	if !exists {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.finished || session.next != expected || session.turnSeq != seq {
		return
	}
	session.timer = nil
	session.lastActivity = sm.now()

	sm.log.Info("turn timed out",
		zap.String("gameId", gameID),
		zap.String("mark", string(expected)),
	)

	sm.broadcast(session, protocol.Timeout, protocol.TimeoutPayload{
		GameID:   gameID,
		TimedOut: string(expected),
		Message:  domain.TimeoutMessage,
	})

	session.next = expected.Opponent()
	sm.broadcastState(session, string(session.next))
	sm.continueTurn(session)
}
