package game

import (
	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
	"github.com/kevbol04/JuegoMultijugador/internal/protocol"
	"github.com/kevbol04/JuegoMultijugador/internal/service/bot"
	"github.com/kevbol04/JuegoMultijugador/internal/service/stats"
)

// The functions in this file run with session.mu held.

// startRound announces the current round on a fresh board and hands the
// turn to X.
func (sm *SessionManager) startRound(session *Session) {
	sm.sendGameStart(session)
	sm.broadcastState(session, string(session.next))
	sm.continueTurn(session)
}

// afterMove evaluates the board after a mark was placed by anyone.
func (sm *SessionManager) afterMove(session *Session) {
	if winner, finished := domain.RoundResult(session.board); finished {
		sm.finishRound(session, winner)
		return
	}

	session.next = session.next.Opponent()
	sm.broadcastState(session, string(session.next))
	sm.continueTurn(session)
}

// continueTurn lets the AI play its seat inline, or arms the clock for a human.
func (sm *SessionManager) continueTurn(session *Session) {
	if session.isAISeat(session.next) {
		sm.playAI(session)
		return
	}
	sm.armClock(session)
}

func (sm *SessionManager) playAI(session *Session) {
	cell, err := sm.ai.ChooseMove(session.board, session.Difficulty)
	if err == nil {
		err = session.board.Place(cell.Row, cell.Col, bot.Mark)
	}
	if err != nil {
		// the board is never full here, RoundResult would have ended the round
		sm.log.Error("ai move failed", zap.String("gameId", session.ID), zap.Error(err))
		return
	}

	sm.afterMove(session)
}

func (sm *SessionManager) finishRound(session *Session, winner domain.Mark) {
	session.series.RecordRound(winner)
	sm.broadcastState(session, "")

	sm.log.Info("round finished",
		zap.String("gameId", session.ID),
		zap.Int("round", session.series.Round),
		zap.String("winner", domain.MarkLabel(winner)),
	)

	if session.series.IsOver() {
		sm.finishSeries(session, winner)
		return
	}

	sm.broadcast(session, protocol.RoundEnd, sm.roundEndPayload(session, winner, false))

	session.series.NextRound()
	session.board = domain.NewBoard(session.Config.BoardSize)
	session.next = domain.X
	sm.startRound(session)
}

func (sm *SessionManager) finishSeries(session *Session, roundWinner domain.Mark) {
	session.finished = true
	sm.stopClock(session)

	seriesWinner := session.series.Winner()
	sm.applyResult(session, seriesWinner)
	sm.pushRecords(session)

	sm.broadcast(session, protocol.RoundEnd, sm.roundEndPayload(session, roundWinner, true))
	sm.unregister(session)

	sm.log.Info("series finished",
		zap.String("gameId", session.ID),
		zap.String("winner", domain.MarkLabel(seriesWinner)),
		zap.Int("xWins", session.series.XWins),
		zap.Int("oWins", session.series.OWins),
	)
}

// applyResult records the series for both seats; the AI seat is the user "AI".
func (sm *SessionManager) applyResult(session *Session, winner domain.Mark) {
	if sm.stats == nil {
		return
	}
	xUser := session.usernameOf(domain.X)
	oUser := session.usernameOf(domain.O)

	var xOutcome, oOutcome stats.Outcome
	switch winner {
	case domain.X:
		xOutcome, oOutcome = stats.Win, stats.Loss
	case domain.O:
		xOutcome, oOutcome = stats.Loss, stats.Win
	default:
		xOutcome, oOutcome = stats.Draw, stats.Draw
	}

	ctx, cancel := sm.statsContext()
	defer cancel()

	if err := sm.stats.UpdateResult(ctx, xUser, xOutcome); err != nil {
		sm.log.Error("failed to update stats", zap.String("user", xUser), zap.Error(err))
	}
	if err := sm.stats.UpdateResult(ctx, oUser, oOutcome); err != nil {
		sm.log.Error("failed to update stats", zap.String("user", oUser), zap.Error(err))
	}
}

func (sm *SessionManager) pushRecords(session *Session) {
	if sm.stats == nil {
		return
	}
	ctx, cancel := sm.statsContext()
	defer cancel()

	snap, err := sm.stats.Snapshot(ctx)
	if err != nil {
		sm.log.Error("failed to read stats snapshot", zap.String("gameId", session.ID), zap.Error(err))
		return
	}
	sm.broadcast(session, protocol.RecordsSync, snap)
}
