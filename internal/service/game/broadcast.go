package game

import (
	"github.com/kevbol04/JuegoMultijugador/internal/domain"
	"github.com/kevbol04/JuegoMultijugador/internal/protocol"
)

func (sm *SessionManager) broadcast(session *Session, t protocol.MessageType, payload any) {
	for _, p := range session.participants() {
		p.Send(t, payload)
	}
}

// GAME_START is personal: each seat learns its own symbol and its opponent.
func (sm *SessionManager) sendGameStart(session *Session) {
	for _, p := range session.participants() {
		mark := session.markOf(p)
		p.Send(protocol.GameStart, protocol.GameStartPayload{
			GameID:      session.ID,
			Mode:        string(session.Mode),
			Round:       session.series.Round,
			TotalRounds: session.series.TotalRounds,
			XWins:       session.series.XWins,
			OWins:       session.series.OWins,
			WinsNeeded:  session.series.WinsNeeded(),
			YourSymbol:  string(mark),
			Opponent:    session.usernameOf(mark.Opponent()),
			BoardSize:   session.Config.BoardSize,
			TimeLimit:   session.Config.TimeLimitSec,
			Turbo:       session.Config.Turbo,
		})
	}
}

// broadcastState sends the board; nextPlayer is "" once the round is over.
func (sm *SessionManager) broadcastState(session *Session, nextPlayer string) {
	sm.broadcast(session, protocol.GameState, protocol.GameStatePayload{
		GameID:     session.ID,
		BoardSize:  session.board.Size(),
		Board:      session.board.Strings(),
		NextPlayer: nextPlayer,
	})
}

func (sm *SessionManager) roundEndPayload(session *Session, roundWinner domain.Mark, seriesOver bool) protocol.RoundEndPayload {
	payload := protocol.RoundEndPayload{
		GameID:      session.ID,
		RoundWinner: domain.MarkLabel(roundWinner),
		SeriesOver:  seriesOver,
		Round:       session.series.Round,
		TotalRounds: session.series.TotalRounds,
		XWins:       session.series.XWins,
		OWins:       session.series.OWins,
		WinsNeeded:  session.series.WinsNeeded(),
	}
	if !seriesOver {
		return payload
	}

	winner := session.series.Winner()
	payload.Winner = domain.MarkLabel(winner)
	if winner != domain.Empty {
		winnerUser := session.usernameOf(winner)
		loserUser := session.usernameOf(winner.Opponent())
		payload.WinnerUser = &winnerUser
		payload.LoserUser = &loserUser
	}
	return payload
}
