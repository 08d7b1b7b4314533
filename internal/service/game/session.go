package game

import (
	"sync"
	"time"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
)

// Session is one match: a best-of-N series between two seats. Every field
// below mu is guarded by it.
type Session struct {
	ID         string
	Mode       domain.Mode
	PlayerX    Peer
	PlayerO    Peer // nil in PvE, the AI holds O
	Difficulty domain.Difficulty
	Config     domain.GameConfig
	CreatedAt  time.Time

	mu           sync.Mutex
	board        domain.Board
	next         domain.Mark
	series       domain.Series
	finished     bool
	timer        *time.Timer
	turnSeq      uint64
	lastActivity time.Time
}

func newSession(id string, mode domain.Mode, x, o Peer, difficulty domain.Difficulty, cfg domain.GameConfig, now time.Time) *Session {
	return &Session{
		ID:           id,
		Mode:         mode,
		PlayerX:      x,
		PlayerO:      o,
		Difficulty:   difficulty,
		Config:       cfg,
		CreatedAt:    now,
		board:        domain.NewBoard(cfg.BoardSize),
		next:         domain.X,
		series:       domain.NewSeries(cfg.TotalRounds),
		lastActivity: now,
	}
}

// markOf resolves the seat of p. In PvE the human is always X.
func (s *Session) markOf(p Peer) domain.Mark {
	switch {
	case samePeer(p, s.PlayerX):
		return domain.X
	case samePeer(p, s.PlayerO):
		return domain.O
	}
	return domain.Empty
}

func (s *Session) isAISeat(m domain.Mark) bool {
	return s.Mode == domain.ModePVE && m == domain.O
}

// participants are the human peers of the session
func (s *Session) participants() []Peer {
	if s.PlayerO == nil {
		return []Peer{s.PlayerX}
	}
	return []Peer{s.PlayerX, s.PlayerO}
}

func (s *Session) opponentOf(p Peer) Peer {
	switch {
	case samePeer(p, s.PlayerX):
		return s.PlayerO
	case samePeer(p, s.PlayerO):
		return s.PlayerX
	}
	return nil
}

func (s *Session) usernameOf(m domain.Mark) string {
	switch {
	case m == domain.X:
		return s.PlayerX.Username()
	case s.isAISeat(m):
		return domain.AIUser
	case s.PlayerO != nil:
		return s.PlayerO.Username()
	}
	return ""
}

// Summary is a read-only view used by diagnostics.
type Summary struct {
	ID          string            `json:"gameId"`
	Mode        domain.Mode       `json:"mode"`
	PlayerX     string            `json:"playerX"`
	PlayerO     string            `json:"playerO"`
	Difficulty  domain.Difficulty `json:"difficulty,omitempty"`
	BoardSize   int               `json:"boardSize"`
	Round       int               `json:"round"`
	TotalRounds int               `json:"totalRounds"`
	XWins       int               `json:"xWins"`
	OWins       int               `json:"oWins"`
	NextPlayer  string            `json:"nextPlayer"`
	TimeLimit   int               `json:"timeLimit"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func (s *Session) summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		ID:          s.ID,
		Mode:        s.Mode,
		PlayerX:     s.usernameOf(domain.X),
		PlayerO:     s.usernameOf(domain.O),
		Difficulty:  s.Difficulty,
		BoardSize:   s.Config.BoardSize,
		Round:       s.series.Round,
		TotalRounds: s.series.TotalRounds,
		XWins:       s.series.XWins,
		OWins:       s.series.OWins,
		NextPlayer:  string(s.next),
		TimeLimit:   s.Config.TimeLimitSec,
		CreatedAt:   s.CreatedAt,
	}
}
