package game

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
	"github.com/kevbol04/JuegoMultijugador/internal/protocol"
	"github.com/kevbol04/JuegoMultijugador/internal/service/bot"
	"github.com/kevbol04/JuegoMultijugador/internal/service/stats"
)

type sent struct {
	Type    protocol.MessageType
	Payload any
}

type fakePeer struct {
	id     string
	name   string
	mu     sync.Mutex
	msgs   []sent
	closed atomic.Bool
}

func newPeer(name string) *fakePeer {
	return &fakePeer{id: "peer-" + name, name: name}
}

func (p *fakePeer) ID() string       { return p.id }
func (p *fakePeer) Username() string { return p.name }
func (p *fakePeer) IsClosed() bool   { return p.closed.Load() }

func (p *fakePeer) Send(t protocol.MessageType, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, sent{Type: t, Payload: payload})
}

func (p *fakePeer) messages() []sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sent(nil), p.msgs...)
}

func (p *fakePeer) reset() {
	p.mu.Lock()
	p.msgs = nil
	p.mu.Unlock()
}

func (p *fakePeer) ofType(t protocol.MessageType) []sent {
	var out []sent
	for _, m := range p.messages() {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func (p *fakePeer) last(t protocol.MessageType) (sent, bool) {
	all := p.ofType(t)
	if len(all) == 0 {
		return sent{}, false
	}
	return all[len(all)-1], true
}

// firstEmpty is a predictable AI: the first free cell in row-major order
type firstEmpty struct{}

func (firstEmpty) ChooseMove(board domain.Board, _ domain.Difficulty) (domain.Cell, error) {
	cells := board.EmptyCells()
	if len(cells) == 0 {
		return domain.Cell{}, domain.ErrNoMoves
	}
	return cells[0], nil
}

func newTestManager(t *testing.T, ai bot.Strategy) (*SessionManager, *stats.FileStore) {
	t.Helper()
	store, err := stats.NewFileStore(filepath.Join(t.TempDir(), "records.json"))
	require.NoError(t, err)
	return NewSessionManager(store, ai, zaptest.NewLogger(t)), store
}

func mustMove(t *testing.T, sm *SessionManager, p Peer, row, col int) {
	t.Helper()
	require.NoError(t, sm.HandleMove(p, row, col))
}

// X takes the top row while O answers on the middle row
func playTopRowWin(t *testing.T, sm *SessionManager, x, o Peer) {
	t.Helper()
	mustMove(t, sm, x, 0, 0)
	mustMove(t, sm, o, 1, 0)
	mustMove(t, sm, x, 0, 1)
	mustMove(t, sm, o, 1, 1)
	mustMove(t, sm, x, 0, 2)
}

// ends in a full board without a line
func playDraw(t *testing.T, sm *SessionManager, x, o Peer) {
	t.Helper()
	mustMove(t, sm, x, 0, 0)
	mustMove(t, sm, o, 0, 1)
	mustMove(t, sm, x, 0, 2)
	mustMove(t, sm, o, 1, 1)
	mustMove(t, sm, x, 2, 1)
	mustMove(t, sm, o, 1, 2)
	mustMove(t, sm, x, 1, 0)
	mustMove(t, sm, o, 2, 0)
	mustMove(t, sm, x, 2, 2)
}

func TestStartPvp_AnnouncesSeats(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	session, err := sm.StartPvp(ana, bob, domain.GameConfig{BoardSize: 4, TotalRounds: 4})
	require.NoError(t, err)

	msgs := ana.messages()
	require.Len(t, msgs, 2)
	start := msgs[0].Payload.(protocol.GameStartPayload)
	assert.Equal(t, "X", start.YourSymbol)
	assert.Equal(t, "bob", start.Opponent)
	assert.Equal(t, 1, start.Round)
	assert.Equal(t, 5, start.TotalRounds)
	assert.Equal(t, 3, start.WinsNeeded)
	assert.Equal(t, session.ID, start.GameID)

	state := msgs[1].Payload.(protocol.GameStatePayload)
	assert.Equal(t, "X", state.NextPlayer)
	assert.Equal(t, 4, state.BoardSize)
	assert.Len(t, state.Board, 4)

	bobStart, ok := bob.last(protocol.GameStart)
	require.True(t, ok)
	assert.Equal(t, "O", bobStart.Payload.(protocol.GameStartPayload).YourSymbol)

	assert.True(t, sm.InSession(ana))
	assert.True(t, sm.InSession(bob))
	s1, _ := sm.SessionFor(ana)
	s2, _ := sm.SessionFor(bob)
	assert.Same(t, s1, s2)
}

func TestHandleMove_Rejections(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana, bob, eve := newPeer("ana"), newPeer("bob"), newPeer("eve")

	_, err := sm.StartPvp(ana, bob, domain.GameConfig{})
	require.NoError(t, err)

	assert.ErrorIs(t, sm.HandleMove(eve, 0, 0), domain.ErrNotInSession)
	assert.ErrorIs(t, sm.HandleMove(bob, 0, 0), domain.ErrNotYourTurn)
	assert.ErrorIs(t, sm.HandleMove(ana, 3, 0), domain.ErrOutOfRange)
	assert.ErrorIs(t, sm.HandleMove(ana, 0, -1), domain.ErrOutOfRange)

	mustMove(t, sm, ana, 1, 1)
	assert.ErrorIs(t, sm.HandleMove(bob, 1, 1), domain.ErrCellOccupied)
	assert.ErrorIs(t, sm.HandleMove(ana, 0, 0), domain.ErrNotYourTurn)
}

func TestRoundWin_TopRow(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	session, err := sm.StartPvp(ana, bob, domain.GameConfig{BoardSize: 3, TotalRounds: 3})
	require.NoError(t, err)
	ana.reset()

	mustMove(t, sm, ana, 0, 0)
	mustMove(t, sm, bob, 1, 0)
	mustMove(t, sm, ana, 0, 1)
	mustMove(t, sm, bob, 1, 1)
	ana.reset()
	mustMove(t, sm, ana, 0, 2)

	msgs := ana.messages()
	require.Len(t, msgs, 4)

	final := msgs[0].Payload.(protocol.GameStatePayload)
	assert.Equal(t, protocol.GameState, msgs[0].Type)
	assert.Equal(t, "", final.NextPlayer)
	assert.Equal(t, []string{"X", "X", "X"}, final.Board[0])

	require.Equal(t, protocol.RoundEnd, msgs[1].Type)
	end := msgs[1].Payload.(protocol.RoundEndPayload)
	assert.Equal(t, "X", end.RoundWinner)
	assert.False(t, end.SeriesOver)
	assert.Equal(t, 1, end.XWins)
	assert.Equal(t, 0, end.OWins)
	assert.Equal(t, 1, end.Round)
	assert.Equal(t, 2, end.WinsNeeded)
	assert.Nil(t, end.WinnerUser)

	require.Equal(t, protocol.GameStart, msgs[2].Type)
	assert.Equal(t, 2, msgs[2].Payload.(protocol.GameStartPayload).Round)
	assert.Equal(t, 1, msgs[2].Payload.(protocol.GameStartPayload).XWins)

	fresh := msgs[3].Payload.(protocol.GameStatePayload)
	assert.Equal(t, "X", fresh.NextPlayer)
	for _, row := range fresh.Board {
		assert.Equal(t, []string{"", "", ""}, row)
	}

	assert.True(t, sm.InSession(ana))
	assert.Equal(t, 2, session.summary().Round)
}

func TestSeries_EndsAtWinsNeeded(t *testing.T) {
	sm, store := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	_, err := sm.StartPvp(ana, bob, domain.GameConfig{TotalRounds: 3})
	require.NoError(t, err)

	playTopRowWin(t, sm, ana, bob)
	bob.reset()
	playTopRowWin(t, sm, ana, bob)

	msgs := bob.messages()
	require.GreaterOrEqual(t, len(msgs), 3)
	tail := msgs[len(msgs)-3:]
	assert.Equal(t, protocol.GameState, tail[0].Type)
	assert.Equal(t, protocol.RecordsSync, tail[1].Type)
	require.Equal(t, protocol.RoundEnd, tail[2].Type)

	end := tail[2].Payload.(protocol.RoundEndPayload)
	assert.True(t, end.SeriesOver)
	assert.Equal(t, "X", end.Winner)
	assert.Equal(t, 2, end.XWins)
	assert.Equal(t, 2, end.Round)
	require.NotNil(t, end.WinnerUser)
	require.NotNil(t, end.LoserUser)
	assert.Equal(t, "ana", *end.WinnerUser)
	assert.Equal(t, "bob", *end.LoserUser)

	snap := tail[1].Payload.(stats.Snapshot)
	assert.Equal(t, 1, snap.Players["ana"].Wins)
	assert.Equal(t, 1, snap.Players["bob"].Losses)

	stored, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, stored)

	assert.False(t, sm.InSession(ana))
	assert.False(t, sm.InSession(bob))
	assert.Empty(t, sm.ActiveSessions())
	assert.ErrorIs(t, sm.HandleMove(ana, 2, 2), domain.ErrNotInSession)
}

func TestSeries_RoundLimitDraw(t *testing.T) {
	sm, store := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	_, err := sm.StartPvp(ana, bob, domain.GameConfig{TotalRounds: 3})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		playDraw(t, sm, ana, bob)
	}

	last, ok := ana.last(protocol.RoundEnd)
	require.True(t, ok)
	end := last.Payload.(protocol.RoundEndPayload)
	assert.True(t, end.SeriesOver)
	assert.Equal(t, "DRAW", end.Winner)
	assert.Equal(t, "DRAW", end.RoundWinner)
	assert.Equal(t, 3, end.Round)
	assert.Nil(t, end.WinnerUser)
	assert.Nil(t, end.LoserUser)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats.PlayerStats{Draws: 1}, snap.Players["ana"])
	assert.Equal(t, stats.PlayerStats{Draws: 1}, snap.Players["bob"])
	assert.False(t, sm.InSession(ana))
}

func TestPve_AIRepliesInline(t *testing.T) {
	sm, store := newTestManager(t, firstEmpty{})
	ana := newPeer("ana")

	_, err := sm.StartPve(ana, domain.Hard, domain.GameConfig{})
	require.NoError(t, err)

	start, ok := ana.last(protocol.GameStart)
	require.True(t, ok)
	assert.Equal(t, "AI", start.Payload.(protocol.GameStartPayload).Opponent)

	ana.reset()
	mustMove(t, sm, ana, 2, 0)

	states := ana.ofType(protocol.GameState)
	require.Len(t, states, 2)
	assert.Equal(t, "O", states[0].Payload.(protocol.GameStatePayload).NextPlayer)
	after := states[1].Payload.(protocol.GameStatePayload)
	assert.Equal(t, "X", after.NextPlayer)
	assert.Equal(t, "O", after.Board[0][0])

	// the AI keeps filling row 0, X completes row 2 twice
	mustMove(t, sm, ana, 2, 1)
	mustMove(t, sm, ana, 2, 2)
	mustMove(t, sm, ana, 2, 0)
	mustMove(t, sm, ana, 2, 1)
	mustMove(t, sm, ana, 2, 2)

	end, ok := ana.last(protocol.RoundEnd)
	require.True(t, ok)
	payload := end.Payload.(protocol.RoundEndPayload)
	assert.True(t, payload.SeriesOver)
	require.NotNil(t, payload.LoserUser)
	assert.Equal(t, "AI", *payload.LoserUser)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Players["ana"].Wins)
	assert.Equal(t, 1, snap.Players["AI"].Losses)
}

func TestPve_HardNeverLosesASeries(t *testing.T) {
	sm, store := newTestManager(t, bot.NewEngine())
	ana := newPeer("ana")

	_, err := sm.StartPve(ana, domain.Hard, domain.GameConfig{})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		session, ok := sm.SessionFor(ana)
		if !ok {
			break
		}
		session.mu.Lock()
		cells := session.board.EmptyCells()
		session.mu.Unlock()
		require.NotEmpty(t, cells)
		mustMove(t, sm, ana, cells[0].Row, cells[0].Col)
	}

	require.False(t, sm.InSession(ana))
	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, snap.Players["ana"].Wins)
	assert.Equal(t, 1, snap.Players["AI"].Wins+snap.Players["AI"].Draws)
}

func TestStart_RefusesBusyPeer(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana, bob, eve := newPeer("ana"), newPeer("bob"), newPeer("eve")

	_, err := sm.StartPvp(ana, bob, domain.GameConfig{})
	require.NoError(t, err)

	_, err = sm.StartPve(ana, domain.Easy, domain.GameConfig{})
	assert.ErrorIs(t, err, domain.ErrAlreadyInSession)

	_, err = sm.StartPvp(eve, bob, domain.GameConfig{})
	assert.ErrorIs(t, err, domain.ErrAlreadyInSession)
	assert.False(t, sm.InSession(eve))
	assert.Len(t, sm.ActiveSessions(), 1)
}

func TestStart_RefusesClosedPeer(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")
	ana.closed.Store(true)

	_, err := sm.StartPvp(ana, bob, domain.GameConfig{})
	assert.ErrorIs(t, err, domain.ErrOpponentLeft)
	assert.False(t, sm.InSession(ana))
	assert.False(t, sm.InSession(bob))
	assert.Empty(t, bob.ofType(protocol.GameStart))
	assert.Empty(t, sm.ActiveSessions())

	_, err = sm.StartPve(ana, domain.Easy, domain.GameConfig{})
	assert.ErrorIs(t, err, domain.ErrOpponentLeft)

	// bob is free to play someone else
	_, err = sm.StartPve(bob, domain.Easy, domain.GameConfig{})
	assert.NoError(t, err)
}

func TestHandleDisconnect_NotifiesOpponent(t *testing.T) {
	sm, store := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	_, err := sm.StartPvp(ana, bob, domain.GameConfig{TimeLimitSec: 60})
	require.NoError(t, err)
	mustMove(t, sm, ana, 0, 0)

	sm.HandleDisconnect(ana)

	last, ok := bob.last(protocol.Error)
	require.True(t, ok)
	assert.Equal(t, string(domain.ErrOpponentLeft), last.Payload.(protocol.MessagePayload).Message)
	assert.False(t, sm.InSession(bob))
	assert.Empty(t, sm.ActiveSessions())

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Players)

	// a second disconnect is harmless
	sm.HandleDisconnect(bob)
}

func TestCleanupIdleSessions(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	ana, bob := newPeer("ana"), newPeer("bob")
	cara := newPeer("cara")
	_, err := sm.StartPvp(ana, bob, domain.GameConfig{})
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	_, err = sm.StartPve(cara, domain.Easy, domain.GameConfig{})
	require.NoError(t, err)

	now = now.Add(40 * time.Minute)
	assert.Equal(t, 1, sm.CleanupIdleSessions(time.Hour))

	msg, ok := ana.last(protocol.Error)
	require.True(t, ok)
	assert.Equal(t, string(domain.ErrIdleClosed), msg.Payload.(protocol.MessagePayload).Message)
	assert.False(t, sm.InSession(bob))
	assert.True(t, sm.InSession(cara))
}

func TestActiveSessions(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana := newPeer("ana")

	_, err := sm.StartPve(ana, domain.Medium, domain.GameConfig{BoardSize: 5, TotalRounds: 5, Turbo: true})
	require.NoError(t, err)
	defer sm.Shutdown()

	list := sm.ActiveSessions()
	require.Len(t, list, 1)
	assert.Equal(t, domain.ModePVE, list[0].Mode)
	assert.Equal(t, "ana", list[0].PlayerX)
	assert.Equal(t, "AI", list[0].PlayerO)
	assert.Equal(t, 5, list[0].BoardSize)
	assert.Equal(t, 10, list[0].TimeLimit)
	assert.Equal(t, domain.Medium, list[0].Difficulty)
}
