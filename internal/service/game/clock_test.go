package game

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
	"github.com/kevbol04/JuegoMultijugador/internal/protocol"
)

func shortTurns(t *testing.T, d time.Duration) {
	t.Helper()
	prev := turnUnit
	turnUnit = d
	t.Cleanup(func() { turnUnit = prev })
}

func currentSeq(s *Session) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnSeq
}

func TestTurnClock_TimeoutFlipsTurn(t *testing.T) {
	shortTurns(t, 20*time.Millisecond)
	sm, _ := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	_, err := sm.StartPvp(ana, bob, domain.GameConfig{TimeLimitSec: 1})
	require.NoError(t, err)
	defer sm.Shutdown()

	var msgs []sent
	idx := -1
	require.Eventually(t, func() bool {
		msgs = bob.messages()
		idx = -1
		for i, m := range msgs {
			if m.Type == protocol.Timeout {
				idx = i
				break
			}
		}
		return idx >= 0 && len(msgs) > idx+1
	}, 2*time.Second, 5*time.Millisecond)

	timeout := msgs[idx].Payload.(protocol.TimeoutPayload)
	assert.Equal(t, "X", timeout.TimedOut)
	assert.Equal(t, domain.TimeoutMessage, timeout.Message)

	require.Equal(t, protocol.GameState, msgs[idx+1].Type)
	state := msgs[idx+1].Payload.(protocol.GameStatePayload)
	assert.Equal(t, "O", state.NextPlayer)
	for _, row := range state.Board {
		assert.Equal(t, []string{"", "", ""}, row)
	}
}

func TestTurnClock_StaleExpiryIsIgnored(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	session, err := sm.StartPvp(ana, bob, domain.GameConfig{TimeLimitSec: 60})
	require.NoError(t, err)
	defer sm.Shutdown()

	armedForX := currentSeq(session)
	mustMove(t, sm, ana, 1, 1)

	// the X timer fires just after X moved
	sm.expireTurn(session.ID, domain.X, armedForX)
	// an O expiry carrying the old stamp
	sm.expireTurn(session.ID, domain.O, armedForX)
	// a session that no longer exists
	sm.expireTurn("gone", domain.O, currentSeq(session))

	assert.Empty(t, ana.ofType(protocol.Timeout))
	assert.Empty(t, bob.ofType(protocol.Timeout))

	// the live O timer
	sm.expireTurn(session.ID, domain.O, currentSeq(session))
	last, ok := bob.last(protocol.Timeout)
	require.True(t, ok)
	assert.Equal(t, "O", last.Payload.(protocol.TimeoutPayload).TimedOut)

	state, ok := ana.last(protocol.GameState)
	require.True(t, ok)
	assert.Equal(t, "X", state.Payload.(protocol.GameStatePayload).NextPlayer)
	assert.Equal(t, "X", state.Payload.(protocol.GameStatePayload).Board[1][1])
}

func TestTurnClock_NotArmedWithoutLimit(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	session, err := sm.StartPvp(ana, bob, domain.GameConfig{})
	require.NoError(t, err)

	session.mu.Lock()
	defer session.mu.Unlock()
	assert.Nil(t, session.timer)
}

func TestTurnClock_PveTimeoutHandsTurnToAI(t *testing.T) {
	sm, _ := newTestManager(t, firstEmpty{})
	ana := newPeer("ana")

	session, err := sm.StartPve(ana, domain.Easy, domain.GameConfig{TimeLimitSec: 60})
	require.NoError(t, err)
	defer sm.Shutdown()

	sm.expireTurn(session.ID, domain.X, currentSeq(session))

	states := ana.ofType(protocol.GameState)
	require.GreaterOrEqual(t, len(states), 3)
	afterTimeout := states[len(states)-2].Payload.(protocol.GameStatePayload)
	afterAI := states[len(states)-1].Payload.(protocol.GameStatePayload)
	assert.Equal(t, "O", afterTimeout.NextPlayer)
	assert.Equal(t, "X", afterAI.NextPlayer)
	assert.Equal(t, "O", afterAI.Board[0][0])

	session.mu.Lock()
	assert.NotNil(t, session.timer, "the human turn is re-armed")
	session.mu.Unlock()
}

func TestTurnClock_FinishedSeriesStopsClock(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	ana, bob := newPeer("ana"), newPeer("bob")

	session, err := sm.StartPvp(ana, bob, domain.GameConfig{TimeLimitSec: 60})
	require.NoError(t, err)

	playTopRowWin(t, sm, ana, bob)
	playTopRowWin(t, sm, ana, bob)

	session.mu.Lock()
	assert.Nil(t, session.timer)
	assert.True(t, session.finished)
	session.mu.Unlock()

	sm.expireTurn(session.ID, domain.X, currentSeq(session))
	assert.Empty(t, ana.ofType(protocol.Timeout))
}

func TestTurnClock_MoveAndExpiryRace(t *testing.T) {
	sm, _ := newTestManager(t, nil)
	defer sm.Shutdown()

	for i := 0; i < 200; i++ {
		ana, bob := newPeer(fmt.Sprintf("ana%d", i)), newPeer(fmt.Sprintf("bob%d", i))
		session, err := sm.StartPvp(ana, bob, domain.GameConfig{TimeLimitSec: 60})
		require.NoError(t, err)
		seq := currentSeq(session)

		var moveErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			moveErr = sm.HandleMove(ana, 1, 1)
		}()
		go func() {
			defer wg.Done()
			sm.expireTurn(session.ID, domain.X, seq)
		}()
		wg.Wait()

		moved := moveErr == nil
		timedOut := len(bob.ofType(protocol.Timeout)) == 1
		require.NotEqual(t, moved, timedOut, "iteration %d: move=%v timeout=%v", i, moved, timedOut)
		if timedOut {
			assert.ErrorIs(t, moveErr, domain.ErrNotYourTurn)
		}

		session.mu.Lock()
		cell := session.board[1][1]
		session.mu.Unlock()
		if moved {
			assert.Equal(t, domain.X, cell)
		} else {
			assert.Equal(t, domain.Empty, cell)
		}

		sm.HandleDisconnect(ana)
	}
}
