package matchmaking

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/domain"
	"github.com/kevbol04/JuegoMultijugador/internal/service/game"
)

// Entry is a peer asking for a PvP match with its requested configuration.
type Entry struct {
	Peer   game.Peer
	Config domain.GameConfig
}

// MatchmakingQueue holds at most one waiting player.
type MatchmakingQueue struct {
	waiting *Entry
	mu      sync.Mutex
	log     *zap.Logger
}

func NewMatchmakingQueue(logger *zap.Logger) *MatchmakingQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchmakingQueue{log: logger}
}

// TryEnqueue parks e when nobody is waiting, or pairs it with the waiting
// entry. On a match first is the entry that was waiting; it plays X and its
// configuration governs the game. Enqueueing the peer that is already
// waiting just refreshes its configuration.
func (q *MatchmakingQueue) TryEnqueue(e Entry) (first, second Entry, matched bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting == nil {
		q.waiting = &e
		q.log.Info("player waiting", zap.String("user", e.Peer.Username()))
		return Entry{}, Entry{}, false
	}

	if q.waiting.Peer.ID() == e.Peer.ID() {
		q.waiting.Config = e.Config
		return Entry{}, Entry{}, false
	}

	first = *q.waiting
	q.waiting = nil
	q.log.Info("match found",
		zap.String("x", first.Peer.Username()),
		zap.String("o", e.Peer.Username()),
	)
	return first, e, true
}

// RemoveIfWaiting drops the peer from the slot and reports whether it was there.
func (q *MatchmakingQueue) RemoveIfWaiting(peerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting == nil || q.waiting.Peer.ID() != peerID {
		return false
	}
	q.log.Info("player left queue", zap.String("user", q.waiting.Peer.Username()))
	q.waiting = nil
	return true
}

// Waiting reports the username in the slot, if any.
func (q *MatchmakingQueue) Waiting() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting == nil {
		return "", false
	}
	return q.waiting.Peer.Username(), true
}
