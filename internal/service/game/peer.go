package game

import "github.com/kevbol04/JuegoMultijugador/internal/protocol"

// Peer is one logged-in client as the session engine sees it. Send must
// not block for long and must be a no-op once the client is gone.
// IsClosed must report true before the peer's disconnect cleanup runs.
type Peer interface {
	ID() string
	Username() string
	Send(t protocol.MessageType, payload any)
	IsClosed() bool
}

func samePeer(a, b Peer) bool {
	return a != nil && b != nil && a.ID() == b.ID()
}
