package client

import "sync/atomic"

// Slots counts live connections across every transport against maxClients.
type Slots struct {
	max    int64
	active atomic.Int64
}

func NewSlots(max int) *Slots {
	return &Slots{max: int64(max)}
}

// TryAcquire takes a slot, or reports false when the server is full.
func (s *Slots) TryAcquire() bool {
	for {
		n := s.active.Load()
		if n >= s.max {
			return false
		}
		if s.active.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (s *Slots) Release() {
	s.active.Add(-1)
}

func (s *Slots) Active() int {
	return int(s.active.Load())
}

func (s *Slots) Max() int {
	return int(s.max)
}
