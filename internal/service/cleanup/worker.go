package cleanup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type IdleReaper interface {
	CleanupIdleSessions(maxIdle time.Duration) int
}

// Worker closes sessions that have gone quiet for longer than MaxIdle.
type Worker struct {
	Sessions IdleReaper
	MaxIdle  time.Duration
	Interval time.Duration

	log *zap.Logger
}

// NewWorker checks every quarter of maxIdle, and never more than once a
// second.
func NewWorker(sessions IdleReaper, maxIdle time.Duration, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := maxIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &Worker{Sessions: sessions, MaxIdle: maxIdle, Interval: interval, log: logger}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.log.Info("background worker started", zap.Duration("maxIdle", w.MaxIdle), zap.Duration("interval", w.Interval))

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.runCleanup()
		}
	}
}

func (w *Worker) runCleanup() {
	if n := w.Sessions.CleanupIdleSessions(w.MaxIdle); n > 0 {
		w.log.Info("removed idle sessions", zap.Int("count", n))
	}
}
