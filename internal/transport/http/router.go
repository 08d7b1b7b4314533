package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/transport/http/middleware"
)

// NewRouter mounts the diagnostics API and, when ws is non-nil, the
// WebSocket entry point.
func NewRouter(watch *WatchHandler, ws http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", watch.GetStats)
		r.Get("/sessions", watch.GetSessions)
		r.Get("/online", watch.GetOnline)
	})

	if ws != nil {
		r.Handle("/ws", ws)
	}
	return r
}
