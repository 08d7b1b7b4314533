package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kevbol04/JuegoMultijugador/internal/service/game"
	"github.com/kevbol04/JuegoMultijugador/internal/service/stats"
)

type SessionLister interface {
	ActiveSessions() []game.Summary
}

type OnlineLister interface {
	Snapshot() []string
}

// WatchHandler exposes read-only views of the running server.
type WatchHandler struct {
	Sessions SessionLister
	Online   OnlineLister
	Stats    stats.Store

	log *zap.Logger
}

func NewWatchHandler(sessions SessionLister, online OnlineLister, store stats.Store, logger *zap.Logger) *WatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WatchHandler{Sessions: sessions, Online: online, Stats: store, log: logger}
}

type sessionsResponse struct {
	Count    int            `json:"count"`
	Sessions []game.Summary `json:"sessions"`
}

type onlineResponse struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// GetSessions lists every running series, oldest first.
func (h *WatchHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	active := h.Sessions.ActiveSessions()
	writeJSON(w, http.StatusOK, sessionsResponse{Count: len(active), Sessions: active})
}

func (h *WatchHandler) GetOnline(w http.ResponseWriter, r *http.Request) {
	users := h.Online.Snapshot()
	if users == nil {
		users = []string{}
	}
	writeJSON(w, http.StatusOK, onlineResponse{Count: len(users), Users: users})
}

// GetStats returns the same document clients receive in RECORDS_SYNC.
func (h *WatchHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	snap, err := h.Stats.Snapshot(ctx)
	if err != nil {
		h.log.Error("failed to read stats", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to fetch stats"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
