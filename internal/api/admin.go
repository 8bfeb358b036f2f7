package api

import (
	"encoding/json"
	"net/http"
	"time"

	"adminka/internal/auth"
	"adminka/internal/logger"
)

type sessionLister interface {
	ListSessions() ([]auth.Session, error)
}

type readiness interface {
	Ready() bool
}

// AdminHandler serves the operator endpoints on the ops listener.
type AdminHandler struct {
	provider readiness
	sessions sessionLister
	now      func() time.Time
}

func NewAdminHandler(provider readiness, sessions sessionLister) *AdminHandler {
	return &AdminHandler{provider: provider, sessions: sessions, now: time.Now}
}

type HealthResponse struct {
	Status string `json:"status"`
}

// HealthHandler reports ready once persisted sessions are restored.
func (h *AdminHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if !h.provider.Ready() {
		resp.Status = "initializing"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

type SessionInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionsHandler lists the live persisted sessions.
func (h *AdminHandler) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListSessions()
	if err != nil {
		logger.Get().Error().Err(err).Msg("failed to list sessions")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	now := h.now()
	resp := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		if !s.ExpiresAt.After(now) {
			continue
		}
		resp = append(resp, SessionInfo{
			ID:        s.ID,
			Username:  s.Identity.Username,
			CreatedAt: s.CreatedAt,
			ExpiresAt: s.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Warn().Err(err).Msg("failed to encode response")
	}
}
