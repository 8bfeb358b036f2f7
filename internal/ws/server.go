package ws

import (
	"net/http"

	"adminka/internal/auth"
	"adminka/internal/logger"

	"github.com/gorilla/websocket"
)

type sessionLookup interface {
	Lookup(token string) (auth.State, auth.Session)
}

type Server struct {
	sessions sessionLookup
	hub      *Hub
	upgrader *websocket.Upgrader
}

func NewServer(sessions sessionLookup, hub *Hub) *Server {
	return &Server{
		sessions: sessions,
		hub:      hub,
		upgrader: &websocket.Upgrader{},
	}
}

// HandleConnections upgrades a signed-in tab to the live-update socket.
// The default upgrader rejects cross-origin handshakes.
func (s *Server) HandleConnections(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie("token"); err == nil {
		token = c.Value
	}

	state, session := s.sessions.Lookup(token)
	if state != auth.StateAuthenticated {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("error upgrading to websocket")
		return
	}

	conn := NewConnection(s.hub, ws, session.ID)
	if err := conn.Handle(r.Context()); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		logger.Get().Debug().Err(err).Str("session", session.ID).Msg("live connection closed")
	}
}
