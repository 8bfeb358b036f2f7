package ws

import (
	"sync"

	"adminka/internal/logger"
	"adminka/internal/models"

	"github.com/google/uuid"
)

// Hub fans live-update messages out to every open tab of a session.
type Hub struct {
	// Map of sessionID -> connID -> connection channel
	sessions map[string]map[string]chan models.ServerMessage

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]map[string]chan models.ServerMessage),
	}
}

// Join registers a new connection for sessionID.
func (h *Hub) Join(sessionID string) (string, chan models.ServerMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.sessions[sessionID]
	if !ok {
		conns = make(map[string]chan models.ServerMessage)
		h.sessions[sessionID] = conns
	}

	connID := uuid.NewString()
	ch := make(chan models.ServerMessage, 16)
	conns[connID] = ch
	return connID, ch
}

func (h *Hub) Leave(sessionID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	if ch, ok := conns[connID]; ok {
		close(ch)
		delete(conns, connID)
	}
	if len(conns) == 0 {
		delete(h.sessions, sessionID)
	}
}

// Publish sends msg to every connection of sessionID. Slow tabs drop
// messages rather than block the publisher.
func (h *Hub) Publish(sessionID string, msg models.ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, ch := range h.sessions[sessionID] {
		select {
		case ch <- msg:
		default:
			logger.Get().Debug().Str("conn", connID).Msg("live update dropped")
		}
	}
}

// Disconnect tells every tab of sessionID that it was signed out and closes
// their channels.
func (h *Hub) Disconnect(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.sessions[sessionID] {
		select {
		case ch <- models.ServerMessage{Type: models.ServerMessageTypeSignedOut}:
		default:
		}
		close(ch)
	}
	delete(h.sessions, sessionID)
}

// Connections reports how many tabs sessionID has open.
func (h *Hub) Connections(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}
