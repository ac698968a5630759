package dispatch

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// WSSession is one connected map/table client. Writes are serialized
// per session; gorilla/websocket allows only one concurrent writer.
type WSSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *WSSession) Send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

// WSRegistry holds every connected client session. It is the render
// sink of the live map: the server pushes interpolated position frames
// and booking-list changes here.
type WSRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*WSSession
	logger   *slog.Logger
}

func NewWSRegistry(logger *slog.Logger) *WSRegistry {
	return &WSRegistry{sessions: make(map[string]*WSSession), logger: logger}
}

func (r *WSRegistry) Add(clientID string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[clientID] = &WSSession{conn: conn}
}

func (r *WSRegistry) Remove(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[clientID]; ok {
		_ = s.conn.Close()
		delete(r.sessions, clientID)
	}
}

// Broadcast sends a payload to every session, dropping sessions whose
// connection has gone away. Best-effort: a slow or dead client never
// blocks the tick loop for the others.
func (r *WSRegistry) Broadcast(v interface{}) {
	r.mu.RLock()
	snapshot := make(map[string]*WSSession, len(r.sessions))
	for id, s := range r.sessions {
		snapshot[id] = s
	}
	r.mu.RUnlock()

	for id, s := range snapshot {
		if err := s.Send(v); err != nil {
			r.logger.Warn("ws send failed, dropping session", "client_id", id, "error", err)
			r.Remove(id)
		}
	}
}

func (r *WSRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
