package hub

import (
	"sync"

	"github.com/devaloi/huddle/internal/domain"
)

// Conn is the interface the hub expects from a live connection.
type Conn interface {
	SessionID() string
	// Send queues a frame for delivery. It must not block.
	Send(data []byte)
}

// Sessions maps session ids to live connections.
type Sessions struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewSessions creates an empty session table.
func NewSessions() *Sessions {
	return &Sessions{conns: make(map[string]Conn)}
}

// Add registers c under its session id.
func (s *Sessions) Add(c Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[c.SessionID()]; ok {
		return domain.ErrDuplicateSession
	}
	s.conns[c.SessionID()] = c
	return nil
}

// Remove unregisters sid and reports whether it was present.
func (s *Sessions) Remove(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[sid]; !ok {
		return false
	}
	delete(s.conns, sid)
	return true
}

// Get returns the connection for sid.
func (s *Sessions) Get(sid string) (Conn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[sid]
	return c, ok
}

// Len returns the number of live connections.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}
